package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/im7mortal/UTM"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// CRS identifies a coordinate reference system by EPSG code.
// The workflow operates in a planar CRS; geographic layers (WGS84) are
// reprojected to the region CRS before any overlay operation.
type CRS struct {
	EPSG int
}

// Common reference systems.
var (
	// WGS84 is the geographic lat/long CRS most GeoJSON sources use.
	WGS84 = CRS{EPSG: 4326}

	// WebMercator is the default planar CRS of the model setup.
	WebMercator = CRS{EPSG: 3857}
)

// UTMNorth returns the CRS for a northern-hemisphere UTM zone (EPSG 326xx).
func UTMNorth(zone int) CRS { return CRS{EPSG: 32600 + zone} }

// UTMSouth returns the CRS for a southern-hemisphere UTM zone (EPSG 327xx).
func UTMSouth(zone int) CRS { return CRS{EPSG: 32700 + zone} }

// String returns the "EPSG:nnnn" form of the CRS.
func (c CRS) String() string { return fmt.Sprintf("EPSG:%d", c.EPSG) }

// IsGeographic reports whether coordinates are geographic lat/long degrees.
func (c CRS) IsGeographic() bool { return c.EPSG == 4326 }

// UTMZone returns the UTM zone number and hemisphere if the CRS is a UTM
// system, with ok false otherwise.
func (c CRS) UTMZone() (zone int, north bool, ok bool) {
	switch {
	case c.EPSG > 32600 && c.EPSG <= 32660:
		return c.EPSG - 32600, true, true
	case c.EPSG > 32700 && c.EPSG <= 32760:
		return c.EPSG - 32700, false, true
	default:
		return 0, false, false
	}
}

// ParseCRS parses an "EPSG:nnnn" identifier or a bare EPSG code.
func ParseCRS(s string) (CRS, error) {
	code := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "EPSG:")
	epsg, err := strconv.Atoi(code)
	if err != nil || epsg <= 0 {
		return CRS{}, errors.New(errors.ErrCodeInvalidCRS, "invalid CRS identifier: %q", s)
	}
	return CRS{EPSG: epsg}, nil
}

// UTMFor returns the UTM CRS covering a WGS84 coordinate, so a region can
// select its natural metric system without the caller knowing the zone.
func UTMFor(lon, lat float64) (CRS, error) {
	_, _, zone, _, err := UTM.FromLatLon(lat, lon, lat >= 0)
	if err != nil {
		return CRS{}, errors.Wrap(errors.ErrCodeInvalidCRS, err, "no UTM zone for coordinate (%v, %v)", lon, lat)
	}
	if lat >= 0 {
		return UTMNorth(zone), nil
	}
	return UTMSouth(zone), nil
}

// Reproject converts a layer from geographic WGS84 coordinates into the
// target planar CRS. Supported targets are Web Mercator and the UTM zones;
// layers already in the target CRS pass through unchanged. Reprojection of
// an already-planar layer into a different planar CRS is not supported.
func Reproject(l Layer, to CRS) (Layer, error) {
	if l.CRS == to {
		return l, nil
	}
	if !l.CRS.IsGeographic() {
		return Layer{}, errors.New(errors.ErrCodeInvalidCRS,
			"cannot reproject %s to %s: only WGS84 sources are supported", l.CRS, to)
	}

	proj, err := projectionTo(to)
	if err != nil {
		return Layer{}, err
	}

	out := Layer{CRS: to, Features: make([]Feature, 0, len(l.Features))}
	for _, f := range l.Features {
		if f.Geom == nil || f.Geom.IsEmpty() {
			continue
		}
		og, err := orbFromGeos(f.Geom)
		if err != nil {
			return Layer{}, err
		}
		pg, err := geosFromOrb(project.Geometry(og, proj))
		if err != nil {
			return Layer{}, err
		}
		nf := f
		nf.Geom = pg
		out.Features = append(out.Features, nf)
	}
	return out, nil
}

// projectionTo returns the point projection from WGS84 into the target CRS.
func projectionTo(to CRS) (orb.Projection, error) {
	if to == WebMercator {
		return project.WGS84.ToMercator, nil
	}
	if zone, _, ok := to.UTMZone(); ok {
		return utmProjection(zone), nil
	}
	return nil, errors.New(errors.ErrCodeInvalidCRS, "unsupported target CRS: %s", to)
}

// utmProjection projects WGS84 points into UTM easting/northing. Points whose
// longitude selects a different zone than requested still project into their
// natural zone; regions are assumed local to a single zone.
func utmProjection(zone int) orb.Projection {
	return func(p orb.Point) orb.Point {
		easting, northing, _, _, err := UTM.FromLatLon(p.Lat(), p.Lon(), p.Lat() >= 0)
		if err != nil {
			return p
		}
		return orb.Point{easting, northing}
	}
}

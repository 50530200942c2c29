package geo

import (
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// Property keys recognized on GeoJSON features.
const (
	// PropFClass is the source feature class (e.g. OSM highway class).
	PropFClass = "fclass"
	// PropReclass is the land-use class tag on classified layers.
	PropReclass = "reclass"
)

// geosFromOrb converts an orb geometry into a GEOS geometry via its GeoJSON
// encoding.
func geosFromOrb(g orb.Geometry) (*geos.Geom, error) {
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "encode geometry")
	}
	gg, err := geos.NewGeomFromGeoJSON(string(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "parse geometry")
	}
	return gg, nil
}

// orbFromGeos converts a GEOS geometry back into an orb geometry.
func orbFromGeos(g *geos.Geom) (orb.Geometry, error) {
	gj, err := geojson.UnmarshalGeometry([]byte(g.ToGeoJSON(-1)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "decode geometry")
	}
	return gj.Geometry(), nil
}

// ReadLayer parses a GeoJSON feature collection into a layer with the given
// CRS, lifting the fclass and reclass properties onto the features. Features
// without geometry are skipped.
func ReadLayer(r io.Reader, crs CRS) (Layer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Layer{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read layer")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return Layer{}, errors.Wrap(errors.ErrCodeInvalidGeometry, err, "parse feature collection")
	}

	layer := Layer{CRS: crs}
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		g, err := geosFromOrb(f.Geometry)
		if err != nil {
			return Layer{}, err
		}
		layer.Features = append(layer.Features, Feature{
			Geom:   g,
			FClass: f.Properties.MustString(PropFClass, ""),
			Class:  f.Properties.MustString(PropReclass, ""),
		})
	}
	return layer, nil
}

// ReadLayerFile reads a GeoJSON layer from path. A missing file is reported
// with ErrCodeFileNotFound so callers can substitute an empty layer.
func ReadLayerFile(path string, crs CRS) (Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layer{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "layer file %s", path)
		}
		return Layer{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open layer %s", path)
	}
	defer f.Close()
	return ReadLayer(f, crs)
}

// WriteLayer encodes a layer as a GeoJSON feature collection. Class tags are
// written under the reclass property, source feature classes under fclass.
func WriteLayer(l Layer, w io.Writer) error {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.Features {
		if f.Geom == nil || f.Geom.IsEmpty() {
			continue
		}
		og, err := orbFromGeos(f.Geom)
		if err != nil {
			return err
		}
		gf := geojson.NewFeature(og)
		if f.Class != "" {
			gf.Properties[PropReclass] = f.Class
		}
		if f.FClass != "" {
			gf.Properties[PropFClass] = f.FClass
		}
		fc.Append(gf)
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode feature collection")
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write feature collection")
	}
	return nil
}

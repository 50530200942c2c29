// Package geo provides the vector-layer model used by the land-use workflow.
//
// A [Layer] is an ordered collection of features carrying a GEOS geometry and
// the attributes the workflow cares about: the source feature class, the
// buffer width for line features, and the land-use class tag. All geometric
// operations (repair, buffering, clipping, overlay) are performed through the
// GEOS bindings; GeoJSON parsing and serialization go through orb.
//
// Every operation in this package is a pure function: layers are never
// mutated in place, and an empty input always yields an empty, correctly
// typed output with the same CRS rather than an error.
package geo

import (
	"github.com/twpayne/go-geos"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// quadSegments is the number of segments used to approximate quarter circles
// in buffer operations.
const quadSegments = 8

// mitreLimit is the GEOS default mitre ratio limit for buffer joins.
const mitreLimit = 5.0

// Feature is a single geometry with the attributes used by the land-use
// workflow. Class holds the land-use tag once assigned ("" until then),
// FClass the source feature class, and Width the total buffer width for
// line features.
type Feature struct {
	Geom   *geos.Geom
	Class  string
	FClass string
	Width  float64
}

// Layer is a collection of features sharing one coordinate reference system.
type Layer struct {
	CRS      CRS
	Features []Feature
}

// NewLayer returns an empty layer with the given CRS.
func NewLayer(crs CRS) Layer {
	return Layer{CRS: crs}
}

// IsEmpty reports whether the layer has no features with a non-empty geometry.
func (l Layer) IsEmpty() bool {
	for _, f := range l.Features {
		if f.Geom != nil && !f.Geom.IsEmpty() {
			return false
		}
	}
	return true
}

// Area returns the summed area of all features in the layer, in the square
// units of the layer's CRS.
func (l Layer) Area() float64 {
	var total float64
	for _, f := range l.Features {
		if f.Geom != nil {
			total += f.Geom.Area()
		}
	}
	return total
}

// Tag returns a copy of the layer with every feature's Class set to class.
func (l Layer) Tag(class string) Layer {
	out := Layer{CRS: l.CRS, Features: make([]Feature, len(l.Features))}
	for i, f := range l.Features {
		f.Class = class
		out.Features[i] = f
	}
	return out
}

// Concat appends all features of the given layers into a single layer with
// the given CRS. Layer CRS mismatches are the caller's responsibility; the
// workflow reprojects everything to the region CRS before combining.
func Concat(crs CRS, layers ...Layer) Layer {
	out := Layer{CRS: crs}
	for _, l := range layers {
		out.Features = append(out.Features, l.Features...)
	}
	return out
}

// Center returns the center of the layer's bounding box, in layer
// coordinates. The error surfaces only on an empty layer.
func (l Layer) Center() (x, y float64, err error) {
	union := UnionAll(l)
	if union == nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "cannot take the center of an empty layer")
	}
	og, err := orbFromGeos(union)
	if err != nil {
		return 0, 0, err
	}
	c := og.Bound().Center()
	return c.X(), c.Y(), nil
}

// UnionAll returns the geometric union of all feature geometries in the
// layer, or nil if the layer is empty.
func UnionAll(l Layer) *geos.Geom {
	var union *geos.Geom
	for _, f := range l.Features {
		if f.Geom == nil || f.Geom.IsEmpty() {
			continue
		}
		if union == nil {
			union = f.Geom
			continue
		}
		union = union.Union(f.Geom)
	}
	return union
}

// explode flattens a possibly multi-part geometry into its single-part
// members. Single-part geometries are returned as-is; members of multi-part
// geometries are cloned so their lifetime is independent of the parent.
func explode(g *geos.Geom) []*geos.Geom {
	switch g.TypeID() {
	case geos.TypeIDMultiPoint, geos.TypeIDMultiLineString, geos.TypeIDMultiPolygon, geos.TypeIDGeometryCollection:
		n := g.NumGeometries()
		parts := make([]*geos.Geom, 0, n)
		for i := 0; i < n; i++ {
			parts = append(parts, explode(g.Geometry(i).Clone())...)
		}
		return parts
	default:
		return []*geos.Geom{g}
	}
}

// dimension returns the topological dimension of a geometry: 0 for points,
// 1 for lines, 2 for polygons.
func dimension(g *geos.Geom) int {
	switch g.TypeID() {
	case geos.TypeIDPoint, geos.TypeIDMultiPoint:
		return 0
	case geos.TypeIDLineString, geos.TypeIDLinearRing, geos.TypeIDMultiLineString:
		return 1
	case geos.TypeIDPolygon, geos.TypeIDMultiPolygon:
		return 2
	default:
		// Mixed collections report the highest dimension of any member.
		dim := 0
		for i := 0; i < g.NumGeometries(); i++ {
			if d := dimension(g.Geometry(i)); d > dim {
				dim = d
			}
		}
		return dim
	}
}

// isPolygonal reports whether g is a polygon or multi-polygon.
func isPolygonal(g *geos.Geom) bool {
	id := g.TypeID()
	return id == geos.TypeIDPolygon || id == geos.TypeIDMultiPolygon
}

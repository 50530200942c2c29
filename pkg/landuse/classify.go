package landuse

import (
	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/geo"
)

// Input bundles the source layers of a classification run. All layers must
// share one projected CRS; missing sources are represented as empty layers
// and simply contribute nothing to their class. Roads, Railways and
// Waterways are line layers carrying fclass tags for the mapping join;
// Buildings and WaterBodies are polygon layers.
type Input struct {
	Region      geo.Layer
	Roads       geo.Layer
	Railways    geo.Layer
	Waterways   geo.Layer
	Buildings   geo.Layer
	WaterBodies geo.Layer
	Mapping     Mapping
}

// Result is the outcome of a classification run: the dissolved five-class
// partition plus the individual per-class layers before composition, kept
// for inspection and export.
type Result struct {
	Map    geo.Layer
	Layers map[Class]geo.Layer
}

// FromOSM classifies OSM-style source layers into the five-class land-use
// partition of the region. Line layers are joined against the mapping
// table and buffered to their total widths, polygon layers are repaired,
// every layer is clipped to the region, and the class layers are composed
// with the top-wins overlay before being dissolved into one record per
// class.
//
// The region must contain at least one polygon; that is the only fatal
// input. Empty source layers contribute nothing, and an empty mapping
// table drops all line features, leaving a map of the region's polygon
// classes only.
func FromOSM(in Input) (Result, error) {
	region := geo.Normalize(in.Region)
	if region.IsEmpty() {
		return Result{}, errors.New(errors.ErrCodeInvalidInput, "region contains no usable polygon")
	}
	regionGeom := geo.UnionAll(region)

	lines := in.Mapping.Apply(geo.Concat(region.CRS, in.Roads, in.Railways, in.Waterways))

	layers := map[Class]geo.Layer{
		Unpaved:     region.Tag(string(Unpaved)),
		Water:       waterLayer(in, lines, region.CRS),
		OpenPaved:   geo.BufferLines(lines, string(OpenPaved)),
		ClosedPaved: geo.BufferLines(lines, string(ClosedPaved)),
		PavedRoof:   geo.Normalize(in.Buildings).Tag(string(PavedRoof)),
	}
	for class, l := range layers {
		layers[class] = geo.Clip(l, regionGeom)
	}

	composite := Compose(layers, OverlayOrder, region.CRS)
	return Result{Map: Dissolve(composite, OverlayOrder), Layers: layers}, nil
}

// waterLayer merges the water-body polygons with the buffered waterway
// lines into the open-water class layer. Waterways tagged as water by the
// mapping are buffered like any other line class; water bodies arrive as
// polygons and only need repair.
func waterLayer(in Input, lines geo.Layer, crs geo.CRS) geo.Layer {
	bodies := geo.Normalize(in.WaterBodies).Tag(string(Water))
	buffered := geo.BufferLines(lines, string(Water))
	return geo.Concat(crs, bodies, buffered)
}

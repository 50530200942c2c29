package landuse

import (
	"github.com/urbanwb/uwbmprep/pkg/geo"
)

// Compose merges class-tagged polygon layers into a single non-overlapping
// partition using a strict top-wins overlay.
//
// The composite starts from the layer of the first class in order (the
// unpaved base covering the whole region) and folds in each subsequent
// layer as composite := (composite − layer) ∪ layer: the new layer cuts a
// hole in the existing composite and replaces that area. Later classes in
// the order therefore always win over earlier ones, regardless of area or
// overlap shape. An empty or absent layer leaves the composite unchanged.
//
// Successive difference/union steps can reintroduce invalid or multi-part
// geometries, so the composite is re-normalized once after all merges.
func Compose(layers map[Class]geo.Layer, order []Class, crs geo.CRS) geo.Layer {
	composite := geo.NewLayer(crs)
	if len(order) == 0 {
		return composite
	}
	composite = geo.Normalize(layers[order[0]])
	for _, class := range order[1:] {
		composite = overlay(composite, layers[class])
	}
	return geo.Normalize(composite)
}

// overlay cuts the added layer out of the base and appends it on top. Both
// sides are repaired before the difference so the overlay operations stay
// well-defined on geometry produced by earlier merges.
func overlay(base, add geo.Layer) geo.Layer {
	if add.IsEmpty() {
		return base
	}

	add = geo.Normalize(add)
	cut := geo.UnionAll(add)

	out := geo.Layer{CRS: base.CRS}
	for _, f := range geo.Normalize(base).Features {
		if !f.Geom.Intersects(cut) {
			out.Features = append(out.Features, f)
			continue
		}
		diff := f.Geom.Difference(cut)
		if diff == nil || diff.IsEmpty() {
			continue
		}
		remainder := geo.Layer{CRS: base.CRS, Features: []geo.Feature{{Geom: diff, Class: f.Class}}}
		out.Features = append(out.Features, geo.Normalize(remainder).Features...)
	}
	out.Features = append(out.Features, add.Features...)
	return out
}

// Dissolve merges all same-class features of a layer into at most one
// (possibly multi-part) record per class, in overlay-priority order.
func Dissolve(l geo.Layer, order []Class) geo.Layer {
	out := geo.Layer{CRS: l.CRS}
	for _, class := range order {
		sub := geo.Layer{CRS: l.CRS}
		for _, f := range l.Features {
			if f.Class == string(class) {
				sub.Features = append(sub.Features, f)
			}
		}
		union := geo.UnionAll(sub)
		if union == nil || union.IsEmpty() {
			continue
		}
		out.Features = append(out.Features, geo.Feature{Geom: union, Class: string(class)})
	}
	return out
}

package geo

import "github.com/twpayne/go-geos"

// Clip intersects every feature of a layer with the region polygon, keeping
// only the intersection parts that preserve the feature's topological
// dimension. Slivers that degenerate to a lower dimension (a polygon edge
// collapsing to a line, a line to a point) are discarded.
//
// This is the single point where out-of-region geometry is dropped; the
// classifier applies it to every source layer before composition. Empty or
// fully outside input yields an empty layer with the input CRS.
func Clip(l Layer, region *geos.Geom) Layer {
	out := Layer{CRS: l.CRS}
	if region == nil || region.IsEmpty() {
		return out
	}
	for _, f := range l.Features {
		if f.Geom == nil || f.Geom.IsEmpty() {
			continue
		}
		if !f.Geom.Intersects(region) {
			continue
		}
		want := dimension(f.Geom)
		inter := f.Geom.Intersection(region)
		if inter == nil {
			continue
		}
		for _, part := range explode(inter) {
			if part.IsEmpty() || dimension(part) != want {
				continue
			}
			nf := f
			nf.Geom = part
			out.Features = append(out.Features, nf)
		}
	}
	return out
}

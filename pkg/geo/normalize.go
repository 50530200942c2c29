package geo

// Normalize repairs invalid polygonal geometries and explodes multi-part
// geometries into one single-part feature per record, preserving attributes.
//
// Repair uses a zero-distance buffer, the standard fix for self-intersecting
// rings and other invalid polygon topology. Line and point geometries are
// exploded but otherwise passed through unchanged. An empty input yields an
// empty layer with the same CRS.
//
// Normalize is idempotent: applying it twice yields a geometrically equal
// result to applying it once.
func Normalize(l Layer) Layer {
	out := Layer{CRS: l.CRS}
	for _, f := range l.Features {
		if f.Geom == nil || f.Geom.IsEmpty() {
			continue
		}
		for _, part := range explode(f.Geom) {
			if isPolygonal(part) {
				part = part.Buffer(0, quadSegments)
			}
			for _, p := range explode(part) {
				if p.IsEmpty() {
					continue
				}
				nf := f
				nf.Geom = p
				out.Features = append(out.Features, nf)
			}
		}
	}
	return out
}

package geo

import "github.com/twpayne/go-geos"

// BufferLines converts the line features tagged with the given land-use
// class into polygon buffers of half their total width, and returns them as
// a polygon layer tagged with that class.
//
// Buffers use flat end caps so a straight segment of length L and width W
// covers exactly L×W, keeping areas deterministic. Features with another
// class tag (including the empty tag left by an unmatched mapping join) are
// skipped, as are zero- and missing-width features, whose buffers would
// degenerate to zero area. Selecting an empty subset returns an empty layer
// with the input CRS.
func BufferLines(l Layer, class string) Layer {
	out := Layer{CRS: l.CRS}
	for _, f := range l.Features {
		if f.Class != class {
			continue
		}
		if f.Geom == nil || f.Geom.IsEmpty() || f.Width <= 0 {
			continue
		}
		buf := f.Geom.BufferWithStyle(f.Width/2, quadSegments, geos.BufCapStyleFlat, geos.BufJoinStyleRound, mitreLimit)
		if buf == nil || buf.IsEmpty() {
			continue
		}
		out.Features = append(out.Features, Feature{Geom: buf, Class: class, FClass: f.FClass, Width: f.Width})
	}
	return out
}

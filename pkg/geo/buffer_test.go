package geo

import (
	"math"
	"testing"
)

func TestBufferLines_FlatCapArea(t *testing.T) {
	// A straight 100-unit line buffered to width 10 with flat caps covers
	// exactly 100×10.
	line := mustWKT(t, "LINESTRING(0 50, 100 50)")
	l := Layer{CRS: WebMercator, Features: []Feature{
		{Geom: line, Class: "closed_paved", FClass: "primary", Width: 10},
	}}

	got := BufferLines(l, "closed_paved")

	if len(got.Features) != 1 {
		t.Fatalf("feature count = %d, want 1", len(got.Features))
	}
	f := got.Features[0]
	if f.Class != "closed_paved" {
		t.Errorf("Class = %q, want closed_paved", f.Class)
	}
	if !isPolygonal(f.Geom) {
		t.Errorf("buffer type = %v, want polygonal", f.Geom.TypeID())
	}
	if area := f.Geom.Area(); math.Abs(area-1000) > 1e-6 {
		t.Errorf("area = %v, want 1000", area)
	}
}

func TestBufferLines_SelectsOnlyTargetClass(t *testing.T) {
	l := Layer{CRS: WebMercator, Features: []Feature{
		{Geom: mustWKT(t, "LINESTRING(0 0, 10 0)"), Class: "open_paved", Width: 4},
		{Geom: mustWKT(t, "LINESTRING(0 5, 10 5)"), Class: "water", Width: 2},
		{Geom: mustWKT(t, "LINESTRING(0 9, 10 9)"), Width: 2}, // unmatched mapping join
	}}

	got := BufferLines(l, "open_paved")

	if len(got.Features) != 1 {
		t.Fatalf("feature count = %d, want 1", len(got.Features))
	}
	if area := got.Features[0].Geom.Area(); math.Abs(area-40) > 1e-6 {
		t.Errorf("area = %v, want 40", area)
	}
}

func TestBufferLines_ZeroWidthIsDegenerate(t *testing.T) {
	l := Layer{CRS: WebMercator, Features: []Feature{
		{Geom: mustWKT(t, "LINESTRING(0 0, 10 0)"), Class: "water", Width: 0},
	}}

	got := BufferLines(l, "water")

	if !got.IsEmpty() {
		t.Errorf("zero-width buffer should yield an empty layer, got %d features", len(got.Features))
	}
	if got.CRS != WebMercator {
		t.Errorf("CRS = %v, want %v", got.CRS, WebMercator)
	}
}

func TestBufferLines_EmptySelection(t *testing.T) {
	got := BufferLines(NewLayer(WebMercator), "closed_paved")

	if len(got.Features) != 0 {
		t.Errorf("feature count = %d, want 0", len(got.Features))
	}
}

func TestBufferLines_BuffersAreValid(t *testing.T) {
	// A sharply zig-zagging line can produce self-touching buffer rings.
	zigzag := mustWKT(t, "LINESTRING(0 0, 10 0, 0 1, 10 2)")
	l := Layer{CRS: WebMercator, Features: []Feature{{Geom: zigzag, Class: "water", Width: 3}}}

	got := BufferLines(l, "water")

	for i, f := range got.Features {
		if !f.Geom.IsValid() {
			t.Errorf("buffer %d invalid: %v", i, f.Geom)
		}
	}
}

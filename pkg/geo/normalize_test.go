package geo

import (
	"math"
	"testing"

	"github.com/twpayne/go-geos"
)

func mustWKT(t *testing.T, wkt string) *geos.Geom {
	t.Helper()
	g, err := geos.NewGeomFromWKT(wkt)
	if err != nil {
		t.Fatalf("NewGeomFromWKT(%q): %v", wkt, err)
	}
	return g
}

func TestNormalize_RepairsBowtie(t *testing.T) {
	// Self-intersecting "bowtie": two triangles of 25 units each.
	bowtie := mustWKT(t, "POLYGON((0 0, 10 10, 10 0, 0 10, 0 0))")
	l := Layer{CRS: WebMercator, Features: []Feature{{Geom: bowtie, Class: "unpaved"}}}

	got := Normalize(l)

	if got.CRS != WebMercator {
		t.Errorf("CRS = %v, want %v", got.CRS, WebMercator)
	}
	for i, f := range got.Features {
		if !f.Geom.IsValid() {
			t.Errorf("feature %d is not valid after Normalize", i)
		}
		if f.Geom.TypeID() != geos.TypeIDPolygon {
			t.Errorf("feature %d type = %v, want single polygon", i, f.Geom.TypeID())
		}
		if f.Class != "unpaved" {
			t.Errorf("feature %d lost class attribute: %q", i, f.Class)
		}
	}
	if area := got.Area(); math.Abs(area-50) > 1e-9 {
		t.Errorf("total area = %v, want 50", area)
	}
}

func TestNormalize_ExplodesMultiPolygon(t *testing.T) {
	mp := mustWKT(t, "MULTIPOLYGON(((0 0,1 0,1 1,0 1,0 0)),((2 2,3 2,3 3,2 3,2 2)))")
	l := Layer{CRS: WebMercator, Features: []Feature{{Geom: mp, Class: "water"}}}

	got := Normalize(l)

	if len(got.Features) != 2 {
		t.Fatalf("feature count = %d, want 2", len(got.Features))
	}
	for i, f := range got.Features {
		if f.Geom.TypeID() != geos.TypeIDPolygon {
			t.Errorf("feature %d type = %v, want polygon", i, f.Geom.TypeID())
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	bowtie := mustWKT(t, "POLYGON((0 0, 10 10, 10 0, 0 10, 0 0))")
	l := Layer{CRS: WebMercator, Features: []Feature{{Geom: bowtie}}}

	once := Normalize(l)
	twice := Normalize(once)

	if len(once.Features) != len(twice.Features) {
		t.Errorf("feature count changed: %d vs %d", len(once.Features), len(twice.Features))
	}
	if math.Abs(once.Area()-twice.Area()) > 1e-9 {
		t.Errorf("area changed: %v vs %v", once.Area(), twice.Area())
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	got := Normalize(NewLayer(WebMercator))

	if len(got.Features) != 0 {
		t.Errorf("feature count = %d, want 0", len(got.Features))
	}
	if got.CRS != WebMercator {
		t.Errorf("CRS = %v, want %v", got.CRS, WebMercator)
	}
}

func TestNormalize_PassesLinesThrough(t *testing.T) {
	line := mustWKT(t, "LINESTRING(0 0, 10 0)")
	l := Layer{CRS: WebMercator, Features: []Feature{{Geom: line, FClass: "primary"}}}

	got := Normalize(l)

	if len(got.Features) != 1 {
		t.Fatalf("feature count = %d, want 1", len(got.Features))
	}
	if got.Features[0].Geom.TypeID() != geos.TypeIDLineString {
		t.Errorf("type = %v, want line string", got.Features[0].Geom.TypeID())
	}
	if got.Features[0].FClass != "primary" {
		t.Errorf("FClass = %q, want %q", got.Features[0].FClass, "primary")
	}
}

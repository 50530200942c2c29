package landuse

import (
	"math"
	"testing"

	"github.com/urbanwb/uwbmprep/pkg/geo"
)

func TestCompose_LaterClassWins(t *testing.T) {
	// A building square sits entirely on top of a water square which sits on
	// the unpaved base; the composite must attribute each point to the
	// highest-priority class covering it.
	layers := map[Class]geo.Layer{
		Unpaved:   geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 0, 0, 100), Class: "unpaved"}}},
		Water:     geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 0, 0, 50), Class: "water"}}},
		PavedRoof: geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 0, 0, 20), Class: "paved_roof"}}},
	}

	got := Compose(layers, OverlayOrder, geo.WebMercator)
	table := BuildTable(got, FloorPolicy{})

	if pr := table.Area("pr"); math.Abs(pr-400) > 1e-6 {
		t.Errorf("paved_roof area = %v, want 400", pr)
	}
	if ow := table.Area("ow"); math.Abs(ow-2100) > 1e-6 {
		t.Errorf("water area = %v, want 2100 (2500 minus the roof)", ow)
	}
	if up := table.Area("up"); math.Abs(up-7500) > 1e-6 {
		t.Errorf("unpaved area = %v, want 7500", up)
	}
}

func TestCompose_PartitionCoversBase(t *testing.T) {
	// Whatever the overlaps, the composite must tile exactly the base area.
	layers := map[Class]geo.Layer{
		Unpaved:     geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 0, 0, 100), Class: "unpaved"}}},
		Water:       geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 40, 40, 30), Class: "water"}}},
		OpenPaved:   geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 50, 50, 30), Class: "open_paved"}}},
		ClosedPaved: geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 60, 60, 30), Class: "closed_paved"}}},
	}

	got := Compose(layers, OverlayOrder, geo.WebMercator)

	if area := got.Area(); math.Abs(area-10000) > 1e-6 {
		t.Errorf("composite area = %v, want 10000", area)
	}
	union := geo.UnionAll(got)
	if union == nil || math.Abs(union.Area()-10000) > 1e-6 {
		t.Errorf("union of composite does not tile the base")
	}
}

func TestCompose_EmptyLayerIsNoOp(t *testing.T) {
	layers := map[Class]geo.Layer{
		Unpaved: geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{{Geom: square(t, 0, 0, 10), Class: "unpaved"}}},
	}

	got := Compose(layers, OverlayOrder, geo.WebMercator)

	if len(got.Features) != 1 {
		t.Fatalf("feature count = %d, want 1", len(got.Features))
	}
	if math.Abs(got.Area()-100) > 1e-9 {
		t.Errorf("area = %v, want 100", got.Area())
	}
}

func TestDissolve_OneRecordPerClass(t *testing.T) {
	l := geo.Layer{CRS: geo.WebMercator, Features: []geo.Feature{
		{Geom: square(t, 0, 0, 10), Class: "paved_roof"},
		{Geom: square(t, 50, 50, 10), Class: "paved_roof"},
		{Geom: square(t, 20, 20, 10), Class: "water"},
	}}

	got := Dissolve(l, OverlayOrder)

	if len(got.Features) != 2 {
		t.Fatalf("feature count = %d, want 2", len(got.Features))
	}
	// Overlay-priority order: water before paved_roof.
	if got.Features[0].Class != "water" || got.Features[1].Class != "paved_roof" {
		t.Errorf("classes = %q, %q, want water, paved_roof", got.Features[0].Class, got.Features[1].Class)
	}
	if math.Abs(got.Features[1].Geom.Area()-200) > 1e-9 {
		t.Errorf("dissolved paved_roof area = %v, want 200", got.Features[1].Geom.Area())
	}
}

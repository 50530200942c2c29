package landuse

import (
	"math"
	"sort"

	"github.com/urbanwb/uwbmprep/pkg/geo"
)

// Row is one aggregated land-use record: the model short code, the summed
// area in square meters, and the fraction of the total.
type Row struct {
	Code string
	Area float64
	Frac float64
}

// Table is the aggregated land-use table the water-balance model consumes.
// It always carries one row per class present in the map plus a closing
// "tot_area" row whose fraction is exactly 1.
type Table []Row

// FloorPolicy forces a minimum fraction for one class. When the class falls
// below the minimum, fractions are computed against an inflated total
// newTot = tot/(1−MinFrac) and MinFrac*newTot is added to the class area,
// so the floored class ends at no less than MinFrac while all other
// fractions shrink proportionally.
type FloorPolicy struct {
	Class   Class
	MinFrac float64
}

// DefaultFloor guarantees at least 1% open water. Even regions without any
// mapped water surface exchange moisture with ditches and ponds below the
// source data's resolution, and the model's open-water balance degenerates
// at zero area.
var DefaultFloor = FloorPolicy{Class: Water, MinFrac: 0.01}

const totalCode = "tot_area"

// BuildTable aggregates a classified map into per-class areas and fractions.
// Same-class features are summed, the total is rounded to whole square
// meters, the floor policy is applied, and areas and fractions are rounded
// to three decimals. Rows are ordered by short code with the total row
// last; the total row always carries the mapped total, not the inflated
// denominator the floor introduces. An empty map yields only a zero total
// row.
func BuildTable(m geo.Layer, floor FloorPolicy) Table {
	areas := make(map[string]float64)
	for _, f := range m.Features {
		code := Class(f.Class).Code()
		if f.Geom == nil || code == "" {
			continue
		}
		areas[code] += f.Geom.Area()
	}

	tot := 0.0
	for _, a := range areas {
		tot += a
	}
	tot = math.Round(tot)

	denom := tot
	if floor.MinFrac > 0 && tot > 0 {
		code := floor.Class.Code()
		if areas[code] < floor.MinFrac*tot {
			denom = tot / (1 - floor.MinFrac)
			areas[code] += floor.MinFrac * denom
		}
	}

	var t Table
	for code, a := range areas {
		frac := 0.0
		if denom > 0 {
			frac = a / denom
		}
		t = append(t, Row{Code: code, Area: round3(a), Frac: round3(frac)})
	}
	sort.Slice(t, func(i, j int) bool { return t[i].Code < t[j].Code })
	return append(t, Row{Code: totalCode, Area: round3(tot), Frac: 1})
}

// Area returns the area of the row with the given code, zero if absent.
func (t Table) Area(code string) float64 {
	for _, r := range t {
		if r.Code == code {
			return r.Area
		}
	}
	return 0
}

// Frac returns the fraction of the row with the given code, zero if absent.
func (t Table) Frac(code string) float64 {
	for _, r := range t {
		if r.Code == code {
			return r.Frac
		}
	}
	return 0
}

// Total returns the area of the tot_area row.
func (t Table) Total() float64 {
	return t.Area(totalCode)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

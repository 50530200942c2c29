package forcing

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

func hourly(t *testing.T, start string, values ...float64) Series {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", start)
	if err != nil {
		t.Fatalf("parse %q: %v", start, err)
	}
	s := Series{Values: values}
	for i := range values {
		s.Times = append(s.Times, ts.Add(time.Duration(i)*time.Hour))
	}
	return s
}

func TestResample_SumToDaily(t *testing.T) {
	s := hourly(t, "2020-01-01 00:00",
		1, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 3,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0.5,
		4, 0, 0)

	got, err := s.Resample(24*time.Hour, Sum)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}

	if got.Len() != 2 {
		t.Fatalf("bucket count = %d, want 2", got.Len())
	}
	if math.Abs(got.Values[0]-6.5) > 1e-9 {
		t.Errorf("day 1 sum = %v, want 6.5", got.Values[0])
	}
	if math.Abs(got.Values[1]-4) > 1e-9 {
		t.Errorf("day 2 sum = %v, want 4", got.Values[1])
	}
}

func TestResample_MeanPreservesRates(t *testing.T) {
	s := hourly(t, "2020-06-01 00:00", 2, 4, 6, 8)

	got, err := s.Resample(2*time.Hour, Mean)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}

	if got.Len() != 2 {
		t.Fatalf("bucket count = %d, want 2", got.Len())
	}
	if got.Values[0] != 3 || got.Values[1] != 7 {
		t.Errorf("means = %v, want [3 7]", got.Values)
	}
}

func TestResample_InvalidStep(t *testing.T) {
	_, err := Series{}.Resample(0, Sum)
	if !errors.Is(err, errors.ErrCodeInvalidForcing) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidForcing)
	}
}

func TestMakkink(t *testing.T) {
	// 20°C, standard pressure, 500 W/m² over one hour.
	got := Makkink(20, 1013.25, 500, 3600)
	if math.Abs(got-0.3244) > 1e-3 {
		t.Errorf("Makkink = %v, want ~0.3244 mm", got)
	}
	if Makkink(20, 1013.25, 0, 3600) != 0 {
		t.Error("Makkink with no radiation should be zero")
	}
}

func TestDeBruin(t *testing.T) {
	got := DeBruin(20, 1013.25, 500, 200, 3600)
	if math.Abs(got-0.1399) > 1e-3 {
		t.Errorf("DeBruin = %v, want ~0.1399 mm", got)
	}
}

func TestDeBruin_NightIsZero(t *testing.T) {
	if got := DeBruin(15, 1013.25, 0, 0, 3600); got != 0 {
		t.Errorf("nighttime DeBruin = %v, want 0", got)
	}
}

func TestDeBruin_NeverNegative(t *testing.T) {
	// Strong outgoing deficit drives the raw term negative.
	if got := DeBruin(20, 1013.25, 500, 100, 3600); got != 0 {
		t.Errorf("DeBruin = %v, want clamp to 0", got)
	}
}

func TestParseMethod(t *testing.T) {
	if _, err := ParseMethod("debruin"); err != nil {
		t.Errorf("ParseMethod(debruin): %v", err)
	}
	if _, err := ParseMethod("makkink"); err != nil {
		t.Errorf("ParseMethod(makkink): %v", err)
	}
	_, err := ParseMethod("penman")
	if !errors.Is(err, errors.ErrCodeUnsupportedMethod) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeUnsupportedMethod)
	}
}

func TestPotOpenWater_DeBruinNeedsKout(t *testing.T) {
	m := Meteo{
		Times:    hourly(t, "2020-01-01 00:00", 0, 0).Times,
		Temp:     []float64{10, 11},
		PressMSL: []float64{1010, 1010},
		Kin:      []float64{100, 200},
	}

	if _, err := PotOpenWater(m, MethodDeBruin, 3600); !errors.Is(err, errors.ErrCodeInvalidForcing) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidForcing)
	}
	if _, err := PotOpenWater(m, MethodMakkink, 3600); err != nil {
		t.Errorf("makkink without kout: %v", err)
	}
}

func TestReadMeteoCSV(t *testing.T) {
	in := `date,precip,temp,press_msl,kin,kout
2020-01-01 00:00:00,0.2,10.5,1012.3,0,0
2020-01-01 01:00:00,0,11,1012.1,120,30
`
	m, err := ReadMeteoCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadMeteoCSV: %v", err)
	}

	if len(m.Times) != 2 {
		t.Fatalf("sample count = %d, want 2", len(m.Times))
	}
	if m.Precip[0] != 0.2 || m.Temp[1] != 11 || m.Kout[1] != 30 {
		t.Errorf("parsed values %v %v %v", m.Precip, m.Temp, m.Kout)
	}
}

func TestReadMeteoCSV_MissingColumn(t *testing.T) {
	in := "date,precip,temp,kin\n2020-01-01,0,10,100\n"
	_, err := ReadMeteoCSV(strings.NewReader(in))
	if !errors.Is(err, errors.ErrCodeInvalidForcing) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidForcing)
	}
	if !strings.Contains(err.Error(), "press_msl") {
		t.Errorf("error %q does not name the missing column", err)
	}
}

func TestBuildTable(t *testing.T) {
	precip := hourly(t, "2020-01-01 00:00", 1, 2)
	pet := hourly(t, "2020-01-01 00:00", 0.1, 0.2)

	table, err := BuildTable(precip, pet)
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	if math.Abs(table.RefGrass[1]-0.2*0.8982) > 1e-12 {
		t.Errorf("Ref.grass = %v, want %v", table.RefGrass[1], 0.2*0.8982)
	}
	if table.PotOpenWater[0] != 0.1 {
		t.Errorf("E_pot_OW = %v, want 0.1", table.PotOpenWater[0])
	}
}

func TestBuildTable_AxisMismatch(t *testing.T) {
	precip := hourly(t, "2020-01-01 00:00", 1, 2)
	pet := hourly(t, "2020-01-01 00:00", 0.1)

	_, err := BuildTable(precip, pet)
	if !errors.Is(err, errors.ErrCodeInvalidForcing) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeInvalidForcing)
	}
}

func TestWriteCSV(t *testing.T) {
	precip := hourly(t, "2020-01-01 00:00", 1.23456)
	pet := hourly(t, "2020-01-01 00:00", 0.1)
	table, err := BuildTable(precip, pet)
	if err != nil {
		t.Fatalf("BuildTable: %v", err)
	}

	var buf bytes.Buffer
	if err := table.WriteCSV(&buf, 3); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "date,P_atm,Ref.grass,E_pot_OW" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "01-01-2020 00:00,1.235,") {
		t.Errorf("row = %q, want day-first date and rounded precip", lines[1])
	}
}

func TestDefaultFilename(t *testing.T) {
	start := time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)

	got := DefaultFilename("eindhoven", start, end, 3600)
	if got != "Forcing_eindhoven_10y_1h.csv" {
		t.Errorf("filename = %q", got)
	}

	got = DefaultFilename("delft", start, time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC), 86400)
	if got != "Forcing_delft_2y_24h.csv" {
		t.Errorf("filename = %q", got)
	}
}

package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

func validOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()

	region := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},
		"geometry":{"type":"Polygon","coordinates":[[[5.0,52.0],[5.001,52.0],[5.001,52.001],[5.0,52.001],[5.0,52.0]]]}}]}`
	regionPath := filepath.Join(dir, "region.geojson")
	if err := os.WriteFile(regionPath, []byte(region), 0o644); err != nil {
		t.Fatal(err)
	}

	mappingPath := filepath.Join(dir, "mapping.csv")
	mapping := "fclass,width_t,reclass\nprimary,10,closed_paved\n"
	if err := os.WriteFile(mappingPath, []byte(mapping), 0o644); err != nil {
		t.Fatal(err)
	}

	return Options{
		Name:        "testarea",
		Root:        dir,
		RegionPath:  regionPath,
		MappingPath: mappingPath,
		StartTime:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		EndTime:     time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestOptions_Defaults(t *testing.T) {
	opts := validOptions(t)

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}

	if opts.Source != SourceOSM {
		t.Errorf("Source = %q, want osm", opts.Source)
	}
	if opts.CRS != DefaultCRS {
		t.Errorf("CRS = %q, want %q", opts.CRS, DefaultCRS)
	}
	if opts.Timestep != DefaultTimestep {
		t.Errorf("Timestep = %d, want %d", opts.Timestep, DefaultTimestep)
	}
	if opts.PETMethod != "debruin" {
		t.Errorf("PETMethod = %q, want debruin", opts.PETMethod)
	}
	if opts.Decimals != DefaultDecimals {
		t.Errorf("Decimals = %d, want %d", opts.Decimals, DefaultDecimals)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discarding logger")
	}
}

func TestOptions_Validation(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Options)
		wantCode errors.Code
	}{
		{"missing name", func(o *Options) { o.Name = "" }, errors.ErrCodeInvalidInput},
		{"missing region", func(o *Options) { o.RegionPath = "" }, errors.ErrCodeInvalidInput},
		{"missing mapping", func(o *Options) { o.MappingPath = "" }, errors.ErrCodeInvalidInput},
		{"missing period", func(o *Options) { o.StartTime = time.Time{} }, errors.ErrCodeInvalidInput},
		{"unsupported source", func(o *Options) { o.Source = "shapefile" }, errors.ErrCodeUnsupportedSource},
		{"invalid crs", func(o *Options) { o.CRS = "EPSG:abc" }, errors.ErrCodeInvalidCRS},
		{"geographic crs", func(o *Options) { o.CRS = "EPSG:4326" }, errors.ErrCodeInvalidCRS},
		{"bad timestep", func(o *Options) { o.Timestep = 1800 }, errors.ErrCodeInvalidInput},
		{"bad pet method", func(o *Options) { o.PETMethod = "penman" }, errors.ErrCodeUnsupportedMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions(t)
			tt.mutate(&opts)

			err := opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error code = %q, want %q", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestOptions_ValidateIsIdempotent(t *testing.T) {
	opts := validOptions(t)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second call: %v", err)
	}
}

func TestExecute_WritesArtifacts(t *testing.T) {
	opts := validOptions(t)
	runner := NewRunner(nil)

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.Table.Total() <= 0 {
		t.Errorf("tot_area = %v, want > 0", result.Table.Total())
	}
	if result.Table.Frac("ow") != 0.01 {
		t.Errorf("ow frac = %v, want floored 0.01", result.Table.Frac("ow"))
	}
	if result.Forcing != nil {
		t.Error("forcing stage should be skipped without meteo input")
	}

	wantPaths := []string{
		filepath.Join("output", "landuse", "testarea.geojson"),
		filepath.Join("output", "landuse", "landuse_table_testarea.csv"),
		filepath.Join("input", "config", "ep_neighbourhood_testarea.ini"),
	}
	for _, p := range wantPaths {
		if _, err := os.Stat(filepath.Join(opts.Root, p)); err != nil {
			t.Errorf("artifact %s not written: %v", p, err)
		}
	}
}

func TestExecute_WithForcing(t *testing.T) {
	opts := validOptions(t)
	meteo := `date,precip,temp,press_msl,kin,kout
2020-01-01 00:00:00,0.2,10,1012,0,0
2020-01-01 01:00:00,0.1,11,1012,120,30
`
	opts.MeteoPath = filepath.Join(opts.Root, "meteo.csv")
	if err := os.WriteFile(opts.MeteoPath, []byte(meteo), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := NewRunner(nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Forcing == nil {
		t.Fatal("forcing table not built")
	}
	if len(result.Forcing.Times) != 2 {
		t.Errorf("forcing rows = %d, want 2", len(result.Forcing.Times))
	}
	forcingPath := filepath.Join(opts.Root, "input", "Forcing_testarea_1y_1h.csv")
	if _, err := os.Stat(forcingPath); err != nil {
		t.Errorf("forcing file not written: %v", err)
	}
}

func TestExecute_UsesRunnerLogger(t *testing.T) {
	// The runner's logger must reach the stages when the caller leaves
	// Options.Logger unset, instead of being shadowed by the discarding
	// default.
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	opts := validOptions(t)
	opts.SkipWrite = true

	if _, err := NewRunner(logger).Execute(context.Background(), opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "loaded region") {
		t.Errorf("runner log missing %q lines:\n%s", "loaded region", out)
	}
	if !strings.Contains(out, "loaded layer") {
		t.Errorf("per-layer debug logs missing from runner logger:\n%s", out)
	}
}

func TestExecute_MissingRegion(t *testing.T) {
	opts := validOptions(t)
	opts.RegionPath = filepath.Join(opts.Root, "nope.geojson")

	_, err := NewRunner(nil).Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error code = %q, want %q", errors.GetCode(err), errors.ErrCodeFileNotFound)
	}
}

func TestExecute_MissingLayersAreEmpty(t *testing.T) {
	opts := validOptions(t)
	opts.BuildingsPath = filepath.Join(opts.Root, "missing_buildings.geojson")
	opts.SkipWrite = true

	result, err := NewRunner(nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Table.Area("pr") != 0 {
		t.Errorf("pr area = %v, want 0 for a missing buildings file", result.Table.Area("pr"))
	}
}

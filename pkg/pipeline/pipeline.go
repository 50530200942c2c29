// Package pipeline provides the model-preparation pipeline shared by all
// entry points.
//
// The pipeline runs up to three stages against a model directory:
//
//  1. Landuse: read the region and OSM extract layers, classify them into
//     the five-class partition and aggregate the land-use table.
//  2. Config: project the land-use table into a neighbourhood
//     configuration file.
//  3. Forcing: derive precipitation and evapotranspiration forcing from
//     raw meteo input (only when meteo input is given).
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(logger)
//	opts := pipeline.Options{
//	    Name:        "eindhoven",
//	    Root:        "./model",
//	    RegionPath:  "region.geojson",
//	    MappingPath: "mapping.csv",
//	    StartTime:   start,
//	    EndTime:     end,
//	}
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/forcing"
	"github.com/urbanwb/uwbmprep/pkg/geo"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
	"github.com/urbanwb/uwbmprep/pkg/uwbm"
)

// Defaults applied by ValidateAndSetDefaults.
const (
	// DefaultCRS is the planar CRS of the model setup when none is given.
	DefaultCRS = "EPSG:3857"

	// AutoUTM selects the UTM zone covering the region centroid.
	AutoUTM = "utm"

	// DefaultTimestep is the model timestep in seconds.
	DefaultTimestep = uwbm.TimestepHourly

	// DefaultDecimals is the rounding applied to written forcing values.
	DefaultDecimals = 3
)

// SourceOSM identifies OpenStreetMap extract layers, the only supported
// layer source.
const SourceOSM = "osm"

// Options configures a pipeline run.
type Options struct {
	// Name is the simulation name, used in artifact filenames.
	Name string

	// Root is the model directory artifacts are written into.
	Root string

	// Source identifies the layer source. Only "osm" is supported.
	Source string

	// CRS is the planar target CRS ("EPSG:nnnn"), or "utm" to pick the
	// UTM zone of the region centroid.
	CRS string

	// RegionPath points at the region polygon (GeoJSON, WGS84). Required.
	RegionPath string

	// MappingPath points at the feature-class mapping table. Required.
	MappingPath string

	// Source layer paths (GeoJSON, WGS84). A missing file contributes an
	// empty layer instead of failing the run.
	RoadsPath       string
	RailwaysPath    string
	WaterwaysPath   string
	BuildingsPath   string
	WaterBodiesPath string

	// Simulation period and timestep.
	StartTime time.Time
	EndTime   time.Time
	Timestep  int

	// MeteoPath points at raw meteo input; empty skips the forcing stage.
	MeteoPath string

	// PETMethod selects the evapotranspiration formula.
	PETMethod string

	// Decimals is the rounding applied to written forcing values.
	Decimals int

	// SkipWrite computes results without writing artifacts.
	SkipWrite bool

	// Logger receives stage progress. Defaults to a discarding logger.
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "simulation name is required")
	}
	if o.RegionPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "region path is required")
	}
	if o.MappingPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "mapping table path is required")
	}
	if o.StartTime.IsZero() || o.EndTime.IsZero() {
		return errors.New(errors.ErrCodeInvalidInput, "simulation start and end time are required")
	}

	if o.Source == "" {
		o.Source = SourceOSM
	}
	if o.Source != SourceOSM {
		return errors.New(errors.ErrCodeUnsupportedSource,
			"unsupported layer source %q: only osm extracts are supported", o.Source)
	}

	if o.CRS == "" {
		o.CRS = DefaultCRS
	}
	if o.CRS != AutoUTM {
		crs, err := geo.ParseCRS(o.CRS)
		if err != nil {
			return err
		}
		if crs.IsGeographic() {
			return errors.New(errors.ErrCodeInvalidCRS,
				"target CRS must be planar, got %s", crs)
		}
	}

	if o.Timestep == 0 {
		o.Timestep = DefaultTimestep
	}
	if o.Timestep != uwbm.TimestepHourly && o.Timestep != uwbm.TimestepDaily {
		return errors.New(errors.ErrCodeInvalidInput,
			"timestep must be 3600 (hourly) or 86400 (daily), got %d", o.Timestep)
	}

	if o.PETMethod == "" {
		o.PETMethod = string(forcing.MethodDeBruin)
	}
	if _, err := forcing.ParseMethod(o.PETMethod); err != nil {
		return err
	}

	if o.Decimals == 0 {
		o.Decimals = DefaultDecimals
	}
	if o.Root == "" {
		o.Root = "."
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies the run in logs and reports.
	RunID string

	// Map is the dissolved land-use partition in the target CRS.
	Map geo.Layer

	// Layers are the per-class layers before composition.
	Layers map[landuse.Class]geo.Layer

	// Table is the aggregated land-use table.
	Table landuse.Table

	// Config is the neighbourhood configuration with land use applied.
	Config uwbm.Config

	// Forcing is the assembled forcing table, nil when the stage was
	// skipped.
	Forcing *forcing.Table

	// Paths lists the artifacts written, relative to the model root.
	Paths []string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	FeatureCount int
	ClassifyTime time.Duration
	ForcingTime  time.Duration
}

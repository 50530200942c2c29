package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/forcing"
	"github.com/urbanwb/uwbmprep/pkg/geo"
	uio "github.com/urbanwb/uwbmprep/pkg/io"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
	"github.com/urbanwb/uwbmprep/pkg/uwbm"
)

// Runner executes the preparation pipeline. It is stateless except for the
// logger; one Runner can serve multiple runs with different options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger falls back to log.Default.
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Execute runs the landuse → config → forcing pipeline and writes the
// model artifacts under the root directory.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	// Fill the logger before validation defaults it to a discarding one.
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "invalid options")
	}

	result := &Result{RunID: uuid.NewString()}

	region, crs, err := r.LoadRegion(opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("loaded region", "crs", crs, "features", len(region.Features))

	classifyStart := time.Now()
	classified, table, err := r.Classify(ctx, region, crs, opts)
	if err != nil {
		return nil, err
	}
	result.Map = classified.Map
	result.Layers = classified.Layers
	result.Table = table
	result.Stats.ClassifyTime = time.Since(classifyStart)
	result.Stats.FeatureCount = len(classified.Map.Features)
	r.Logger.Info("classified land use",
		"classes", len(classified.Map.Features),
		"area", table.Total(),
		"duration", result.Stats.ClassifyTime)

	result.Config = r.BuildConfig(table, opts)
	if err := result.Config.Validate(); err != nil {
		return nil, err
	}

	if opts.MeteoPath != "" {
		forcingStart := time.Now()
		ft, err := r.BuildForcing(ctx, opts)
		if err != nil {
			return nil, err
		}
		result.Forcing = ft
		result.Stats.ForcingTime = time.Since(forcingStart)
		r.Logger.Info("assembled forcing",
			"rows", len(ft.Times),
			"duration", result.Stats.ForcingTime)
	}

	if !opts.SkipWrite {
		if err := r.WriteArtifacts(result, opts); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// LoadRegion reads the region polygon, resolves the target CRS (including
// the automatic UTM zone) and reprojects the region into it.
func (r *Runner) LoadRegion(opts Options) (geo.Layer, geo.CRS, error) {
	region, err := geo.ReadLayerFile(opts.RegionPath, geo.WGS84)
	if err != nil {
		return geo.Layer{}, geo.CRS{}, err
	}

	var crs geo.CRS
	if opts.CRS == AutoUTM {
		lon, lat, err := region.Center()
		if err != nil {
			return geo.Layer{}, geo.CRS{}, err
		}
		if crs, err = geo.UTMFor(lon, lat); err != nil {
			return geo.Layer{}, geo.CRS{}, err
		}
	} else {
		if crs, err = geo.ParseCRS(opts.CRS); err != nil {
			return geo.Layer{}, geo.CRS{}, err
		}
	}

	projected, err := geo.Reproject(region, crs)
	if err != nil {
		return geo.Layer{}, geo.CRS{}, err
	}
	return projected, crs, nil
}

// Classify loads the mapping table and the extract layers, reprojects
// everything into the region CRS and runs the land-use classification.
func (r *Runner) Classify(ctx context.Context, region geo.Layer, crs geo.CRS, opts Options) (landuse.Result, landuse.Table, error) {
	r.applyLogger(&opts)
	if err := ctx.Err(); err != nil {
		return landuse.Result{}, nil, errors.Wrap(errors.ErrCodeInternal, err, "classification canceled")
	}

	mapping, err := landuse.ReadMappingFile(opts.MappingPath)
	if err != nil {
		return landuse.Result{}, nil, err
	}

	in := landuse.Input{Region: region, Mapping: mapping}
	for _, l := range []struct {
		name string
		path string
		dst  *geo.Layer
	}{
		{"roads", opts.RoadsPath, &in.Roads},
		{"railways", opts.RailwaysPath, &in.Railways},
		{"waterways", opts.WaterwaysPath, &in.Waterways},
		{"buildings", opts.BuildingsPath, &in.Buildings},
		{"water bodies", opts.WaterBodiesPath, &in.WaterBodies},
	} {
		layer, err := r.loadOptionalLayer(l.path, crs, l.name)
		if err != nil {
			return landuse.Result{}, nil, err
		}
		if opts.Logger != nil {
			opts.Logger.Debug("loaded layer", "layer", l.name, "features", len(layer.Features))
		}
		*l.dst = layer
	}

	res, err := landuse.FromOSM(in)
	if err != nil {
		return landuse.Result{}, nil, err
	}
	return res, landuse.BuildTable(res.Map, landuse.DefaultFloor), nil
}

// loadOptionalLayer reads and reprojects one extract layer. An unset path
// or a missing file yields an empty layer in the target CRS.
func (r *Runner) loadOptionalLayer(path string, crs geo.CRS, name string) (geo.Layer, error) {
	if path == "" {
		return geo.NewLayer(crs), nil
	}
	l, err := geo.ReadLayerFile(path, geo.WGS84)
	if err != nil {
		if errors.Is(err, errors.ErrCodeFileNotFound) {
			r.Logger.Warn("layer file missing, continuing with empty layer", "layer", name, "path", path)
			return geo.NewLayer(crs), nil
		}
		return geo.Layer{}, err
	}
	return geo.Reproject(l, crs)
}

// BuildConfig projects the land-use table into a neighbourhood
// configuration carrying the run's name, period and timestep.
func (r *Runner) BuildConfig(table landuse.Table, opts Options) uwbm.Config {
	c := uwbm.Default()
	c.Name = opts.Name
	c.StartTime = opts.StartTime
	c.EndTime = opts.EndTime
	c.Timestep = opts.Timestep
	c.ApplyLanduse(table)
	return c
}

// BuildForcing reads raw meteo input, derives evapotranspiration with the
// selected method, resamples both series to the model timestep and
// assembles the forcing table.
func (r *Runner) BuildForcing(ctx context.Context, opts Options) (*forcing.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "forcing canceled")
	}

	meteo, err := forcing.ReadMeteoCSVFile(opts.MeteoPath)
	if err != nil {
		return nil, err
	}

	method, err := forcing.ParseMethod(opts.PETMethod)
	if err != nil {
		return nil, err
	}
	pet, err := forcing.PotOpenWater(meteo, method, opts.Timestep)
	if err != nil {
		return nil, err
	}

	step := time.Duration(opts.Timestep) * time.Second
	precip, err := meteo.PrecipSeries().Resample(step, forcing.Sum)
	if err != nil {
		return nil, err
	}
	if pet, err = pet.Resample(step, forcing.Mean); err != nil {
		return nil, err
	}

	table, err := forcing.BuildTable(precip, pet)
	if err != nil {
		return nil, err
	}
	return &table, nil
}

// WriteArtifacts writes the run outputs into the model folder layout:
// the land-use map and table under output/landuse, the neighbourhood
// configuration under input/config, and the forcing file under input.
func (r *Runner) WriteArtifacts(result *Result, opts Options) error {
	mapPath := filepath.Join("output", "landuse", opts.Name+".geojson")
	if err := uio.ExportLayer(result.Map, filepath.Join(opts.Root, mapPath)); err != nil {
		return err
	}
	result.Paths = append(result.Paths, mapPath)

	tablePath := filepath.Join("output", "landuse", "landuse_table_"+opts.Name+".csv")
	if err := uio.ExportTable(result.Table, filepath.Join(opts.Root, tablePath)); err != nil {
		return err
	}
	result.Paths = append(result.Paths, tablePath)

	configPath := filepath.Join("input", "config", "ep_neighbourhood_"+opts.Name+".ini")
	if err := uio.ExportConfig(result.Config, filepath.Join(opts.Root, configPath)); err != nil {
		return err
	}
	result.Paths = append(result.Paths, configPath)

	if result.Forcing != nil {
		forcingPath := filepath.Join("input",
			forcing.DefaultFilename(opts.Name, opts.StartTime, opts.EndTime, opts.Timestep))
		if err := uio.ExportForcing(*result.Forcing, filepath.Join(opts.Root, forcingPath), opts.Decimals); err != nil {
			return err
		}
		result.Paths = append(result.Paths, forcingPath)
	}

	r.Logger.Info("wrote artifacts", "count", len(result.Paths), "root", opts.Root)
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

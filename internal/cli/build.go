package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/pipeline"
)

// timeLayouts accepted for the --start and --end flags.
var timeLayouts = []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}

// buildOpts holds the command-line flags for the build command.
type buildOpts struct {
	name        string
	root        string
	region      string
	mapping     string
	roads       string
	railways    string
	waterways   string
	buildings   string
	waterBodies string
	crs         string
	start       string
	end         string
	timestep    int
	meteo       string
	petMethod   string
	decimals    int
}

// pipelineOptions converts the flags into pipeline options. Time flags are
// parsed here so the pipeline only ever sees time.Time values.
func (o *buildOpts) pipelineOptions(ctx context.Context) (pipeline.Options, error) {
	start, err := parseTimeFlag("start", o.start)
	if err != nil {
		return pipeline.Options{}, err
	}
	end, err := parseTimeFlag("end", o.end)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Name:            o.name,
		Root:            o.root,
		RegionPath:      o.region,
		MappingPath:     o.mapping,
		RoadsPath:       o.roads,
		RailwaysPath:    o.railways,
		WaterwaysPath:   o.waterways,
		BuildingsPath:   o.buildings,
		WaterBodiesPath: o.waterBodies,
		CRS:             o.crs,
		StartTime:       start,
		EndTime:         end,
		Timestep:        o.timestep,
		MeteoPath:       o.meteo,
		PETMethod:       o.petMethod,
		Decimals:        o.decimals,
		Logger:          loggerFromContext(ctx),
	}, nil
}

// newBuildCmd creates the build command running the full preparation
// pipeline: land-use classification, neighbourhood configuration and,
// when meteo input is given, forcing.
func newBuildCmd() *cobra.Command {
	opts := buildOpts{timestep: pipeline.DefaultTimestep, petMethod: "debruin", decimals: pipeline.DefaultDecimals}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run the full model preparation pipeline",
		Long: `Build all Urban Water Balance Model input for a project area.

The command classifies the OSM extract layers into the five-class land-use
partition, writes the neighbourhood configuration, and derives forcing when
raw meteo input is given.

Examples:
  uwbmprep build -n eindhoven --region region.geojson --mapping mapping.csv \
      --roads roads.geojson --buildings buildings.geojson \
      --start 2010-01-01 --end 2020-01-01
  uwbmprep build -n eindhoven --region region.geojson --mapping mapping.csv \
      --start 2010-01-01 --end 2020-01-01 --meteo era5.csv --crs utm`,
		RunE: func(c *cobra.Command, args []string) error {
			return runBuild(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "simulation name (required)")
	cmd.Flags().StringVar(&opts.root, "root", ".", "model directory to write artifacts into")
	cmd.Flags().StringVar(&opts.region, "region", "", "region polygon GeoJSON (required)")
	cmd.Flags().StringVar(&opts.mapping, "mapping", "", "feature-class mapping table CSV (required)")
	cmd.Flags().StringVar(&opts.roads, "roads", "", "roads layer GeoJSON")
	cmd.Flags().StringVar(&opts.railways, "railways", "", "railways layer GeoJSON")
	cmd.Flags().StringVar(&opts.waterways, "waterways", "", "waterways layer GeoJSON")
	cmd.Flags().StringVar(&opts.buildings, "buildings", "", "buildings layer GeoJSON")
	cmd.Flags().StringVar(&opts.waterBodies, "water-bodies", "", "water bodies layer GeoJSON")
	cmd.Flags().StringVar(&opts.crs, "crs", pipeline.DefaultCRS, `target CRS ("EPSG:nnnn" or "utm")`)
	cmd.Flags().StringVar(&opts.start, "start", "", "simulation start time (required)")
	cmd.Flags().StringVar(&opts.end, "end", "", "simulation end time (required)")
	cmd.Flags().IntVar(&opts.timestep, "timestep", opts.timestep, "timestep in seconds (3600 or 86400)")
	cmd.Flags().StringVar(&opts.meteo, "meteo", "", "raw meteo CSV; enables the forcing stage")
	cmd.Flags().StringVar(&opts.petMethod, "pet-method", opts.petMethod, "evapotranspiration method (debruin or makkink)")
	cmd.Flags().IntVar(&opts.decimals, "decimals", opts.decimals, "decimals written to the forcing file")

	return cmd
}

func runBuild(ctx context.Context, opts *buildOpts) error {
	logger := loggerFromContext(ctx)

	popts, err := opts.pipelineOptions(ctx)
	if err != nil {
		return err
	}

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Preparing model input for %s...", opts.name))
	spin.Start()

	prog := newProgress(logger)
	result, err := pipeline.NewRunner(logger).Execute(ctx, popts)
	if err != nil {
		spin.StopWithError(errors.UserMessage(err))
		return err
	}
	spin.Stop()
	prog.done(fmt.Sprintf("Prepared model input for %s", opts.name))

	printSuccess("Land use classified (%s total area)", fmt.Sprintf("%.0f m²", result.Table.Total()))
	for _, row := range result.Table {
		printDetail("%-9s %12.3f m²  %6.3f", row.Code, row.Area, row.Frac)
	}
	if result.Forcing != nil {
		printInfo("Forcing assembled (%d rows)", len(result.Forcing.Times))
	}
	for _, p := range result.Paths {
		printFile(p)
	}
	return nil
}

// parseTimeFlag parses a time flag value against the accepted layouts.
func parseTimeFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New(errors.ErrCodeInvalidInput, "--%s is required", name)
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.New(errors.ErrCodeInvalidInput,
		"--%s: unparseable time %q (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", name, value)
}

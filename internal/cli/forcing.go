package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/forcing"
	uio "github.com/urbanwb/uwbmprep/pkg/io"
)

// forcingOpts holds the command-line flags for the forcing command.
type forcingOpts struct {
	name      string
	root      string
	meteo     string
	start     string
	end       string
	timestep  int
	petMethod string
	decimals  int
	output    string
}

// newForcingCmd creates the forcing command, which derives the model-ready
// forcing file from raw meteo input without running the land-use stage.
func newForcingCmd() *cobra.Command {
	opts := forcingOpts{timestep: 3600, petMethod: "debruin", decimals: 3}

	cmd := &cobra.Command{
		Use:   "forcing",
		Short: "Derive model-ready forcing from raw meteo input",
		Long: `Derive the precipitation and reference evapotranspiration forcing of
the Urban Water Balance Model from raw meteo input, resampled to the model
timestep.

Example:
  uwbmprep forcing -n eindhoven --meteo era5.csv \
      --start 2010-01-01 --end 2020-01-01 --pet-method makkink`,
		RunE: func(c *cobra.Command, args []string) error {
			return runForcing(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "simulation name used in the filename (required)")
	cmd.Flags().StringVar(&opts.root, "root", ".", "model directory to write into")
	cmd.Flags().StringVar(&opts.meteo, "meteo", "", "raw meteo CSV (required)")
	cmd.Flags().StringVar(&opts.start, "start", "", "simulation start time (required)")
	cmd.Flags().StringVar(&opts.end, "end", "", "simulation end time (required)")
	cmd.Flags().IntVar(&opts.timestep, "timestep", opts.timestep, "timestep in seconds (3600 or 86400)")
	cmd.Flags().StringVar(&opts.petMethod, "pet-method", opts.petMethod, "evapotranspiration method (debruin or makkink)")
	cmd.Flags().IntVar(&opts.decimals, "decimals", opts.decimals, "decimals written to the forcing file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (defaults to the conventional name under input/)")

	return cmd
}

func runForcing(ctx context.Context, opts *forcingOpts) error {
	logger := loggerFromContext(ctx)

	if opts.name == "" || opts.meteo == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--name and --meteo are required")
	}
	start, err := parseTimeFlag("start", opts.start)
	if err != nil {
		return err
	}
	end, err := parseTimeFlag("end", opts.end)
	if err != nil {
		return err
	}
	method, err := forcing.ParseMethod(opts.petMethod)
	if err != nil {
		return err
	}

	meteo, err := forcing.ReadMeteoCSVFile(opts.meteo)
	if err != nil {
		return err
	}
	logger.Info("read meteo input", "samples", len(meteo.Times))

	prog := newProgress(logger)
	pet, err := forcing.PotOpenWater(meteo, method, opts.timestep)
	if err != nil {
		return err
	}

	step := time.Duration(opts.timestep) * time.Second
	precip, err := meteo.PrecipSeries().Resample(step, forcing.Sum)
	if err != nil {
		return err
	}
	if pet, err = pet.Resample(step, forcing.Mean); err != nil {
		return err
	}

	table, err := forcing.BuildTable(precip, pet)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Assembled %d forcing rows (%s)", len(table.Times), method))

	path := opts.output
	if path == "" {
		path = filepath.Join(opts.root, "input", forcing.DefaultFilename(opts.name, start, end, opts.timestep))
	}
	if err := uio.ExportForcing(table, path, opts.decimals); err != nil {
		return err
	}

	printSuccess("Forcing written")
	printKeyValue("rows", fmt.Sprintf("%d", len(table.Times)))
	printKeyValue("method", string(method))
	printFile(path)
	return nil
}

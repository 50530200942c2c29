package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	uio "github.com/urbanwb/uwbmprep/pkg/io"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
	"github.com/urbanwb/uwbmprep/pkg/uwbm"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create and check neighbourhood configuration files",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

// configInitOpts holds the flags for the config init command.
type configInitOpts struct {
	name     string
	root     string
	start    string
	end      string
	timestep int
	table    string
}

// newConfigInitCmd creates the "config init" subcommand, which writes a
// neighbourhood configuration with model defaults, optionally projecting
// an existing land-use table into it.
func newConfigInitCmd() *cobra.Command {
	opts := configInitOpts{timestep: 3600}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a neighbourhood configuration with model defaults",
		Long: `Write a neighbourhood configuration file carrying the model's parameter
defaults. An existing land-use table can be projected into the file with
--table; otherwise the land-use keys stay unset until a build run fills
them in.

Example:
  uwbmprep config init -n eindhoven --start 2010-01-01 --end 2020-01-01 \
      --table output/landuse/landuse_table_eindhoven.csv`,
		RunE: func(c *cobra.Command, args []string) error {
			return runConfigInit(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "simulation name (required)")
	cmd.Flags().StringVar(&opts.root, "root", ".", "model directory to write into")
	cmd.Flags().StringVar(&opts.start, "start", "", "simulation start time (required)")
	cmd.Flags().StringVar(&opts.end, "end", "", "simulation end time (required)")
	cmd.Flags().IntVar(&opts.timestep, "timestep", opts.timestep, "timestep in seconds (3600 or 86400)")
	cmd.Flags().StringVar(&opts.table, "table", "", "land-use table CSV to project into the config")

	return cmd
}

func runConfigInit(ctx context.Context, opts *configInitOpts) error {
	logger := loggerFromContext(ctx)

	if opts.name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--name is required")
	}
	start, err := parseTimeFlag("start", opts.start)
	if err != nil {
		return err
	}
	end, err := parseTimeFlag("end", opts.end)
	if err != nil {
		return err
	}

	c := uwbm.Default()
	c.Name = opts.name
	c.StartTime = start
	c.EndTime = end
	c.Timestep = opts.timestep

	if opts.table != "" {
		table, err := readTable(opts.table)
		if err != nil {
			return err
		}
		c.ApplyLanduse(table)
		logger.Info("projected land-use table", "rows", len(table))
	}

	if err := c.Validate(); err != nil {
		return err
	}

	path := filepath.Join(opts.root, "input", "config", "ep_neighbourhood_"+opts.name+".ini")
	if err := uio.ExportConfig(c, path); err != nil {
		return err
	}

	printSuccess("Configuration written")
	printFile(path)
	return nil
}

// newConfigValidateCmd creates the "config validate" subcommand.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a neighbourhood configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := uwbm.DecodeFile(args[0])
			if err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("Configuration is valid")
			printKeyValue("name", cfg.Name)
			printKeyValue("period", fmt.Sprintf("%s → %s",
				cfg.StartTime.Format("2006-01-02"), cfg.EndTime.Format("2006-01-02")))
			printKeyValue("timestep", fmt.Sprintf("%ds", cfg.Timestep))
			if cfg.TotArea != nil {
				printKeyValue("tot_area", fmt.Sprintf("%.0f m²", *cfg.TotArea))
			}
			return nil
		},
	}
}

// readTable reads a previously written land-use table back from CSV.
func readTable(path string) (landuse.Table, error) {
	return uio.ImportTable(path)
}

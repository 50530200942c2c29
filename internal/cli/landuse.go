package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/geo"
	uio "github.com/urbanwb/uwbmprep/pkg/io"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
)

// landuseOpts holds the command-line flags for the landuse command.
type landuseOpts struct {
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
}

// newLanduseCmd creates the landuse command, which runs only the
// classification stage and writes the map and table.
func newLanduseCmd() *cobra.Command {
	opts := landuseOpts{crs: "EPSG:3857"}

	cmd := &cobra.Command{
		Use:   "landuse",
		Short: "Classify OSM extract layers into the five-class land-use partition",
		Long: `Classify a project area into the five land-use classes of the Urban
Water Balance Model (paved_roof, closed_paved, open_paved, unpaved, water)
and write the dissolved map and the aggregated area/fraction table.

Example:
  uwbmprep landuse -n eindhoven --region region.geojson --mapping mapping.csv \
      --roads roads.geojson --buildings buildings.geojson --water-bodies water.geojson`,
		RunE: func(c *cobra.Command, args []string) error {
			return runLanduse(c.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "project name used in artifact filenames (required)")
	cmd.Flags().StringVar(&opts.root, "root", ".", "model directory to write artifacts into")
	cmd.Flags().StringVar(&opts.region, "region", "", "region polygon GeoJSON (required)")
	cmd.Flags().StringVar(&opts.mapping, "mapping", "", "feature-class mapping table CSV (required)")
	cmd.Flags().StringVar(&opts.roads, "roads", "", "roads layer GeoJSON")
	cmd.Flags().StringVar(&opts.railways, "railways", "", "railways layer GeoJSON")
	cmd.Flags().StringVar(&opts.waterways, "waterways", "", "waterways layer GeoJSON")
	cmd.Flags().StringVar(&opts.buildings, "buildings", "", "buildings layer GeoJSON")
	cmd.Flags().StringVar(&opts.waterBodies, "water-bodies", "", "water bodies layer GeoJSON")
	cmd.Flags().StringVar(&opts.crs, "crs", opts.crs, `target CRS ("EPSG:nnnn" or "utm")`)

	return cmd
}

func runLanduse(ctx context.Context, opts *landuseOpts) error {
	logger := loggerFromContext(ctx)

	if opts.name == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--name is required")
	}
	if opts.region == "" || opts.mapping == "" {
		return errors.New(errors.ErrCodeInvalidInput, "--region and --mapping are required")
	}

	mapping, err := landuse.ReadMappingFile(opts.mapping)
	if err != nil {
		return err
	}
	logger.Info("loaded mapping table", "entries", len(mapping))

	region, crs, err := loadRegion(opts.region, opts.crs)
	if err != nil {
		return err
	}
	logger.Info("loaded region", "crs", crs)

	in := landuse.Input{Region: region, Mapping: mapping}
	for _, l := range []struct {
		name string
		path string
		dst  *geo.Layer
	}{
		{"roads", opts.roads, &in.Roads},
		{"railways", opts.railways, &in.Railways},
		{"waterways", opts.waterways, &in.Waterways},
		{"buildings", opts.buildings, &in.Buildings},
		{"water bodies", opts.waterBodies, &in.WaterBodies},
	} {
		*l.dst, err = loadOptionalLayer(l.path, crs)
		if err != nil {
			return err
		}
		if l.path != "" && (*l.dst).IsEmpty() {
			printWarning("layer %s is empty", l.name)
		}
	}

	spin := newSpinnerWithContext(ctx, "Classifying land use...")
	spin.Start()
	prog := newProgress(logger)

	res, err := landuse.FromOSM(in)
	if err != nil {
		spin.StopWithError(errors.UserMessage(err))
		return err
	}
	table := landuse.BuildTable(res.Map, landuse.DefaultFloor)
	spin.Stop()
	prog.done(fmt.Sprintf("Classified %d classes over %.0f m²", len(res.Map.Features), table.Total()))

	mapPath := filepath.Join(opts.root, "output", "landuse", opts.name+".geojson")
	if err := uio.ExportLayer(res.Map, mapPath); err != nil {
		return err
	}
	tablePath := filepath.Join(opts.root, "output", "landuse", "landuse_table_"+opts.name+".csv")
	if err := uio.ExportTable(table, tablePath); err != nil {
		return err
	}

	printSuccess("Land use classified")
	for _, row := range table {
		printDetail("%-9s %12.3f m²  %6.3f", row.Code, row.Area, row.Frac)
	}
	printFile(mapPath)
	printFile(tablePath)
	return nil
}

// loadRegion reads the region polygon and reprojects it into the target
// CRS, resolving "utm" to the zone of the region centroid.
func loadRegion(path, crsFlag string) (geo.Layer, geo.CRS, error) {
	region, err := geo.ReadLayerFile(path, geo.WGS84)
	if err != nil {
		return geo.Layer{}, geo.CRS{}, err
	}

	var crs geo.CRS
	if crsFlag == "utm" {
		lon, lat, err := region.Center()
		if err != nil {
			return geo.Layer{}, geo.CRS{}, err
		}
		if crs, err = geo.UTMFor(lon, lat); err != nil {
			return geo.Layer{}, geo.CRS{}, err
		}
	} else {
		if crs, err = geo.ParseCRS(crsFlag); err != nil {
			return geo.Layer{}, geo.CRS{}, err
		}
	}

	projected, err := geo.Reproject(region, crs)
	if err != nil {
		return geo.Layer{}, geo.CRS{}, err
	}
	return projected, crs, nil
}

// loadOptionalLayer reads and reprojects one extract layer; an unset path
// or a missing file yields an empty layer.
func loadOptionalLayer(path string, crs geo.CRS) (geo.Layer, error) {
	if path == "" {
		return geo.NewLayer(crs), nil
	}
	l, err := geo.ReadLayerFile(path, geo.WGS84)
	if err != nil {
		if errors.Is(err, errors.ErrCodeFileNotFound) {
			return geo.NewLayer(crs), nil
		}
		return geo.Layer{}, err
	}
	return geo.Reproject(l, crs)
}

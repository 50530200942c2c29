package uwbm

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

const timeLayout = "2006-01-02 15:04:05"

// entry is one serialized key with its trailing description comment.
// A nil value keeps the key out of the file.
type entry struct {
	key   string
	value any
	desc  string
}

// section groups entries under a banner comment.
type section struct {
	header  string
	entries []entry
}

func (c Config) sections() []section {
	return []section{
		{"run", []entry{
			{"title", c.Title, "Title of the configuration"},
			{"name", c.Name, "Name of the simulation"},
			{"starttime", c.StartTime, "Simulation start time in format YYYY-MM-DD HH:MM:SS"},
			{"endtime", c.EndTime, "Simulation end time in format YYYY-MM-DD HH:MM:SS"},
			{"timestep", c.Timestep, "Timestep length in seconds [3600: hourly, 86400: daily]"},
		}},
		{"landuse", []entry{
			{"soiltype", c.Soiltype, "Soil type"},
			{"croptype", c.Croptype, "Crop type"},
			{"tot_area", c.TotArea, "Total area of the study area [m2]"},
			{"area_type", c.AreaType, "Area input type [0: fraction(default), 1: area]"},
			{"landuse_area", c.LanduseArea, "Land use area values [m2]"},
			{"landuse_frac", c.LanduseFrac, "Land use area fractions [-]"},
		}},
		{"paved roof", []entry{
			{"tot_pr_area", c.TotPrArea, "Total area of paved roof [m2]"},
			{"pr_frac", c.PrFrac, "Paved roof fraction of total area [-]"},
			{"frac_pr_aboveGW", c.FracPrAboveGW, "Part of buildings above Groundwater [-]"},
			{"discfrac_pr", c.DiscfracPr, "Part of paved roof disconnected from sewer system [-]"},
			{"intstorcap_pr", c.IntstorcapPr, "Interception storage capacity of paved roof [mm]"},
			{"intstor_pr_t0", c.IntstorPrT0, "Initial interception storage of paved roof (at t=0) [mm]"},
		}},
		{"closed paved", []entry{
			{"tot_cp_area", c.TotCpArea, "Total area of closed paved in square meters"},
			{"cp_frac", c.CpFrac, "Closed paved fraction of total area [-]"},
			{"discfrac_cp", c.DiscfracCp, "Part of closed paved disconnected from sewer system [-]"},
			{"intstorcap_cp", c.IntstorcapCp, "Interception storage capacity of closed paved"},
			{"intstor_cp_t0", c.IntstorCpT0, "Initial interception storage of closed paved (at t=0) [mm]"},
		}},
		{"open paved", []entry{
			{"tot_op_area", c.TotOpArea, "Total area of open paved [m2]"},
			{"op_frac", c.OpFrac, "Open paved fraction of total area [-]"},
			{"discfrac_op", c.DiscfracOp, "Part of open paved disconnected from sewer system [-]"},
			{"intstorcap_op", c.IntstorcapOp, "Interception storage capacity of open paved [mm]"},
			{"infilcap_op", c.InfilcapOp, "Infiltration capacity of open paved [mm/d]"},
			{"intstor_op_t0", c.IntstorOpT0, "Initial interception storage of open paved (at t=0) [mm]"},
		}},
		{"unpaved", []entry{
			{"tot_up_area", c.TotUpArea, "Total area of unpaved [m2]"},
			{"up_frac", c.UpFrac, "Unpaved fraction of total area [-]"},
			{"intstorcap_up", c.IntstorcapUp, "Interception storage capacity of unpaved [mm]"},
			{"infilcap_up", c.InfilcapUp, "Infiltration capacity of unpaved [mm/d]"},
			{"fin_intstor_up_t0", c.FinIntstorUpT0, "Initial interception storage of unpaved (at t=0) [mm]"},
		}},
		{"groundwater", []entry{
			{"w", c.W, "Drainage resistance from groundwater to open water (w) [d]"},
			{"seepage_define", c.SeepageDefine, "Seepage to deep groundwater defined as either constant downward flux or dynamic computed flux determined by head difference and resistance [0=flux; 1=level]"},
			{"down_seepage_flux", c.DownSeepageFlux, "Constant downward flux from shallow groundwater to deep groundwater [mm/d]"},
			{"head_deep_gw", c.HeadDeepGW, "Hydraulic head of deep groundwater [m below ground level]"},
			{"vc", c.VC, "Vertical flow resistance from shallow groundwater to deep groundwater (vc) [d]"},
			{"gwl_t0", c.GwlT0, `Initial groudwater level (at t=0), usually taken as target water level, relating to "storcap_ow" [m-SL]`},
		}},
		{"open water", []entry{
			{"tot_ow_area", c.TotOwArea, "Total area of open water [m2]"},
			{"ow_frac", c.OwFrac, "Open water fraction of total area [-]"},
			{"frac_ow_aboveGW", c.FracOwAboveGW, "Part of open water above Groundwater [-]"},
			{"storcap_ow", c.StorcapOw, "Storage capacity of open water (divided by 1000 is target open water level) [mm]"},
			{"q_ow_out_cap", c.QOwOutCap, "predefined discharge capacity from open water (internal) to outside water (external) [mm/d over total area]"},
		}},
		{"sewer system", []entry{
			{"swds_frac", c.SwdsFrac, "Part of urban paved area with storm water drainage system (SWDS) [-]"},
			{"storcap_swds", c.StorcapSwds, "Storage capacity of storm water drainage system (SWDS) [mm]"},
			{"storcap_mss", c.StorcapMss, "Storage capacity of mixed sewer system (MSS) [mm]"},
			{"rainfall_swds_so", c.RainfallSwdsSo, "Rainfall intensity when SWDS overflow occurs on street [mm/timestep]"},
			{"rainfall_mss_ow", c.RainfallMssOw, "Rainfall intensity when combined overflow to open water occurs [mm/timestep]"},
			{"stor_swds_t0", c.StorSwdsT0, "Initial storage in storm water drainage system (SWDS) [mm]"},
			{"so_swds_t0", c.SoSwdsT0, "Initial sewer overflow from storm water drainage system (SWDS) [mm]"},
			{"stor_mss_t0", c.StorMssT0, "Initial storage in mixed sewer system (MSS) [mm]"},
			{"so_mss_t0", c.SoMssT0, "Initial sewer overflow from mixed sewer system (MSS) [mm]"},
		}},
	}
}

// Encode writes the config as the model's annotated TOML: a file header,
// banner-commented sections, scalar keys aligned with their description
// comments, and inline tables for the land-use maps. Optional keys without
// a value are left out.
func (c Config) Encode(w io.Writer) error {
	var b strings.Builder
	b.WriteString("# This is a TOML-format neighbourhood (base) configuration file.\n")
	b.WriteString("# [-] indicates fraction, please type 0.75 to represent 75%.\n\n")

	for _, sec := range c.sections() {
		banner := strings.Repeat("#", len(sec.header)+4)
		fmt.Fprintf(&b, "%s\n# %s #\n%s\n\n", banner, sec.header, banner)

		var scalars []entry
		var tables []entry
		for _, e := range sec.entries {
			v, ok := scalarValue(e.value)
			switch {
			case !ok:
				continue
			case v == "":
				tables = append(tables, e)
			default:
				scalars = append(scalars, entry{e.key, v, e.desc})
			}
		}

		width := 0
		for _, e := range scalars {
			if n := len(e.key) + 3 + len(e.value.(string)); n > width {
				width = n
			}
		}
		for _, e := range scalars {
			assignment := fmt.Sprintf("%s = %s", e.key, e.value)
			fmt.Fprintf(&b, "%-*s # %s\n", width, assignment, e.desc)
		}
		for _, e := range tables {
			fmt.Fprintf(&b, "# %s\n%s = %s\n\n", e.desc, e.key, inlineTable(e.value.(map[string]float64)))
		}
		b.WriteString("\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write neighbourhood configuration")
	}
	return nil
}

// scalarValue formats a scalar TOML value. It reports false for absent
// optionals and returns an empty string for map values, which get their
// own inline-table rendering.
func scalarValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t), true
	case int:
		return strconv.Itoa(t), true
	case float64:
		return formatFloat(t), true
	case *float64:
		if t == nil {
			return "", false
		}
		return formatFloat(*t), true
	case time.Time:
		return t.Format(timeLayout), true
	case map[string]float64:
		if t == nil {
			return "", false
		}
		return "", true
	}
	return "", false
}

func inlineTable(m map[string]float64) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, len(keys))
	for i, k := range keys {
		items[i] = fmt.Sprintf("%q = %s", k, formatFloat(m[k]))
	}
	return "{ " + strings.Join(items, ", ") + " }"
}

// formatFloat keeps whole numbers readable as TOML floats (1500.0, not
// 1500) while printing fractional values exactly.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Package uwbm models the neighbourhood configuration file of the Urban
// Water Balance Model: its parameter schema, defaults, validation, and the
// annotated TOML form the model reads.
package uwbm

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
)

// Timesteps the model supports.
const (
	TimestepHourly = 3600
	TimestepDaily  = 86400
)

// Config is the neighbourhood parameter set. Pointer and map fields are
// optional: they stay out of the written file until a land-use table or an
// explicit value fills them in. All other fields carry model defaults.
type Config struct {
	// run
	Title     string    `toml:"title"`
	Name      string    `toml:"name"`
	StartTime time.Time `toml:"starttime"`
	EndTime   time.Time `toml:"endtime"`
	Timestep  int       `toml:"timestep"`

	// landuse
	Soiltype    int                `toml:"soiltype"`
	Croptype    int                `toml:"croptype"`
	TotArea     *float64           `toml:"tot_area"`
	AreaType    int                `toml:"area_type"`
	LanduseArea map[string]float64 `toml:"landuse_area"`
	LanduseFrac map[string]float64 `toml:"landuse_frac"`

	// paved roof
	TotPrArea     *float64 `toml:"tot_pr_area"`
	PrFrac        *float64 `toml:"pr_frac"`
	FracPrAboveGW float64  `toml:"frac_pr_aboveGW"`
	DiscfracPr    float64  `toml:"discfrac_pr"`
	IntstorcapPr  float64  `toml:"intstorcap_pr"`
	IntstorPrT0   float64  `toml:"intstor_pr_t0"`

	// closed paved
	TotCpArea    *float64 `toml:"tot_cp_area"`
	CpFrac       *float64 `toml:"cp_frac"`
	DiscfracCp   float64  `toml:"discfrac_cp"`
	IntstorcapCp float64  `toml:"intstorcap_cp"`
	IntstorCpT0  float64  `toml:"intstor_cp_t0"`

	// open paved
	TotOpArea    *float64 `toml:"tot_op_area"`
	OpFrac       *float64 `toml:"op_frac"`
	DiscfracOp   float64  `toml:"discfrac_op"`
	IntstorcapOp float64  `toml:"intstorcap_op"`
	InfilcapOp   float64  `toml:"infilcap_op"`
	IntstorOpT0  float64  `toml:"intstor_op_t0"`

	// unpaved
	TotUpArea      *float64 `toml:"tot_up_area"`
	UpFrac         *float64 `toml:"up_frac"`
	IntstorcapUp   float64  `toml:"intstorcap_up"`
	InfilcapUp     float64  `toml:"infilcap_up"`
	FinIntstorUpT0 float64  `toml:"fin_intstor_up_t0"`

	// groundwater
	W               float64 `toml:"w"`
	SeepageDefine   int     `toml:"seepage_define"`
	DownSeepageFlux float64 `toml:"down_seepage_flux"`
	HeadDeepGW      float64 `toml:"head_deep_gw"`
	VC              float64 `toml:"vc"`
	GwlT0           float64 `toml:"gwl_t0"`

	// open water
	TotOwArea     *float64 `toml:"tot_ow_area"`
	OwFrac        *float64 `toml:"ow_frac"`
	FracOwAboveGW float64  `toml:"frac_ow_aboveGW"`
	StorcapOw     float64  `toml:"storcap_ow"`
	QOwOutCap     float64  `toml:"q_ow_out_cap"`

	// sewer system
	SwdsFrac       float64 `toml:"swds_frac"`
	StorcapSwds    float64 `toml:"storcap_swds"`
	StorcapMss     float64 `toml:"storcap_mss"`
	RainfallSwdsSo float64 `toml:"rainfall_swds_so"`
	RainfallMssOw  float64 `toml:"rainfall_mss_ow"`
	StorSwdsT0     float64 `toml:"stor_swds_t0"`
	SoSwdsT0       float64 `toml:"so_swds_t0"`
	StorMssT0      float64 `toml:"stor_mss_t0"`
	SoMssT0        float64 `toml:"so_mss_t0"`
}

// Default returns a config carrying the model's documented parameter
// defaults. Name, period and timestep remain to be set by the caller.
func Default() Config {
	return Config{
		Title:          "Neighbourhood config",
		Soiltype:       7,
		Croptype:       1,
		FracPrAboveGW:  1.0,
		DiscfracPr:     0.1,
		IntstorcapPr:   3.0,
		DiscfracCp:     0.05,
		IntstorcapCp:   2.0,
		DiscfracOp:     0.5,
		IntstorcapOp:   4.0,
		InfilcapOp:     24.0,
		IntstorcapUp:   5.0,
		InfilcapUp:     48.0,
		W:              1000.0,
		HeadDeepGW:     20.0,
		VC:             100000.0,
		GwlT0:          1.5,
		StorcapOw:      1500.0,
		QOwOutCap:      3.0,
		SwdsFrac:       0.25,
		StorcapSwds:    2.0,
		StorcapMss:     2.0,
		RainfallSwdsSo: 8.0,
		RainfallMssOw:  8.0,
	}
}

// ApplyLanduse projects an aggregated land-use table into the config:
// the per-class area and fraction maps, the per-class shorthand fields,
// and the total area.
func (c *Config) ApplyLanduse(t landuse.Table) {
	c.LanduseArea = make(map[string]float64, len(t))
	c.LanduseFrac = make(map[string]float64, len(t))
	for _, r := range t {
		c.LanduseArea[r.Code] = r.Area
		c.LanduseFrac[r.Code] = r.Frac
	}

	set := func(code string, area, frac **float64) {
		a, f := t.Area(code), t.Frac(code)
		*area, *frac = &a, &f
	}
	set("pr", &c.TotPrArea, &c.PrFrac)
	set("cp", &c.TotCpArea, &c.CpFrac)
	set("op", &c.TotOpArea, &c.OpFrac)
	set("up", &c.TotUpArea, &c.UpFrac)
	set("ow", &c.TotOwArea, &c.OwFrac)

	tot := t.Total()
	c.TotArea = &tot
}

// Validate checks the full parameter set and reports every violation in a
// single error, so a broken file is diagnosed in one pass.
func (c Config) Validate() error {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Name == "" {
		fail("name: simulation name is required")
	}
	if c.StartTime.IsZero() {
		fail("starttime: simulation start time is required")
	}
	if c.EndTime.IsZero() {
		fail("endtime: simulation end time is required")
	}
	if !c.StartTime.IsZero() && !c.EndTime.IsZero() && !c.EndTime.After(c.StartTime) {
		fail("endtime: must be after starttime (%s >= %s)", c.StartTime.Format(timeLayout), c.EndTime.Format(timeLayout))
	}
	if c.Timestep != TimestepHourly && c.Timestep != TimestepDaily {
		fail("timestep: must be 3600 (hourly) or 86400 (daily), got %d", c.Timestep)
	}
	if c.Soiltype < 0 {
		fail("soiltype: must be non-negative, got %d", c.Soiltype)
	}
	if c.Croptype < 0 {
		fail("croptype: must be non-negative, got %d", c.Croptype)
	}
	if c.AreaType != 0 && c.AreaType != 1 {
		fail("area_type: must be 0 (fraction) or 1 (area), got %d", c.AreaType)
	}
	if c.SeepageDefine != 0 && c.SeepageDefine != 1 {
		fail("seepage_define: must be 0 (flux) or 1 (level), got %d", c.SeepageDefine)
	}

	for _, p := range []struct {
		name  string
		value *float64
	}{
		{"tot_area", c.TotArea}, {"tot_pr_area", c.TotPrArea}, {"tot_cp_area", c.TotCpArea},
		{"tot_op_area", c.TotOpArea}, {"tot_up_area", c.TotUpArea}, {"tot_ow_area", c.TotOwArea},
	} {
		if p.value != nil && *p.value < 0 {
			fail("%s: must be non-negative, got %v", p.name, *p.value)
		}
	}
	for _, p := range []struct {
		name  string
		value *float64
	}{
		{"pr_frac", c.PrFrac}, {"cp_frac", c.CpFrac}, {"op_frac", c.OpFrac},
		{"up_frac", c.UpFrac}, {"ow_frac", c.OwFrac},
	} {
		if p.value != nil && (*p.value < 0 || *p.value > 1) {
			fail("%s: must be within [0, 1], got %v", p.name, *p.value)
		}
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"frac_pr_aboveGW", c.FracPrAboveGW}, {"discfrac_pr", c.DiscfracPr},
		{"discfrac_cp", c.DiscfracCp}, {"discfrac_op", c.DiscfracOp},
		{"frac_ow_aboveGW", c.FracOwAboveGW}, {"swds_frac", c.SwdsFrac},
	} {
		if p.value < 0 || p.value > 1 {
			fail("%s: must be within [0, 1], got %v", p.name, p.value)
		}
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"intstorcap_pr", c.IntstorcapPr}, {"intstor_pr_t0", c.IntstorPrT0},
		{"intstorcap_cp", c.IntstorcapCp}, {"intstor_cp_t0", c.IntstorCpT0},
		{"intstorcap_op", c.IntstorcapOp}, {"infilcap_op", c.InfilcapOp}, {"intstor_op_t0", c.IntstorOpT0},
		{"intstorcap_up", c.IntstorcapUp}, {"infilcap_up", c.InfilcapUp}, {"fin_intstor_up_t0", c.FinIntstorUpT0},
		{"w", c.W}, {"down_seepage_flux", c.DownSeepageFlux}, {"vc", c.VC},
		{"storcap_ow", c.StorcapOw}, {"q_ow_out_cap", c.QOwOutCap},
		{"storcap_swds", c.StorcapSwds}, {"storcap_mss", c.StorcapMss},
		{"rainfall_swds_so", c.RainfallSwdsSo}, {"rainfall_mss_ow", c.RainfallMssOw},
		{"stor_swds_t0", c.StorSwdsT0}, {"so_swds_t0", c.SoSwdsT0},
		{"stor_mss_t0", c.StorMssT0}, {"so_mss_t0", c.SoMssT0},
	} {
		if p.value < 0 {
			fail("%s: must be non-negative, got %v", p.name, p.value)
		}
	}

	if len(problems) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"invalid neighbourhood configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// Decode parses a neighbourhood TOML file. Unknown keys are fatal so a
// typoed parameter cannot silently fall back to its default.
func Decode(r io.Reader) (Config, error) {
	c := Default()
	meta, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse neighbourhood configuration")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidConfig,
			"unknown configuration parameters: %s", strings.Join(keys, ", "))
	}
	return c, nil
}

// DecodeFile parses and validates a neighbourhood TOML file.
func DecodeFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "neighbourhood configuration %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open neighbourhood configuration %s", path)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

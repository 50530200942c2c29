package forcing

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urbanwb/uwbmprep/pkg/errors"
)

// Forcing table column names, in the order the model expects them.
var columnOrder = []string{"P_atm", "Ref.grass", "E_pot_OW"}

// Date format of the written forcing file (day first).
const dateFormat = "02-01-2006 15:04"

// Accepted timestamp layouts of the raw meteo input.
var meteoLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// Meteo holds raw meteorological input series sharing one time axis:
// precipitation depth [mm], air temperature [°C], mean sea-level pressure
// [hPa], and incoming/outgoing shortwave radiation [W m-2]. Kout may be
// empty when only the Makkink method is used.
type Meteo struct {
	Times    []time.Time
	Precip   []float64
	Temp     []float64
	PressMSL []float64
	Kin      []float64
	Kout     []float64
}

// PrecipSeries returns the precipitation as a standalone series.
func (m Meteo) PrecipSeries() Series {
	return Series{Times: m.Times, Values: m.Precip}
}

// ReadMeteoCSV parses raw meteo input with a header line naming at least
// date, precip, temp, press_msl and kin; kout is optional. Missing required
// columns and unparseable cells are fatal input errors.
func ReadMeteoCSV(r io.Reader) (Meteo, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return Meteo{}, errors.Wrap(errors.ErrCodeInvalidForcing, err, "read meteo header")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range []string{"date", "precip", "temp", "press_msl", "kin"} {
		if _, ok := idx[col]; !ok {
			return Meteo{}, errors.New(errors.ErrCodeInvalidForcing,
				"meteo input is missing required column %q", col)
		}
	}
	_, hasKout := idx["kout"]

	var m Meteo
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Meteo{}, errors.Wrap(errors.ErrCodeInvalidForcing, err, "read meteo line %d", line)
		}

		ts, err := parseMeteoTime(rec[idx["date"]])
		if err != nil {
			return Meteo{}, errors.Wrap(errors.ErrCodeInvalidForcing, err, "meteo line %d", line)
		}
		m.Times = append(m.Times, ts)

		for _, c := range []struct {
			name string
			dst  *[]float64
		}{
			{"precip", &m.Precip},
			{"temp", &m.Temp},
			{"press_msl", &m.PressMSL},
			{"kin", &m.Kin},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[c.name]]), 64)
			if err != nil {
				return Meteo{}, errors.New(errors.ErrCodeInvalidForcing,
					"meteo line %d: column %q value %q is not numeric", line, c.name, rec[idx[c.name]])
			}
			*c.dst = append(*c.dst, v)
		}
		if hasKout {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["kout"]]), 64)
			if err != nil {
				return Meteo{}, errors.New(errors.ErrCodeInvalidForcing,
					"meteo line %d: column \"kout\" value %q is not numeric", line, rec[idx["kout"]])
			}
			m.Kout = append(m.Kout, v)
		}
	}
	return m, nil
}

// ReadMeteoCSVFile reads raw meteo input from a CSV file.
func ReadMeteoCSVFile(path string) (Meteo, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meteo{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "meteo input %s", path)
		}
		return Meteo{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "open meteo input %s", path)
	}
	defer f.Close()
	return ReadMeteoCSV(f)
}

func parseMeteoTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range meteoLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.New(errors.ErrCodeInvalidForcing, "unparseable timestamp %q", s)
}

// Table is the assembled model-ready forcing: per timestamp, precipitation
// (P_atm), reference grass evapotranspiration (Ref.grass) and potential
// open-water evapotranspiration (E_pot_OW), all in mm per timestep.
type Table struct {
	Times        []time.Time
	Precip       []float64
	RefGrass     []float64
	PotOpenWater []float64
}

// BuildTable assembles the forcing table from resampled precipitation and
// open-water evapotranspiration series. Both must share the same time axis;
// the grass reference column is derived from the open-water column.
func BuildTable(precip, pet Series) (Table, error) {
	if precip.Len() != pet.Len() {
		return Table{}, errors.New(errors.ErrCodeInvalidForcing,
			"precipitation and evapotranspiration series differ in length (%d vs %d)", precip.Len(), pet.Len())
	}
	for i := range precip.Times {
		if !precip.Times[i].Equal(pet.Times[i]) {
			return Table{}, errors.New(errors.ErrCodeInvalidForcing,
				"precipitation and evapotranspiration series diverge at %s", precip.Times[i])
		}
	}
	return Table{
		Times:        precip.Times,
		Precip:       precip.Values,
		RefGrass:     pet.Scale(grassFactor).Values,
		PotOpenWater: pet.Values,
	}, nil
}

// WriteCSV writes the forcing table in model-ready form: a date column in
// day-first format followed by the fixed column order, values rounded to
// the given number of decimals.
func (t Table) WriteCSV(w io.Writer, decimals int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"date"}, columnOrder...)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write forcing header")
	}
	for i, ts := range t.Times {
		rec := []string{
			ts.Format(dateFormat),
			formatValue(t.Precip[i], decimals),
			formatValue(t.RefGrass[i], decimals),
			formatValue(t.PotOpenWater[i], decimals),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write forcing row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "flush forcing file")
	}
	return nil
}

func formatValue(v float64, decimals int) string {
	scale := math.Pow(10, float64(decimals))
	return strconv.FormatFloat(math.Round(v*scale)/scale, 'f', -1, 64)
}

// DefaultFilename derives the conventional forcing filename from the run
// name and period, e.g. Forcing_eindhoven_10y_1h.csv.
func DefaultFilename(name string, start, end time.Time, timestep int) string {
	years := int(end.Sub(start).Hours() / 24 / 365.25)
	return fmt.Sprintf("Forcing_%s_%dy_%dh.csv", name, years, timestep/3600)
}

package landuse

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/geo"
)

// MappingEntry translates one source feature class into a land-use class
// with the total buffer width applied to its line features.
type MappingEntry struct {
	FClass string
	Width  float64
	Class  Class
}

// Mapping is the feature-class translation table. It is validated on load:
// the required columns must be present, every reclass value must be one of
// the five recognized classes, and widths must be non-negative numbers.
type Mapping []MappingEntry

// Required mapping table columns.
const (
	colFClass  = "fclass"
	colWidth   = "width_t"
	colReclass = "reclass"
)

// ReadMapping parses and validates a mapping table in CSV form. Any
// violation is a fatal input error naming the offending column or value;
// no partial table is returned.
func ReadMapping(r io.Reader) (Mapping, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidMapping, err, "read mapping table header")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range []string{colFClass, colWidth, colReclass} {
		if _, ok := idx[col]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidMapping,
				"mapping table is missing required column %q (needs fclass, width_t, reclass)", col)
		}
	}

	var m Mapping
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidMapping, err, "read mapping table line %d", line)
		}

		fclass := strings.TrimSpace(rec[idx[colFClass]])
		class, err := ParseClass(strings.TrimSpace(rec[idx[colReclass]]))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidClass, err, "mapping table line %d (fclass %q)", line, fclass)
		}
		width, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[colWidth]]), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidWidth,
				"mapping table line %d (fclass %q): width_t %q is not numeric", line, fclass, rec[idx[colWidth]])
		}
		if width < 0 {
			return nil, errors.New(errors.ErrCodeInvalidWidth,
				"mapping table line %d (fclass %q): width_t must be non-negative, got %v", line, fclass, width)
		}

		m = append(m, MappingEntry{FClass: fclass, Width: width, Class: class})
	}
	return m, nil
}

// ReadMappingFile reads and validates a mapping table from a CSV file.
func ReadMappingFile(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "mapping table %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open mapping table %s", path)
	}
	defer f.Close()
	return ReadMapping(f)
}

// Apply left-joins a line layer against the mapping table on the feature
// class, setting the land-use class and buffer width on matched features.
// Unmatched features keep an empty class tag and are effectively dropped at
// the buffering stage, since they select into no target class.
func (m Mapping) Apply(lines geo.Layer) geo.Layer {
	byFClass := make(map[string]MappingEntry, len(m))
	for _, e := range m {
		byFClass[e.FClass] = e
	}

	out := geo.Layer{CRS: lines.CRS, Features: make([]geo.Feature, len(lines.Features))}
	for i, f := range lines.Features {
		if e, ok := byFClass[f.FClass]; ok {
			f.Class = string(e.Class)
			f.Width = e.Width
		}
		out.Features[i] = f
	}
	return out
}

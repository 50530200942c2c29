package io

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
)

// ReadTable parses a land-use table previously written by [WriteTable].
func ReadTable(r io.Reader) (landuse.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read table header")
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range []string{"reclass", "area", "frac"} {
		if _, ok := idx[col]; !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"land-use table is missing required column %q", col)
		}
	}

	var t landuse.Table
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read table line %d", line)
		}

		area, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["area"]]), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"table line %d: area %q is not numeric", line, rec[idx["area"]])
		}
		frac, err := strconv.ParseFloat(strings.TrimSpace(rec[idx["frac"]]), 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"table line %d: frac %q is not numeric", line, rec[idx["frac"]])
		}
		t = append(t, landuse.Row{Code: strings.TrimSpace(rec[idx["reclass"]]), Area: area, Frac: frac})
	}
	return t, nil
}

// ImportTable reads a land-use table from a CSV file at path.
func ImportTable(path string) (landuse.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "land-use table %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open land-use table %s", path)
	}
	defer f.Close()
	return ReadTable(f)
}

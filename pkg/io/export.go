// Package io writes the run artifacts: classified land-use maps,
// aggregated land-use tables, neighbourhood configurations and forcing
// files. Write* functions target an io.Writer; Export* wrappers create the
// file (and its parent directories) at a path.
package io

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urbanwb/uwbmprep/pkg/errors"
	"github.com/urbanwb/uwbmprep/pkg/forcing"
	"github.com/urbanwb/uwbmprep/pkg/geo"
	"github.com/urbanwb/uwbmprep/pkg/landuse"
	"github.com/urbanwb/uwbmprep/pkg/uwbm"
)

// WriteTable writes an aggregated land-use table as CSV with the model's
// reclass, area and frac columns.
func WriteTable(t landuse.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"reclass", "area", "frac"}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write table header")
	}
	for _, r := range t {
		rec := []string{
			r.Code,
			strconv.FormatFloat(r.Area, 'f', -1, 64),
			strconv.FormatFloat(r.Frac, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write table row %s", r.Code)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "flush table")
	}
	return nil
}

// ExportTable writes a land-use table to a CSV file at path.
func ExportTable(t landuse.Table, path string) error {
	return export(path, func(f io.Writer) error { return WriteTable(t, f) })
}

// ExportLayer writes a layer to a GeoJSON file at path.
func ExportLayer(l geo.Layer, path string) error {
	return export(path, func(f io.Writer) error { return geo.WriteLayer(l, f) })
}

// ExportConfig writes a neighbourhood configuration to an annotated TOML
// file at path.
func ExportConfig(c uwbm.Config, path string) error {
	return export(path, func(f io.Writer) error { return c.Encode(f) })
}

// ExportForcing writes a forcing table to a model-ready CSV file at path.
func ExportForcing(t forcing.Table, path string, decimals int) error {
	return export(path, func(f io.Writer) error { return t.WriteCSV(f, decimals) })
}

// export creates path (and its parent directories) and hands the file to
// the write function.
func export(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create directory %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}
	return f.Close()
}

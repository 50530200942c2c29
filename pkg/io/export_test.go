package io

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urbanwb/uwbmprep/pkg/landuse"
)

func TestWriteTable(t *testing.T) {
	table := landuse.Table{
		{Code: "cp", Area: 1000, Frac: 0.099},
		{Code: "ow", Area: 101.01, Frac: 0.01},
		{Code: "tot_area", Area: 10101.01, Frac: 1},
	}

	var buf bytes.Buffer
	if err := WriteTable(table, &buf); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "reclass,area,frac" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "cp,1000,0.099" {
		t.Errorf("row = %q", lines[1])
	}
	if lines[3] != "tot_area,10101.01,1" {
		t.Errorf("total row = %q", lines[3])
	}
}

func TestExportTable_CreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "landuse", "table.csv")

	if err := ExportTable(landuse.Table{{Code: "tot_area", Area: 0, Frac: 1}}, path); err != nil {
		t.Fatalf("ExportTable: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(string(data), "reclass,area,frac") {
		t.Errorf("unexpected content %q", data)
	}
}

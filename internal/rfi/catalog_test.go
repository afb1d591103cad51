package rfi

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDataFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()

	// Deliberately written out of timestamp order.
	writeDataFile(t, dir, "MRT_20190424_0718H000_1.TXT", "325000000,-95\n")
	writeDataFile(t, dir, "MRT_20190424_0648H000_1.TXT", "325000000,-95\n")
	writeDataFile(t, dir, "MRT_20190424_0703V120_0.TXT", "1000000,-95\n")

	// Must all be skipped: raw capture, unrelated files, subdirectory.
	writeDataFile(t, dir, "MRT_20190424_0648H000_1.CSV", "raw capture\n")
	writeDataFile(t, dir, "README.TXT", "not a measurement\n")
	writeDataFile(t, dir, "calibration.csv", "1,2\n")
	if err := os.Mkdir(filepath.Join(dir, "archive"), 0o755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	catalog, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(catalog) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(catalog))
	}

	wantOrder := []string{
		"MRT_20190424_0648H000_1.TXT",
		"MRT_20190424_0703V120_0.TXT",
		"MRT_20190424_0718H000_1.TXT",
	}
	for i, want := range wantOrder {
		if got := catalog[i].Name(); got != want {
			t.Errorf("Record %d: expected %s, got %s", i, want, got)
		}
	}

	for i, record := range catalog {
		if record.Path == "" {
			t.Errorf("Record %d has empty path", i)
		}
		if _, err := os.Stat(record.Path); err != nil {
			t.Errorf("Record %d path %s not readable: %v", i, record.Path, err)
		}
	}
}

func TestScan_EmptyDirectory(t *testing.T) {
	catalog, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(catalog) != 0 {
		t.Errorf("Expected empty catalog, got %d records", len(catalog))
	}
}

func TestScan_MissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Scan of missing directory succeeded, expected error")
	}
}

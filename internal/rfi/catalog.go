package rfi

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Catalog is the set of measurement files found in a data directory,
// ordered by ascending timestamp.
type Catalog []FileRecord

// Scan lists a data directory and decodes every measurement file name in
// it. Entries that are not .TXT files or whose names do not follow the
// naming convention are skipped; they are not measurement files. The
// returned catalog is sorted by timestamp, ties broken by name so the
// order is stable across runs.
func Scan(dir string) (Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning data directory: %w", err)
	}

	catalog := make(Catalog, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), "."+MeasurementExt) {
			continue
		}

		record, err := Decode(name)
		if err != nil {
			continue
		}

		record.Path = filepath.Join(dir, name)
		catalog = append(catalog, record)
	}

	slices.SortStableFunc(catalog, func(a, b FileRecord) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.Name(), b.Name())
	})

	return catalog, nil
}

package rfi

import (
	"errors"
	"testing"
	"time"
)

// syntheticCatalog builds a catalog with one file per cadence slot between
// first and last inclusive, for the given configuration.
func syntheticCatalog(first, last time.Time, pol Polarisation, az Azimuth, band Band) Catalog {
	var catalog Catalog
	for ts := first; !ts.After(last); ts = ts.Add(DefaultCadence) {
		catalog = append(catalog, FileRecord{
			Site:         DefaultSite,
			Timestamp:    ts,
			Polarisation: pol,
			Azimuth:      az,
			Band:         band,
		})
	}
	return catalog
}

func TestSelect_ReconcilesRange(t *testing.T) {
	// Files exist from 06:48 on 24 April through 06:18 on 25 April, the
	// request covers a far wider window. The reconciled range must snap to
	// the available files.
	first := time.Date(2019, time.April, 24, 6, 48, 0, 0, time.UTC)
	last := time.Date(2019, time.April, 25, 6, 18, 0, 0, time.UTC)
	catalog := syntheticCatalog(first, last, Horizontal, Azimuth0, Band1)

	// Files for other configurations must not leak into the selection.
	catalog = append(catalog, syntheticCatalog(first, last, Vertical, Azimuth0, Band1)...)
	catalog = append(catalog, syntheticCatalog(first, last, Horizontal, Azimuth120, Band1)...)
	catalog = append(catalog, syntheticCatalog(first, last, Horizontal, Azimuth0, Band2)...)

	window := Window{
		Start:        time.Date(2019, time.April, 15, 7, 0, 0, 0, time.UTC),
		End:          time.Date(2019, time.April, 30, 22, 45, 0, 0, time.UTC),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	}

	selection, err := Select(catalog, window)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if !selection.ActualStart.Equal(first) {
		t.Errorf("Expected actual start %s, got %s", first, selection.ActualStart)
	}
	if !selection.ActualEnd.Equal(last) {
		t.Errorf("Expected actual end %s, got %s", last, selection.ActualEnd)
	}
	if len(selection.Files) != 95 {
		t.Errorf("Expected 95 matched files, got %d", len(selection.Files))
	}
	if got := selection.ExpectedCount(DefaultCadence); got != 95 {
		t.Errorf("Expected count 95, got %d", got)
	}

	// Bounds must be exact timestamps of files in the matched set, inside
	// the requested window.
	if selection.ActualStart.Before(window.Start) {
		t.Error("Actual start precedes the requested window")
	}
	if selection.ActualEnd.After(window.End) {
		t.Error("Actual end exceeds the requested window")
	}
	for i := 1; i < len(selection.Files); i++ {
		if selection.Files[i].Timestamp.Before(selection.Files[i-1].Timestamp) {
			t.Fatalf("Matched files are not in ascending timestamp order at index %d", i)
		}
	}
}

func TestSelect_Monotonicity(t *testing.T) {
	first := time.Date(2019, time.April, 24, 0, 0, 0, 0, time.UTC)
	last := time.Date(2019, time.April, 26, 23, 45, 0, 0, time.UTC)
	catalog := syntheticCatalog(first, last, Vertical, Azimuth120, Band0)

	inner := Window{
		Start:        time.Date(2019, time.April, 25, 6, 0, 0, 0, time.UTC),
		End:          time.Date(2019, time.April, 25, 18, 0, 0, 0, time.UTC),
		Polarisation: Vertical,
		Azimuth:      Azimuth120,
		Band:         Band0,
	}
	outer := inner
	outer.Start = first
	outer.End = last

	innerSel, err := Select(catalog, inner)
	if err != nil {
		t.Fatalf("Select(inner) failed: %v", err)
	}
	outerSel, err := Select(catalog, outer)
	if err != nil {
		t.Fatalf("Select(outer) failed: %v", err)
	}

	if len(innerSel.Files) >= len(outerSel.Files) {
		t.Fatalf("Inner window matched %d files, outer only %d", len(innerSel.Files), len(outerSel.Files))
	}

	outerNames := make(map[string]struct{}, len(outerSel.Files))
	for _, record := range outerSel.Files {
		outerNames[record.Name()] = struct{}{}
	}
	for _, record := range innerSel.Files {
		if _, ok := outerNames[record.Name()]; !ok {
			t.Errorf("File %s matched by inner window but not by outer", record.Name())
		}
	}
}

func TestSelect_NoMatch(t *testing.T) {
	first := time.Date(2019, time.April, 24, 6, 48, 0, 0, time.UTC)
	catalog := syntheticCatalog(first, first.Add(3*time.Hour), Horizontal, Azimuth0, Band1)

	tests := []struct {
		name   string
		window Window
	}{
		{
			"empty catalog window",
			Window{
				Start:        first.AddDate(0, 1, 0),
				End:          first.AddDate(0, 1, 1),
				Polarisation: Horizontal,
				Azimuth:      Azimuth0,
				Band:         Band1,
			},
		},
		{
			"wrong configuration",
			Window{
				Start:        first,
				End:          first.Add(3 * time.Hour),
				Polarisation: Vertical,
				Azimuth:      Azimuth0,
				Band:         Band1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Select(catalog, tt.window); !errors.Is(err, ErrNoMatch) {
				t.Errorf("Expected ErrNoMatch, got %v", err)
			}
		})
	}

	if _, err := Select(nil, tests[0].window); !errors.Is(err, ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch for empty catalog, got %v", err)
	}
}

func TestWindow_Validate(t *testing.T) {
	start := time.Date(2019, time.April, 24, 0, 0, 0, 0, time.UTC)

	valid := Window{Start: start, End: start.Add(time.Hour), Polarisation: Horizontal, Azimuth: Azimuth240, Band: Band2}
	if err := valid.Validate(); err != nil {
		t.Errorf("Valid window rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Window)
	}{
		{"end before start", func(w *Window) { w.End = w.Start.Add(-time.Minute) }},
		{"zero start", func(w *Window) { w.Start = time.Time{} }},
		{"bad polarisation", func(w *Window) { w.Polarisation = "X" }},
		{"bad azimuth", func(w *Window) { w.Azimuth = 90 }},
		{"bad band", func(w *Window) { w.Band = 9 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid
			tt.mutate(&w)
			if err := w.Validate(); err == nil {
				t.Error("Invalid window accepted")
			}
		})
	}
}

func TestDayWindow(t *testing.T) {
	date := time.Date(2019, time.March, 7, 13, 22, 11, 0, time.UTC)
	w := DayWindow(date, Vertical, Azimuth240, Band1)

	if want := time.Date(2019, time.March, 7, 0, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("Expected start %s, got %s", want, w.Start)
	}
	if want := time.Date(2019, time.March, 7, 23, 59, 0, 0, time.UTC); !w.End.Equal(want) {
		t.Errorf("Expected end %s, got %s", want, w.End)
	}

	// A full day of files at the default cadence fills every expected slot.
	catalog := syntheticCatalog(w.Start, time.Date(2019, time.March, 7, 23, 45, 0, 0, time.UTC), Vertical, Azimuth240, Band1)
	selection, err := Select(catalog, w)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if got := selection.Completeness(len(selection.Files), DefaultCadence); got != 1.0 {
		t.Errorf("Expected completeness 1.0 for a gap-free day, got %f", got)
	}
}

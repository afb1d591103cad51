package rfi

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Pipeline tests write files with the analyser's real row count since the
// loader rejects anything else.
const testBins = measurementBins

// populateDataDir writes one file per cadence slot between first and last,
// with the given mean power except for the timestamps listed in flagged,
// which get noise-floor data.
func populateDataDir(t *testing.T, dir string, first, last time.Time, flagged map[time.Time]bool) {
	t.Helper()
	for ts := first; !ts.After(last); ts = ts.Add(DefaultCadence) {
		power := -95.0
		if flagged[ts] {
			power = NoiseFloor
		}
		record := FileRecord{
			Site:         DefaultSite,
			Timestamp:    ts,
			Polarisation: Horizontal,
			Azimuth:      Azimuth0,
			Band:         Band1,
		}
		writeDataFile(t, dir, record.Name(), measurementText(testBins, power))
	}
}

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2019, time.April, 24, 6, 48, 0, 0, time.UTC)
	last := time.Date(2019, time.April, 25, 6, 18, 0, 0, time.UTC)

	flagged := map[time.Time]bool{
		time.Date(2019, time.April, 24, 8, 18, 0, 0, time.UTC): true,
		time.Date(2019, time.April, 24, 8, 33, 0, 0, time.UTC): true,
	}
	populateDataDir(t, dir, first, last, flagged)

	catalog, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	pipeline := NewPipeline(WithWorkers(4))
	result, err := pipeline.Run(context.Background(), catalog, Window{
		Start:        time.Date(2019, time.April, 15, 7, 0, 0, 0, time.UTC),
		End:          time.Date(2019, time.April, 30, 22, 45, 0, 0, time.UTC),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := len(result.Selection.Files); got != 95 {
		t.Errorf("Expected 95 matched files, got %d", got)
	}
	if got := len(result.Flagged); got != 2 {
		t.Errorf("Expected 2 flagged files, got %d", got)
	}
	if got := len(result.Survivors); got != 93 {
		t.Errorf("Expected 93 survivors, got %d", got)
	}
	if got := len(result.Unreadable); got != 0 {
		t.Errorf("Expected no unreadable files, got %d", got)
	}

	for ts := range flagged {
		found := false
		for _, f := range result.Flagged {
			if f.Record.Timestamp.Equal(ts) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("File at %s was not flagged", ts)
		}
	}

	for i := 1; i < len(result.Survivors); i++ {
		if result.Survivors[i].Record.Timestamp.Before(result.Survivors[i-1].Record.Timestamp) {
			t.Fatalf("Survivors not in ascending timestamp order at index %d", i)
		}
	}

	report := result.Report(pipeline.Cadence())
	if report.MatchedFiles != 95 || report.ValidFiles != 93 || report.ExpectedFiles != 95 {
		t.Errorf("Report counts wrong: %+v", report)
	}
	if want := 93.0 / 95.0; math.Abs(report.Completeness-want) > 1e-12 {
		t.Errorf("Expected completeness %f, got %f", want, report.Completeness)
	}
	if report.FirstFile != "MRT_20190424_0648H000_1.TXT" {
		t.Errorf("Unexpected first file %s", report.FirstFile)
	}
	if report.LastFile != "MRT_20190425_0618H000_1.TXT" {
		t.Errorf("Unexpected last file %s", report.LastFile)
	}

	// The survivors feed straight into the aggregator.
	avg, err := Average(result.Survivors)
	if err != nil {
		t.Fatalf("Average failed: %v", err)
	}
	if len(avg.Powers) != testBins {
		t.Errorf("Expected %d bins, got %d", testBins, len(avg.Powers))
	}
	for i, p := range avg.Powers {
		if math.Abs(p-(-95.0)) > 1e-9 {
			t.Errorf("Bin %d: expected mean -95, got %f", i, p)
		}
	}
}

func TestPipeline_UnreadableFilesAreRecorded(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2019, time.April, 24, 6, 0, 0, 0, time.UTC)
	populateDataDir(t, dir, first, first.Add(time.Hour), nil)

	corrupt := FileRecord{
		Site:         DefaultSite,
		Timestamp:    first.Add(30 * time.Minute),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	}
	if err := os.WriteFile(filepath.Join(dir, corrupt.Name()), []byte("no,numbers,here\n"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	catalog, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result, err := NewPipeline().Run(context.Background(), catalog, Window{
		Start:        first,
		End:          first.Add(2 * time.Hour),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Unreadable) != 1 {
		t.Fatalf("Expected 1 unreadable file, got %d", len(result.Unreadable))
	}
	if got := result.Unreadable[0].Record.Name(); got != corrupt.Name() {
		t.Errorf("Expected unreadable file %s, got %s", corrupt.Name(), got)
	}

	var loadErr *LoadError
	if !errors.As(result.Unreadable[0].Err, &loadErr) {
		t.Errorf("Expected *LoadError, got %T", result.Unreadable[0].Err)
	}
}

func TestPipeline_TruncatedFileIsUnreadable(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2019, time.April, 24, 6, 0, 0, 0, time.UTC)
	populateDataDir(t, dir, first, first.Add(time.Hour), nil)

	// A partial write: half the band's rows, every one of them parseable.
	truncated := FileRecord{
		Site:         DefaultSite,
		Timestamp:    first.Add(37 * time.Minute),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	}
	writeDataFile(t, dir, truncated.Name(), measurementText(testBins/2, -95.0))

	catalog, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result, err := NewPipeline().Run(context.Background(), catalog, Window{
		Start:        first,
		End:          first.Add(2 * time.Hour),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Unreadable) != 1 {
		t.Fatalf("Expected 1 unreadable file, got %d", len(result.Unreadable))
	}
	if got := result.Unreadable[0].Record.Name(); got != truncated.Name() {
		t.Errorf("Expected unreadable file %s, got %s", truncated.Name(), got)
	}
	if len(result.Survivors) != 5 {
		t.Fatalf("Expected 5 survivors, got %d", len(result.Survivors))
	}

	// The survivor set stays aggregable: the broken file was dropped at
	// load time, it never reaches the shared-axis check.
	if _, err = Average(result.Survivors); err != nil {
		t.Errorf("Average failed: %v", err)
	}
}

func TestPipeline_AllFlagged(t *testing.T) {
	dir := t.TempDir()
	first := time.Date(2019, time.April, 24, 6, 0, 0, 0, time.UTC)
	last := first.Add(time.Hour)

	flagged := make(map[time.Time]bool)
	for ts := first; !ts.After(last); ts = ts.Add(DefaultCadence) {
		flagged[ts] = true
	}
	populateDataDir(t, dir, first, last, flagged)

	catalog, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	result, err := NewPipeline().Run(context.Background(), catalog, Window{
		Start:        first,
		End:          last,
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Survivors) != 0 {
		t.Fatalf("Expected no survivors, got %d", len(result.Survivors))
	}
	if len(result.Flagged) != 5 {
		t.Errorf("Expected 5 flagged files, got %d", len(result.Flagged))
	}

	// Aggregation of the empty survivor set is the terminal failure, after
	// the rejects have been reported.
	if desc := result.DescribeRejects(); desc == "" {
		t.Error("Expected a reject description")
	}
	if _, err = Average(result.Survivors); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("Expected ErrEmptyInput, got %v", err)
	}
}

func TestPipeline_NoMatch(t *testing.T) {
	catalog := Catalog{}
	_, err := NewPipeline().Run(context.Background(), catalog, Window{
		Start:        time.Date(2019, time.April, 24, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2019, time.April, 25, 0, 0, 0, 0, time.UTC),
		Polarisation: Horizontal,
		Azimuth:      Azimuth0,
		Band:         Band1,
	})
	if !errors.Is(err, ErrNoMatch) {
		t.Errorf("Expected ErrNoMatch, got %v", err)
	}
}

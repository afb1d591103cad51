package rfi

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoMatch is returned by Select when no file in the catalog satisfies
// the requested configuration and time window.
var ErrNoMatch = errors.New("no measurement files match the requested parameters and time window")

// Window is a request for measurements taken with one instrument
// configuration inside a datetime range.
type Window struct {
	Start        time.Time
	End          time.Time
	Polarisation Polarisation
	Azimuth      Azimuth
	Band         Band
}

// DayWindow builds the window covering a single calendar date,
// 00:00 through 23:59. This is the spectrogram request shape.
func DayWindow(date time.Time, pol Polarisation, az Azimuth, band Band) Window {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return Window{
		Start:        start,
		End:          start.Add(23*time.Hour + 59*time.Minute),
		Polarisation: pol,
		Azimuth:      az,
		Band:         band,
	}
}

// Validate rejects malformed requests before any directory scan happens.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.New("window start and end must be set")
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("window start %s is after end %s",
			w.Start.Format(time.DateTime), w.End.Format(time.DateTime))
	}
	if _, err := ParsePolarisation(string(w.Polarisation)); err != nil {
		return err
	}
	switch w.Azimuth {
	case Azimuth0, Azimuth120, Azimuth240:
	default:
		return fmt.Errorf("invalid azimuth %d: must be 0, 120 or 240", int(w.Azimuth))
	}
	if !w.Band.Valid() {
		return fmt.Errorf("invalid band %d: must be 0, 1 or 2", int(w.Band))
	}
	return nil
}

// Selection is the reconciliation of a requested window against the files
// that actually exist. ActualStart and ActualEnd are the timestamps of the
// first and last matching files, not the requested bounds.
type Selection struct {
	Window      Window
	ActualStart time.Time
	ActualEnd   time.Time
	Files       []FileRecord // ascending by timestamp
}

// Select filters the catalog down to the files matching the window's
// configuration whose timestamps fall inside [Start, End], and reconciles
// the requested range against them. Returns ErrNoMatch when the filtered
// set is empty.
func Select(catalog Catalog, w Window) (*Selection, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	var files []FileRecord
	for _, record := range catalog {
		if !record.Matches(w.Polarisation, w.Azimuth, w.Band) {
			continue
		}
		if record.Timestamp.Before(w.Start) || record.Timestamp.After(w.End) {
			continue
		}
		files = append(files, record)
	}

	if len(files) == 0 {
		return nil, ErrNoMatch
	}

	return &Selection{
		Window:      w,
		ActualStart: files[0].Timestamp,
		ActualEnd:   files[len(files)-1].Timestamp,
		Files:       files,
	}, nil
}

// Duration is the length of the reconciled range.
func (s *Selection) Duration() time.Duration {
	return s.ActualEnd.Sub(s.ActualStart)
}

// ExpectedCount estimates how many files the reconciled range should hold
// if the analyser wrote one file per cadence interval without gaps. Used
// only for completeness reporting, never for filtering.
func (s *Selection) ExpectedCount(cadence time.Duration) int {
	if cadence <= 0 {
		return len(s.Files)
	}
	return int(s.Duration()/cadence) + 1
}

// Completeness is the fraction of expected cadence slots that hold one of
// the given files (matched or surviving, depending on the caller). It is
// 1.0 for a gap-free range.
func (s *Selection) Completeness(count int, cadence time.Duration) float64 {
	expected := s.ExpectedCount(cadence)
	if expected == 0 {
		return 0
	}
	return float64(count) / float64(expected)
}

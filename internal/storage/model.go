package storage

import (
	"time"
)

// RunMode distinguishes what kind of aggregate a run produced.
type RunMode string

const (
	ModeAverage     RunMode = "average"
	ModeSpectrogram RunMode = "spectrogram"
)

// Run is the archived record of one analysis invocation: the request, the
// reconciled range and the file accounting.
type Run struct {
	ID        int64
	CreatedAt time.Time
	Mode      RunMode

	Site         string
	Polarisation string
	Azimuth      int
	Band         int

	RequestedStart time.Time
	RequestedEnd   time.Time
	ActualStart    time.Time
	ActualEnd      time.Time

	FlagThreshold   float64
	MatchedFiles    int
	ValidFiles      int
	FlaggedFiles    int
	UnreadableFiles int
}

package rfi

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"
)

// Survivor pairs a file with its loaded measurement after it passed the
// quality filter.
type Survivor struct {
	Record      FileRecord
	Measurement *Measurement
	MeanPower   float64 // dBm
}

// FlaggedFile is a file rejected by the quality filter.
type FlaggedFile struct {
	Record    FileRecord
	MeanPower float64 // dBm
}

// UnreadableFile is a file the catalog listed but that could not be read
// or parsed.
type UnreadableFile struct {
	Record FileRecord
	Err    error
}

// Result is the outcome of one pipeline run: the reconciled selection and
// the partition of its files into survivors, quality rejects and
// unreadables. Survivors keep the selection's ascending timestamp order.
type Result struct {
	Selection  *Selection
	Survivors  []Survivor
	Flagged    []FlaggedFile
	Unreadable []UnreadableFile
}

// WithLogger sets the logger for pipeline diagnostics.
func WithLogger(logger *slog.Logger) func(*Pipeline) {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithFlagThreshold overrides the amplifier malfunction threshold (dBm).
func WithFlagThreshold(threshold float64) func(*Pipeline) {
	return func(p *Pipeline) {
		p.threshold = threshold
	}
}

// WithCadence overrides the nominal interval between consecutive files,
// used for completeness reporting.
func WithCadence(cadence time.Duration) func(*Pipeline) {
	return func(p *Pipeline) {
		p.cadence = cadence
	}
}

// WithWorkers sets how many files are read concurrently.
func WithWorkers(n int) func(*Pipeline) {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// Pipeline runs the selection, loading and quality filtering stages over a
// catalog. It holds no state between runs.
type Pipeline struct {
	logger    *slog.Logger
	threshold float64
	cadence   time.Duration
	workers   int
}

// NewPipeline creates a pipeline with the site defaults and a discard
// logger.
func NewPipeline(options ...func(*Pipeline)) *Pipeline {
	p := Pipeline{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		threshold: DefaultFlagThreshold,
		cadence:   DefaultCadence,
		workers:   runtime.NumCPU(),
	}

	for _, option := range options {
		option(&p)
	}

	return &p
}

// Run selects the files matching the window, loads them and classifies
// each against the malfunction threshold. Per-file problems shrink the
// survivor set and are reported in the result; only an empty selection is
// terminal here. File reads happen concurrently, the final partition is
// rebuilt in timestamp order once all loads complete.
func (p *Pipeline) Run(ctx context.Context, catalog Catalog, w Window) (*Result, error) {
	selection, err := Select(catalog, w)
	if err != nil {
		return nil, err
	}

	p.logger.Info("selection reconciled",
		slog.Time("actualStart", selection.ActualStart),
		slog.Time("actualEnd", selection.ActualEnd),
		slog.Int("files", len(selection.Files)))

	type outcome struct {
		measurement *Measurement
		err         error
	}

	outcomes := make([]outcome, len(selection.Files))
	sem := make(chan struct{}, p.workers)

	var wg sync.WaitGroup
	for i, record := range selection.Files {
		wg.Add(1)
		go func() {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				outcomes[i] = outcome{err: ctx.Err()}
				return
			}

			m, err := LoadMeasurement(record.Path, record.Band.Params().Bins)
			outcomes[i] = outcome{measurement: m, err: err}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := Result{Selection: selection}
	for i, record := range selection.Files {
		if outcomes[i].err != nil {
			p.logger.Warn("skipping unreadable file",
				slog.String("file", record.Name()),
				slog.String("error", outcomes[i].err.Error()))

			result.Unreadable = append(result.Unreadable, UnreadableFile{Record: record, Err: outcomes[i].err})
			continue
		}

		verdict := Classify(outcomes[i].measurement, p.threshold)
		if verdict.Flagged {
			p.logger.Warn("flagging file, mean power at spectrum floor",
				slog.String("file", record.Name()),
				slog.Float64("meanPower", verdict.MeanPower),
				slog.Float64("threshold", p.threshold))

			result.Flagged = append(result.Flagged, FlaggedFile{Record: record, MeanPower: verdict.MeanPower})
			continue
		}

		result.Survivors = append(result.Survivors, Survivor{
			Record:      record,
			Measurement: outcomes[i].measurement,
			MeanPower:   verdict.MeanPower,
		})
	}

	p.logger.Info("quality filtering done",
		slog.Int("survivors", len(result.Survivors)),
		slog.Int("flagged", len(result.Flagged)),
		slog.Int("unreadable", len(result.Unreadable)))

	return &result, nil
}

// Cadence returns the nominal file interval the pipeline reports
// completeness against.
func (p *Pipeline) Cadence() time.Duration {
	return p.cadence
}

// Threshold returns the malfunction threshold in dBm.
func (p *Pipeline) Threshold() float64 {
	return p.threshold
}

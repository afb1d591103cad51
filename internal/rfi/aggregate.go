package rfi

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptyInput is returned when every matched file was flagged or
// unreadable, leaving nothing to aggregate.
var ErrEmptyInput = errors.New("no valid measurements left to aggregate")

// AveragePower is the time-averaged spectrum of a survivor set: mean power
// per frequency bin across all files.
type AveragePower struct {
	Frequencies []float64 // Hz, the shared axis
	Powers      []float64 // dBm, one mean per bin
}

// Average combines survivors into a single averaged spectrum. All survivor
// measurements must share the frequency axis of the first one; the fixed
// band parameters guarantee this for intact files, so a mismatch is a data
// defect worth failing on.
func Average(survivors []Survivor) (*AveragePower, error) {
	if len(survivors) == 0 {
		return nil, ErrEmptyInput
	}

	axis := survivors[0].Measurement.Frequencies
	if err := checkAxis(survivors, len(axis)); err != nil {
		return nil, err
	}

	avg := AveragePower{
		Frequencies: append([]float64(nil), axis...),
		Powers:      make([]float64, len(axis)),
	}

	column := make([]float64, len(survivors))
	for bin := range axis {
		for i, s := range survivors {
			column[i] = s.Measurement.Powers[bin]
		}
		avg.Powers[bin] = stat.Mean(column, nil)
	}

	return &avg, nil
}

// SubtractGain removes a flat amplifier gain (dB) from every bin.
func (a *AveragePower) SubtractGain(gain float64) {
	subtractGain(a.Powers, gain)
}

// SubtractGainTable removes a per-frequency amplifier gain curve, as
// measured experimentally for each band and stored alongside the data.
func (a *AveragePower) SubtractGainTable(table *Measurement) error {
	if len(table.Powers) != len(a.Powers) {
		return fmt.Errorf("gain table has %d rows, spectrum has %d bins", len(table.Powers), len(a.Powers))
	}
	for i, g := range table.Powers {
		a.Powers[i] -= g
	}
	return nil
}

// SpectrogramColumn is one file's spectrum stamped with its capture time.
type SpectrogramColumn struct {
	Timestamp time.Time
	Powers    []float64 // dBm, aligned with the spectrogram's axis
}

// Spectrogram is the time-ordered stack of survivor spectra over a shared
// frequency axis, ready for 2-D time vs frequency rendering. Missing or
// rejected files simply have no column; gaps are the renderer's concern
// and are never interpolated here.
type Spectrogram struct {
	Frequencies []float64 // Hz, the shared axis
	Columns     []SpectrogramColumn
}

// NewSpectrogram stacks survivors (already ascending by timestamp) against
// the shared frequency axis.
func NewSpectrogram(survivors []Survivor) (*Spectrogram, error) {
	if len(survivors) == 0 {
		return nil, ErrEmptyInput
	}

	axis := survivors[0].Measurement.Frequencies
	if err := checkAxis(survivors, len(axis)); err != nil {
		return nil, err
	}

	sp := Spectrogram{
		Frequencies: append([]float64(nil), axis...),
		Columns:     make([]SpectrogramColumn, len(survivors)),
	}
	for i, s := range survivors {
		sp.Columns[i] = SpectrogramColumn{
			Timestamp: s.Record.Timestamp,
			Powers:    append([]float64(nil), s.Measurement.Powers...),
		}
	}

	return &sp, nil
}

// SubtractGain removes a flat amplifier gain (dB) from every column.
func (s *Spectrogram) SubtractGain(gain float64) {
	for _, c := range s.Columns {
		subtractGain(c.Powers, gain)
	}
}

// PowerBounds returns the minimum and maximum power over all columns,
// used to scale the color map when rendering.
func (s *Spectrogram) PowerBounds() (min, max float64) {
	min, max = math.MaxFloat64, -math.MaxFloat64
	for _, c := range s.Columns {
		for _, p := range c.Powers {
			min = math.Min(min, p)
			max = math.Max(max, p)
		}
	}
	return min, max
}

func subtractGain(powers []float64, gain float64) {
	for i := range powers {
		powers[i] -= gain
	}
}

func checkAxis(survivors []Survivor, bins int) error {
	for _, s := range survivors {
		if len(s.Measurement.Frequencies) != bins || len(s.Measurement.Powers) != bins {
			return fmt.Errorf("file %s has %d frequency bins, expected %d",
				s.Record.Name(), len(s.Measurement.Powers), bins)
		}
	}
	return nil
}

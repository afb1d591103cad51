package rfi

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Measurement is the decoded payload of one file: power in dBm measured at
// each frequency of the band's axis, ascending by frequency.
type Measurement struct {
	Frequencies []float64 // Hz
	Powers      []float64 // dBm
}

// LoadError reports a file that could not be read or parsed. The pipeline
// records these and carries on; a broken file never aborts a run.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadMeasurement reads a two-column comma-separated frequency,power table
// holding exactly bins rows. The analyser writes a fixed row count per
// band, so a short or long file is a partial or corrupt write and fails
// the load rather than reaching the quality filter.
func LoadMeasurement(path string, bins int) (*Measurement, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	var m Measurement
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fs, ps, ok := strings.Cut(text, ",")
		if !ok {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("line %d: expected two comma-separated columns", line)}
		}

		freq, err := strconv.ParseFloat(strings.TrimSpace(fs), 64)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("line %d: bad frequency: %w", line, err)}
		}

		power, err := strconv.ParseFloat(strings.TrimSpace(ps), 64)
		if err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("line %d: bad power: %w", line, err)}
		}

		m.Frequencies = append(m.Frequencies, freq)
		m.Powers = append(m.Powers, power)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if len(m.Powers) == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("file holds no data rows")}
	}
	if len(m.Powers) != bins {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("file holds %d rows, expected %d", len(m.Powers), bins)}
	}

	return &m, nil
}

// MeanPower is the arithmetic mean of all power values in the measurement.
func (m *Measurement) MeanPower() float64 {
	return stat.Mean(m.Powers, nil)
}

// Verdict is the quality classification of one measurement.
type Verdict struct {
	Flagged   bool    // amplifier stage likely inactive during capture
	MeanPower float64 // dBm
}

// Classify decides whether a measurement was taken with a malfunctioning
// amplifier stage. The analyser's noise floor sits near -120 dBm; with the
// amplifier boosting the signal by 20 or 40 dB the mean power sits well
// above it, so a mean at or below the threshold means the amplifier was
// not contributing. The cutoff is the same for every band: amplifier
// presence, not absolute gain, is what is being detected.
func Classify(m *Measurement, threshold float64) Verdict {
	mean := m.MeanPower()
	return Verdict{
		Flagged:   mean <= threshold,
		MeanPower: mean,
	}
}

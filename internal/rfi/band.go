package rfi

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Polarisation is the antenna orientation a measurement was taken with.
type Polarisation string

const (
	Horizontal Polarisation = "H"
	Vertical   Polarisation = "V"
)

// ParsePolarisation validates a polarisation label as it appears in file
// names and on the command line.
func ParsePolarisation(s string) (Polarisation, error) {
	switch Polarisation(s) {
	case Horizontal, Vertical:
		return Polarisation(s), nil
	}
	return "", fmt.Errorf("invalid polarisation %q: must be H or V", s)
}

// Describe returns the long form used in reports.
func (p Polarisation) Describe() string {
	if p == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Azimuth is the horizontal pointing angle of the antenna in degrees.
// Measurements were only ever taken along three fixed directions.
type Azimuth int

const (
	Azimuth0   Azimuth = 0
	Azimuth120 Azimuth = 120
	Azimuth240 Azimuth = 240
)

// ParseAzimuth validates an azimuth label ("0", "000", "120", "240").
func ParseAzimuth(s string) (Azimuth, error) {
	switch s {
	case "0", "000":
		return Azimuth0, nil
	case "120":
		return Azimuth120, nil
	case "240":
		return Azimuth240, nil
	}
	return 0, fmt.Errorf("invalid azimuth %q: must be 0, 120 or 240", s)
}

func (a Azimuth) String() string {
	return fmt.Sprintf("%03d", int(a))
}

// Band identifies one of the three fixed frequency windows the spectrum
// analyser was configured to scan.
type Band int

const (
	Band0 Band = iota // 1 MHz -- 1 GHz
	Band1             // 325 MHz -- 329 MHz
	Band2             // 327.275 MHz -- 327.525 MHz
)

// ParseBand validates a band label ("0", "1" or "2").
func ParseBand(s string) (Band, error) {
	switch s {
	case "0":
		return Band0, nil
	case "1":
		return Band1, nil
	case "2":
		return Band2, nil
	}
	return 0, fmt.Errorf("invalid band %q: must be 0, 1 or 2", s)
}

func (b Band) String() string {
	return fmt.Sprintf("%d", int(b))
}

// BandParams holds the fixed instrument configuration for a band. The same
// table serves the filename codec, the quality filter and the renderers, so
// it lives here rather than being scattered across conditionals.
type BandParams struct {
	LowFrequency  float64 // Hz
	HighFrequency float64 // Hz
	Bandwidth     float64 // Hz
	AmplifierGain float64 // dB contributed by the amplifier stage
	Bins          int     // number of frequency bins per measurement file
}

// Each TXT file carries the same number of rows regardless of band; the
// analyser always swept 461 frequency points.
const measurementBins = 461

var bandParams = [...]BandParams{
	Band0: {LowFrequency: 1e6, HighFrequency: 1e9, Bandwidth: 999e6, AmplifierGain: 20, Bins: measurementBins},
	Band1: {LowFrequency: 325e6, HighFrequency: 329e6, Bandwidth: 4e6, AmplifierGain: 40, Bins: measurementBins},
	Band2: {LowFrequency: 327.275e6, HighFrequency: 327.525e6, Bandwidth: 250e3, AmplifierGain: 40, Bins: measurementBins},
}

// Valid reports whether b is one of the three configured bands.
func (b Band) Valid() bool {
	return b >= Band0 && b <= Band2
}

// Params returns the instrument configuration for the band.
func (b Band) Params() BandParams {
	return bandParams[b]
}

// Describe returns the frequency range summary used in reports, e.g.
// "325 MHz -- 329 MHz (bandwidth: 4 MHz)".
func (b Band) Describe() string {
	p := b.Params()
	return fmt.Sprintf("%s -- %s (bandwidth: %s)",
		formatHz(p.LowFrequency), formatHz(p.HighFrequency), formatHz(p.Bandwidth))
}

func formatHz(hz float64) string {
	fract, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%g %sHz", fract, suffix)
}

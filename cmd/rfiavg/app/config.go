package app

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/aragorn2101/Bras-dEau-RFI/internal/rfi"
)

// Accepted datetime layouts for -start and -end. A bare date means
// midnight for the start bound and 23:59 for the end bound.
var stampLayouts = []string{"20060102-1504", "20060102 1504"}

const dateLayout = "20060102"

type Config struct {
	DataDir      string
	Start        time.Time
	End          time.Time
	Polarisation rfi.Polarisation
	Azimuth      rfi.Azimuth
	Band         rfi.Band

	OutputFile   string
	DBPath       string
	SettingsPath string

	List    bool
	FromRun int64

	Threshold        *float64
	GainTable        string
	SubtractFlatGain bool

	AssumeYes bool
	Verbose   bool

	Settings rfi.Settings
}

func NewConfigFromCLI() (*Config, error) {
	c := Config{Settings: rfi.DefaultSettings()}

	var start, end, pol, az, band string
	var threshold float64
	flag.StringVar(&start, "start", "", "Start of the time window, YYYYMMDD-HHmm (or YYYYMMDD for midnight)")
	flag.StringVar(&end, "end", "", "End of the time window, YYYYMMDD-HHmm (or YYYYMMDD for 23:59)")
	flag.StringVar(&pol, "pol", "", "Polarisation: H or V")
	flag.StringVar(&az, "az", "", "Antenna azimuth in degrees: 0, 120 or 240")
	flag.StringVar(&band, "band", "", "Frequency band: 0, 1 or 2")
	flag.StringVar(&c.DataDir, "dir", "", "Directory holding the .TXT measurement files")
	flag.StringVar(&c.OutputFile, "o", "", "Output CSV file (default derived from the request)")
	flag.StringVar(&c.DBPath, "db", "", "Optional SQLite database to archive the run into")
	flag.BoolVar(&c.List, "list", false, "List the runs archived in the database and exit")
	flag.Int64Var(&c.FromRun, "from-run", 0, "Write the averaged spectrum archived under this run ID instead of reprocessing")
	flag.StringVar(&c.SettingsPath, "c", "", "Optional YAML settings file with site defaults")
	flag.Float64Var(&threshold, "threshold", rfi.DefaultFlagThreshold, "Amplifier malfunction threshold in dBm")
	flag.StringVar(&c.GainTable, "gain-table", "", "Per-frequency amplifier gain CSV to subtract from the average")
	flag.BoolVar(&c.SubtractFlatGain, "subtract-gain", false, "Subtract the band's flat amplifier gain from the average")
	flag.BoolVar(&c.AssumeYes, "y", false, "Skip the confirmation prompt")
	flag.BoolVar(&c.Verbose, "verbose", false, "Enable more verbose output")
	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			c.Threshold = &threshold
		}
	})

	if c.SettingsPath != "" {
		settings, err := rfi.LoadSettings(c.SettingsPath)
		if err != nil {
			return nil, err
		}
		c.Settings = settings
		if c.DataDir == "" {
			c.DataDir = settings.DataDir
		}
	}

	// Archive modes only need the database; the request flags describe a
	// reprocessing run and are not parsed.
	if c.List || c.FromRun > 0 {
		switch {
		case c.DBPath == "":
			flag.Usage()
			return nil, errors.New("database path is required")
		case c.FromRun > 0 && c.OutputFile == "":
			flag.Usage()
			return nil, errors.New("output file is required")
		}
		return &c, nil
	}

	var err error
	switch {
	case start == "":
		err = errors.New("start datetime is required")
	case end == "":
		err = errors.New("end datetime is required")
	case pol == "":
		err = errors.New("polarisation is required")
	case az == "":
		err = errors.New("azimuth is required")
	case band == "":
		err = errors.New("band is required")
	case c.DataDir == "":
		err = errors.New("data directory is required")
	}
	if err != nil {
		flag.Usage()
		return nil, err
	}

	if c.Start, err = parseStamp(start, false); err != nil {
		return nil, fmt.Errorf("invalid start datetime: %w", err)
	}
	if c.End, err = parseStamp(end, true); err != nil {
		return nil, fmt.Errorf("invalid end datetime: %w", err)
	}
	if c.Polarisation, err = rfi.ParsePolarisation(pol); err != nil {
		return nil, err
	}
	if c.Azimuth, err = rfi.ParseAzimuth(az); err != nil {
		return nil, err
	}
	if c.Band, err = rfi.ParseBand(band); err != nil {
		return nil, err
	}

	if c.OutputFile == "" {
		c.OutputFile = fmt.Sprintf("%s-%s_%s%s_%s.csv",
			c.Start.Format("20060102_1504"), c.End.Format("20060102_1504"),
			c.Polarisation, c.Azimuth, c.Band)
	}

	return &c, nil
}

// Window builds the selection request from the parsed flags.
func (c *Config) Window() rfi.Window {
	return rfi.Window{
		Start:        c.Start,
		End:          c.End,
		Polarisation: c.Polarisation,
		Azimuth:      c.Azimuth,
		Band:         c.Band,
	}
}

// FlagThreshold resolves the malfunction threshold: explicit flag wins,
// then the settings file, then the site default.
func (c *Config) FlagThreshold() float64 {
	if c.Threshold != nil {
		return *c.Threshold
	}
	return c.Settings.Threshold()
}

func parseStamp(s string, endOfDay bool) (time.Time, error) {
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q does not match YYYYMMDD-HHmm or YYYYMMDD", s)
	}
	if endOfDay {
		t = t.Add(23*time.Hour + 59*time.Minute)
	}
	return t, nil
}

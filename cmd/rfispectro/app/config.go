package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/aragorn2101/Bras-dEau-RFI/internal/rfi"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

const dateLayout = "20060102"

type Config struct {
	DataDir      string
	Date         time.Time
	Polarisation rfi.Polarisation
	Azimuth      rfi.Azimuth
	Band         rfi.Band

	OutputFile string
	Format     ImageFormat
	Theme      ColorTheme

	DBPath       string
	SettingsPath string

	Threshold        *float64
	SubtractFlatGain bool

	AssumeYes bool
	Verbose   bool

	Settings rfi.Settings
}

func NewConfigFromCLI() (*Config, error) {
	c := Config{
		Format:   ImagePNG,
		Settings: rfi.DefaultSettings(),
	}

	var date, pol, az, band, imageFormat, theme string
	var threshold float64
	flag.StringVar(&date, "date", "", "Date to plot, YYYYMMDD (files from 00:00 through 23:59 are used)")
	flag.StringVar(&pol, "pol", "", "Polarisation: H or V")
	flag.StringVar(&az, "az", "", "Antenna azimuth in degrees: 0, 120 or 240")
	flag.StringVar(&band, "band", "", "Frequency band: 0, 1 or 2")
	flag.StringVar(&c.DataDir, "dir", "", "Directory holding the .TXT measurement files")
	flag.StringVar(&c.OutputFile, "o", "", "Path to the output image, without extension")
	flag.StringVar(&imageFormat, "f", ImagePNG, "Output image format. [png, jpeg]")
	flag.StringVar(&theme, "theme", string(JetTheme), "Color theme. [jet, grayscale, thermal]")
	flag.StringVar(&c.DBPath, "db", "", "Optional SQLite database to archive the run into")
	flag.StringVar(&c.SettingsPath, "c", "", "Optional YAML settings file with site defaults")
	flag.Float64Var(&threshold, "threshold", rfi.DefaultFlagThreshold, "Amplifier malfunction threshold in dBm")
	flag.BoolVar(&c.SubtractFlatGain, "subtract-gain", false, "Subtract the band's flat amplifier gain before rendering")
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

	imageFormat = strings.ToLower(imageFormat)

	var err error
	switch {
	case date == "":
		err = errors.New("date is required")
	case pol == "":
		err = errors.New("polarisation is required")
	case az == "":
		err = errors.New("azimuth is required")
	case band == "":
		err = errors.New("band is required")
	case c.DataDir == "":
		err = errors.New("data directory is required")
	case c.OutputFile == "":
		err = errors.New("output file is required")
	default:
		if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
			err = fmt.Errorf("invalid image format: %s", imageFormat)
		}
	}
	if err != nil {
		flag.Usage()
		return nil, err
	}

	if c.Date, err = time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: must match YYYYMMDD", date)
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
	if c.Theme, err = ParseColorTheme(theme); err != nil {
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	c.OutputFile = fmt.Sprintf("%s.%s", c.OutputFile, c.Format)
	return &c, nil
}

// Window builds the full-day selection request for the configured date.
func (c *Config) Window() rfi.Window {
	return rfi.DayWindow(c.Date, c.Polarisation, c.Azimuth, c.Band)
}

// FlagThreshold resolves the malfunction threshold: explicit flag wins,
// then the settings file, then the site default.
func (c *Config) FlagThreshold() float64 {
	if c.Threshold != nil {
		return *c.Threshold
	}
	return c.Settings.Threshold()
}

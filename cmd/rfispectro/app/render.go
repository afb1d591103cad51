package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/aragorn2101/Bras-dEau-RFI/internal/rfi"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	tickMarkLength = 5

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 40
	defaultRightBorder  = 40

	defaultCellWidth  = 8
	defaultTimeFormat = "15:04"
	defaultLabelEvery = 2 * time.Hour
)

// Columns for cadence slots with no valid file are painted black, so gaps
// in the day stay visible instead of being interpolated away.
var noDataColor = color.Black

// BorderConfig defines the sizes of white space around the spectrogram
type BorderConfig struct {
	Top    int // Space for the title line
	Left   int // Space for the frequency scale
	Bottom int // Space for the time scale
	Right  int // Right padding
}

// RenderConfig holds the options for spectrogram visualization
type RenderConfig struct {
	TimeFormat string         // Format string for time axis labels
	Location   *time.Location // Timezone for time display
	FontSize   float64        // Font size in points
	ColorTheme ColorTheme     // Color scheme for power values
	CellWidth  int            // Horizontal pixels per cadence slot
	Borders    BorderConfig
}

// SpectrogramRenderer draws a time vs frequency power map: time runs along
// the x axis in cadence slots, frequency up the y axis, one pixel row per
// frequency bin.
type SpectrogramRenderer struct {
	config RenderConfig
}

// NewSpectrogramRenderer creates a renderer, filling zero config values
// with defaults.
func NewSpectrogramRenderer(config RenderConfig) *SpectrogramRenderer {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	// File timestamps are naive station-local wall times, so no timezone
	// conversion happens unless explicitly requested.
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.CellWidth <= 0 {
		config.CellWidth = defaultCellWidth
	}
	if config.Borders.Top == 0 {
		config.Borders.Top = defaultTopBorder
	}
	if config.Borders.Left == 0 {
		config.Borders.Left = defaultLeftBorder
	}
	if config.Borders.Bottom == 0 {
		config.Borders.Bottom = defaultBottomBorder
	}
	if config.Borders.Right == 0 {
		config.Borders.Right = defaultRightBorder
	}

	return &SpectrogramRenderer{config: config}
}

// Render draws the spectrogram over the window's cadence grid with scales
// and a title line.
func (r *SpectrogramRenderer) Render(sp *rfi.Spectrogram, window rfi.Window, cadence time.Duration) (*image.RGBA, error) {
	slots := int(window.End.Sub(window.Start)/cadence) + 1
	bins := len(sp.Frequencies)

	plotWidth := slots * r.config.CellWidth
	plotHeight := bins

	fullWidth := plotWidth + r.config.Borders.Left + r.config.Borders.Right
	fullHeight := plotHeight + r.config.Borders.Top + r.config.Borders.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	plotArea := image.Rect(
		r.config.Borders.Left,
		r.config.Borders.Top,
		r.config.Borders.Left+plotWidth,
		r.config.Borders.Top+plotHeight,
	)
	draw.Draw(img, plotArea, image.NewUniform(noDataColor), image.Point{}, draw.Src)

	minPower, maxPower := sp.PowerBounds()
	mapper := NewColorMapper(r.config.ColorTheme, minPower, maxPower)

	r.renderColumns(img, plotArea, sp, window, cadence, mapper)

	ann, err := newAnnotator(annotatorConfig{
		TimeFormat: r.config.TimeFormat,
		Location:   r.config.Location,
		FontSize:   r.config.FontSize,
		Borders:    r.config.Borders,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, sp, window, cadence, r.config.CellWidth); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	return img, nil
}

// renderColumns paints each survivor column into its cadence slot. The y
// axis is flipped so frequency increases upwards.
func (r *SpectrogramRenderer) renderColumns(img *image.RGBA, area image.Rectangle, sp *rfi.Spectrogram,
	window rfi.Window, cadence time.Duration, mapper *ColorMapper) {

	bins := len(sp.Frequencies)
	lastSlot := area.Dx()/r.config.CellWidth - 1
	for _, column := range sp.Columns {
		// Off-cadence captures round to the nearest slot; clamping keeps
		// every column inside the window on the image.
		slot := int((column.Timestamp.Sub(window.Start) + cadence/2) / cadence)
		if slot < 0 {
			slot = 0
		}
		if slot > lastSlot {
			slot = lastSlot
		}

		x0 := area.Min.X + slot*r.config.CellWidth
		for bin, power := range column.Powers {
			y := area.Min.Y + (bins - 1 - bin)
			c := mapper.Color(power)
			for x := x0; x < x0+r.config.CellWidth; x++ {
				img.Set(x, y, c)
			}
		}
	}
}

// Internal annotator implementation

type annotatorConfig struct {
	TimeFormat string
	Location   *time.Location
	FontSize   float64
	Borders    BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, sp *rfi.Spectrogram, window rfi.Window, cadence time.Duration, cellWidth int) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawTitle(img, window); err != nil {
		return fmt.Errorf("drawing title: %w", err)
	}
	if err := a.drawFrequencyScale(img, sp); err != nil {
		return fmt.Errorf("drawing frequency scale: %w", err)
	}
	if err := a.drawTimeScale(img, window, cadence, cellWidth); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}

	return nil
}

func (a *annotator) drawTitle(img *image.RGBA, window rfi.Window) error {
	title := fmt.Sprintf("RFI spectrogram -- %s (Pol %s, Az %s, Band %s)",
		window.Start.Format("2 January 2006"), window.Polarisation, window.Azimuth, window.Band)

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := (a.config.Borders.Top + fontHeight) / 2

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(title, pt); err != nil {
		return err
	}
	return nil
}

// drawFrequencyScale labels the y axis. Labels are spread over a fixed
// number of evenly spaced bins rather than nice round frequencies; the
// band edges are fixed so the extremes always get a label.
func (a *annotator) drawFrequencyScale(img *image.RGBA, sp *rfi.Spectrogram) error {
	bins := len(sp.Frequencies)
	if bins < 2 {
		return nil
	}
	labels := 8
	if bins <= labels {
		labels = bins - 1
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for i := 0; i <= labels; i++ {
		bin := i * (bins - 1) / labels
		y := a.config.Borders.Top + (bins - 1 - bin)

		for x := a.config.Borders.Left - tickMarkLength; x < a.config.Borders.Left; x++ {
			img.Set(x, y, color.Black)
		}

		fract, suffix := humanize.ComputeSI(sp.Frequencies[bin])
		label := fmt.Sprintf("%.1f %sHz", fract, suffix)

		textY := y + fontHeight/2 - metrics.Descent.Round()
		pt := freetype.Pt(5, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return err
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, window rfi.Window, cadence time.Duration, cellWidth int) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	bottom := img.Bounds().Max.Y - a.config.Borders.Bottom
	textY := bottom + tickMarkLength + fontHeight

	for ts := window.Start; !ts.After(window.End); ts = ts.Add(defaultLabelEvery) {
		slot := int(ts.Sub(window.Start) / cadence)
		x := a.config.Borders.Left + slot*cellWidth

		for y := bottom; y < bottom+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		label := ts.In(a.config.Location).Format(a.config.TimeFormat)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-(width.Round()/2), textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return err
		}
	}
	return nil
}

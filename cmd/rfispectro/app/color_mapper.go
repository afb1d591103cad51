package app

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme selects the power-to-color mapping of the rendered
// spectrogram.
type ColorTheme string

const (
	JetTheme       ColorTheme = "jet"       // Blue to red, the classic RFI survey palette
	GrayscaleTheme ColorTheme = "grayscale" // Black to white
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white

	defaultColorMapSize = 256
)

// ParseColorTheme validates a theme label from the command line.
func ParseColorTheme(s string) (ColorTheme, error) {
	switch ColorTheme(s) {
	case JetTheme, GrayscaleTheme, ThermalTheme:
		return ColorTheme(s), nil
	}
	return "", fmt.Errorf("invalid color theme: %s", s)
}

// Jet hue range: deep blue down to red.
const (
	hueStart = 236.0
	hueEnd   = 0.0
)

// ColorMapper maps power values onto a pre-computed color gradient
// covering [minPower, maxPower].
type ColorMapper struct {
	colorMap      []color.Color
	size          int
	minPower      float64
	powerPerIndex float64
}

// NewColorMapper pre-computes the gradient for the given theme and power
// bounds.
func NewColorMapper(theme ColorTheme, minPower, maxPower float64) *ColorMapper {
	cm := ColorMapper{
		colorMap: make([]color.Color, defaultColorMapSize),
		size:     defaultColorMapSize,
		minPower: minPower,
	}
	cm.powerPerIndex = (maxPower - minPower) / float64(cm.size-1)
	if cm.powerPerIndex == 0 {
		cm.powerPerIndex = 1 // degenerate flat spectrum, any color will do
	}

	themeFn := getColorTheme(theme)
	for i := 0; i < cm.size; i++ {
		cm.colorMap[i] = themeFn(float64(i) / float64(cm.size-1))
	}
	return &cm
}

// Color returns the gradient color for a power value, clamped to the
// mapper's bounds.
func (cm *ColorMapper) Color(power float64) color.Color {
	index := int((power - cm.minPower) / cm.powerPerIndex)
	if index < 0 {
		return cm.colorMap[0]
	}
	if index >= cm.size {
		return cm.colorMap[cm.size-1]
	}
	return cm.colorMap[index]
}

func getColorTheme(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case GrayscaleTheme:
		return func(power float64) color.Color {
			v := uint8(math.Pow(power, 0.7) * 255)
			return color.RGBA{R: v, G: v, B: v, A: 255}
		}

	case ThermalTheme:
		return func(power float64) color.Color {
			if power < 0.33 {
				return color.RGBA{
					R: uint8((power * 3) * 255),
					A: 255,
				}
			}
			if power < 0.66 {
				return color.RGBA{
					R: 255,
					G: uint8(((power - 0.33) * 3) * 255),
					A: 255,
				}
			}
			return color.RGBA{
				R: 255,
				G: 255,
				B: uint8(((power - 0.66) * 3) * 255),
				A: 255,
			}
		}

	default: // JetTheme
		return func(power float64) color.Color {
			hue := hueStart - power*(hueStart-hueEnd)
			hue = math.Min(math.Max(hue, hueEnd), hueStart)
			return colorful.Hsv(hue, 1, 0.90)
		}
	}
}

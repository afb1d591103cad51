package app

import (
	"image/color"
	"testing"
)

func TestParseColorTheme(t *testing.T) {
	for _, valid := range []string{"jet", "grayscale", "thermal"} {
		theme, err := ParseColorTheme(valid)
		if err != nil {
			t.Errorf("ParseColorTheme(%q) failed: %v", valid, err)
		}
		if string(theme) != valid {
			t.Errorf("ParseColorTheme(%q) = %q", valid, theme)
		}
	}

	if _, err := ParseColorTheme("sepia"); err == nil {
		t.Error("ParseColorTheme accepted an unknown theme")
	}
}

func TestColorMapper_Clamping(t *testing.T) {
	for _, theme := range []ColorTheme{JetTheme, GrayscaleTheme, ThermalTheme} {
		t.Run(string(theme), func(t *testing.T) {
			mapper := NewColorMapper(theme, -120, -60)

			if got, want := mapper.Color(-200), mapper.Color(-120); got != want {
				t.Errorf("Power below the minimum maps to %v, want the minimum color %v", got, want)
			}
			if got, want := mapper.Color(0), mapper.Color(-60); got != want {
				t.Errorf("Power above the maximum maps to %v, want the maximum color %v", got, want)
			}
			if mapper.Color(-120) == mapper.Color(-60) {
				t.Error("Gradient endpoints share a color")
			}
		})
	}
}

func TestColorMapper_GrayscaleEndpoints(t *testing.T) {
	mapper := NewColorMapper(GrayscaleTheme, -120, -60)

	if got := mapper.Color(-120); got != (color.RGBA{A: 255}) {
		t.Errorf("Expected black at the minimum, got %v", got)
	}
	if got := mapper.Color(-60); got != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("Expected white at the maximum, got %v", got)
	}
}

func TestColorMapper_FlatBounds(t *testing.T) {
	// Every survivor reading the same power collapses the bounds; the
	// mapper must still answer.
	mapper := NewColorMapper(JetTheme, -95, -95)
	if mapper.Color(-95) == nil {
		t.Error("Expected a color for the degenerate flat spectrum")
	}
}

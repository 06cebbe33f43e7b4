package derive

import (
	"fmt"
	"math"
	"strconv"
)

// RainPalette is the 23-color precipitation ramp shared by the 1/3/24-hour
// rain scales.
var RainPalette = []string{
	"#ffffff", "#f0f0f0", "#e3f6ff", "#bdeaff", "#8fd5ff", "#64c2ff",
	"#3bb1ff", "#18a1f5", "#07a9cf", "#0fbfbf", "#10cfa2", "#4fdc56",
	"#8ddc34", "#ace82a", "#e4f014", "#ffe000", "#ffbb00", "#ff8a00",
	"#ff5d00", "#ff2800", "#d80080", "#8e00c9", "#a200c6",
}

// Rain accumulation breakpoints (mm) per window.
var (
	RainLevels24hr = []float64{0, 1, 2, 6, 10, 15, 20, 25, 30, 40, 50, 60, 80, 100, 130, 160, 200, 250, 300, 350, 400, 500}
	RainLevels3hr  = []float64{0, 1, 2, 6, 10, 15, 20, 25, 30, 35, 40, 50, 60, 70, 80, 90, 100, 120, 140, 160, 180, 200}
	RainLevels1hr  = []float64{0, 1, 2, 6, 10, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 65, 70, 75, 80, 85, 90, 100}
)

// TempPalette is the gradient used for air and apparent temperature over the
// 6-36°C display domain.
var TempPalette = []string{"#1b6fd1", "#26b16f", "#e6e447", "#f4a13d", "#e04a3b", "#8a2bd8"}

// THIPalette is the gradient used for the temperature-humidity index over the
// 40-90 display domain.
var THIPalette = []string{
	"#273995", "#325bb3", "#3f7bc8", "#5197d6", "#6caed3",
	"#8ec5ca", "#addac1", "#cdeeb4", "#f3f5a3", "#fee08b",
	"#fdae61", "#f46d43", "#e34a33", "#d73027", "#a50026",
}

// HumidityPalette is the gradient used for relative humidity over 30-100%.
var HumidityPalette = []string{"#dbeafe", "#60a5fa", "#1d4ed8"}

// windColorScale maps wind speed to a discrete Beaufort-aligned color.
var windColorScale = []struct {
	Max   float64
	Color string
}{
	{0.2, "#5f6266"}, {1.5, "#1ca0c9"}, {3.3, "#3177dc"}, {5.4, "#2d5a9e"},
	{7.9, "#7fdc8f"}, {10.7, "#3fa514"}, {13.8, "#028b19"}, {17.1, "#fbff00"},
	{20.7, "#ffdd00"}, {24.4, "#fbc04f"}, {28.4, "#f78255"}, {32.6, "#f16a3a"},
	{36.9, "#de4a34"}, {41.4, "#c7372f"}, {46.1, "#b22e4e"}, {50.9, "#9a285c"},
	{56.0, "#862377"},
}

// windColorAboveTop colors speeds beyond band 17.
const windColorAboveTop = "#6b1c82"

// GradientColor linearly interpolates value across an ordered palette of hex
// stops over [min, max]. Values outside the domain clamp to the nearest end.
func GradientColor(value, min, max float64, stops []string) string {
	pct := (value - min) / (max - min)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	idx := int(pct * float64(len(stops)-1))
	if idx > len(stops)-2 {
		idx = len(stops) - 2
	}
	t := pct*float64(len(stops)-1) - float64(idx)
	return MixColor(stops[idx], stops[idx+1], t)
}

// MixColor blends two hex colors by fraction t in [0, 1].
func MixColor(a, b string, t float64) string {
	ar, ag, ab := hexToRGB(a)
	br, bg, bb := hexToRGB(b)
	mix := func(x, y int) int { return int(math.Round(float64(x) + float64(y-x)*t)) }
	return fmt.Sprintf("#%02x%02x%02x", mix(ar, br), mix(ag, bg), mix(ab, bb))
}

// WindColor returns the discrete color for a wind speed in m/s.
func WindColor(mps float64) string {
	for _, step := range windColorScale {
		if mps <= step.Max {
			return step.Color
		}
	}
	return windColorAboveTop
}

// RainColor maps an accumulation to the rain palette using the level table
// for the given window.
func RainColor(levels []float64, mm float64) string {
	if !isFinite(mm) {
		return RainPalette[0]
	}
	for i, level := range levels {
		if mm < level {
			if i == 0 {
				return RainPalette[0]
			}
			return RainPalette[i-1]
		}
	}
	top := len(levels)
	if top > len(RainPalette)-1 {
		top = len(RainPalette) - 1
	}
	return RainPalette[top]
}

func hexToRGB(hex string) (int, int, int) {
	raw := hex
	if len(raw) > 0 && raw[0] == '#' {
		raw = raw[1:]
	}
	v, err := strconv.ParseInt(raw, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}

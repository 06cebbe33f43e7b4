package ranking

import (
	"fmt"
	"strconv"

	"github.com/faein/changhuaweather/internal/derive"
)

// LegendItem is one labeled swatch under a colorbar.
type LegendItem struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

// Colorbar is the rendering configuration for one metric's scale strip.
type Colorbar struct {
	Title         string       `json:"title"`
	Stops         []string     `json:"stops"`
	Ticks         []string     `json:"ticks,omitempty"`
	TickPositions []float64    `json:"tickPositions,omitempty"`
	Legend        []LegendItem `json:"legend,omitempty"`
}

// BuildColorbar assembles the colorbar configuration for a metric.
func BuildColorbar(metricKey string) Colorbar {
	metric := Lookup(metricKey)
	title := metric.Label
	if metric.Unit != "" {
		title = fmt.Sprintf("%s (%s)", metric.Label, metric.Unit)
	}

	switch metric.Scale {
	case ScaleWind:
		return windColorbar(title)
	case ScaleHumidity:
		return humidityColorbar(title)
	case ScaleRain:
		return rainColorbar(title, metric.Key)
	case ScaleTHI:
		return thiColorbar(title)
	default:
		return tempColorbar(title)
	}
}

func windColorbar(title string) Colorbar {
	stops := []string{
		"#5f6266", "#1ca0c9", "#3177dc", "#2d5a9e", "#7fdc8f", "#3fa514",
		"#028b19", "#fbff00", "#ffdd00", "#fbc04f", "#f78255", "#f16a3a",
		"#de4a34", "#c7372f", "#b22e4e", "#9a285c", "#862377", "#6b1c82",
	}
	ticks := []string{"靜風", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15", "16", "17"}
	positions := make([]float64, len(ticks))
	for i := range ticks {
		positions[i] = (float64(i) + 0.5) / float64(len(ticks))
	}
	return Colorbar{Title: title, Stops: stops, Ticks: ticks, TickPositions: positions}
}

func humidityColorbar(title string) Colorbar {
	stops := []string{"#dbeafe", "#bfdbfe", "#93c5fd", "#60a5fa", "#3b82f6", "#1d4ed8"}
	blocks := float64(len(stops))
	return Colorbar{
		Title:         title,
		Stops:         stops,
		Ticks:         []string{"", "50", "60", "70", "80", ">=90"},
		TickPositions: []float64{0, 1 / blocks, 2 / blocks, 3 / blocks, 4 / blocks, 5 / blocks},
		Legend: []LegendItem{
			{Label: "<50", Color: "#dbeafe"},
			{Label: "50-59", Color: "#bfdbfe"},
			{Label: "60-69", Color: "#93c5fd"},
			{Label: "70-79", Color: "#60a5fa"},
			{Label: "80-89", Color: "#3b82f6"},
			{Label: ">=90", Color: "#1d4ed8"},
		},
	}
}

func rainColorbar(title, metricKey string) Colorbar {
	levels := rainLevels(metricKey)
	lastLabel := ">120"
	switch metricKey {
	case "rain24hr":
		lastLabel = ">600"
	case "rain3hr":
		lastLabel = ">240"
	}
	blocks := float64(len(derive.RainPalette))
	var ticks []string
	var positions []float64
	for i, v := range levels {
		ticks = append(ticks, strconv.FormatFloat(v, 'f', -1, 64))
		positions = append(positions, float64(i)/blocks)
	}
	ticks = append(ticks, lastLabel)
	positions = append(positions, (blocks-1)/blocks)
	return Colorbar{Title: title, Stops: derive.RainPalette, Ticks: ticks, TickPositions: positions}
}

func tempColorbar(title string) Colorbar {
	const min, max = 6, 36
	var stops []string
	for v := min; v <= max; v++ {
		stops = append(stops, derive.GradientColor(float64(v), min, max, derive.TempPalette))
	}
	stops = append(stops, derive.GradientColor(max+1, min, max+1, derive.TempPalette))
	blocks := float64(len(stops))
	var ticks []string
	var positions []float64
	for v := min; v <= max; v++ {
		ticks = append(ticks, strconv.Itoa(v))
		positions = append(positions, float64(v-min+1)/blocks)
	}
	return Colorbar{Title: title, Stops: stops, Ticks: ticks, TickPositions: positions}
}

func thiColorbar(title string) Colorbar {
	const segments = 24
	stops := make([]string, segments)
	for i := 0; i < segments; i++ {
		t := float64(i) / float64(segments-1)
		stops[i] = derive.GradientColor(t, 0, 1, derive.THIPalette)
	}
	ticks := []string{"45", "50", "55", "60", "65", "70", "75", "80", "85"}
	positions := make([]float64, len(ticks))
	for i, s := range ticks {
		v, _ := strconv.ParseFloat(s, 64)
		positions[i] = (v - 40) / 50
	}
	return Colorbar{Title: title, Stops: stops, Ticks: ticks, TickPositions: positions}
}

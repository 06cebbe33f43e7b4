package derive

// Severity is one of the four air-quality alert tiers, ordered from least to
// most severe.
type Severity int

const (
	SeverityElevated Severity = iota // 偏高
	SeverityHarmful                  // 過高
	SeverityHealth                   // 影響人體健康
	SeverityHazard                   // 危害標準
)

// Label returns the display string for a severity tier.
func (s Severity) Label() string {
	switch s {
	case SeverityElevated:
		return "偏高"
	case SeverityHarmful:
		return "過高"
	case SeverityHealth:
		return "影響人體健康"
	case SeverityHazard:
		return "危害標準"
	}
	return ""
}

// Class returns the presentation class name for a severity tier.
func (s Severity) Class() string {
	switch s {
	case SeverityElevated:
		return "local-alert--aqi-orange"
	case SeverityHarmful:
		return "local-alert--aqi-red"
	case SeverityHealth:
		return "local-alert--aqi-purple"
	case SeverityHazard:
		return "local-alert--aqi-maroon"
	}
	return ""
}

// tierRange is one inclusive concentration range mapped to a severity.
type tierRange struct {
	Min, Max float64
	Severity Severity
}

// Pollutant identifies one tiered air-quality measurement.
type Pollutant string

const (
	PollutantPM25 Pollutant = "pm25" // μg/m3
	PollutantPM10 Pollutant = "pm10" // μg/m3
	PollutantO3   Pollutant = "o3"   // ppb
	PollutantSO2  Pollutant = "so2"  // ppb
	PollutantNO2  Pollutant = "no2"  // ppb
	PollutantCO   Pollutant = "co"   // ppm
)

// pollutantTiers holds the concentration breakpoints per pollutant.
// Concentrations below the first range carry no alert.
var pollutantTiers = map[Pollutant][]tierRange{
	PollutantPM25: {
		{30.5, 50.4, SeverityElevated},
		{50.5, 125.4, SeverityHarmful},
		{125.5, 225.4, SeverityHealth},
		{225.5, 325.4, SeverityHazard},
	},
	PollutantPM10: {
		{76, 190, SeverityElevated},
		{191, 354, SeverityHarmful},
		{355, 424, SeverityHealth},
		{425, 504, SeverityHazard},
	},
	PollutantO3: {
		{71, 85, SeverityElevated},
		{86, 105, SeverityHarmful},
		{106, 200, SeverityHealth},
		{201, 10000, SeverityHazard},
	},
	PollutantCO: {
		{9.5, 12.4, SeverityElevated},
		{12.5, 15.4, SeverityHarmful},
		{15.5, 30.4, SeverityHealth},
		{30.5, 40.4, SeverityHazard},
	},
	PollutantSO2: {
		{66, 160, SeverityElevated},
		{161, 304, SeverityHarmful},
		{305, 604, SeverityHealth},
		{605, 804, SeverityHazard},
	},
	PollutantNO2: {
		{101, 360, SeverityElevated},
		{361, 649, SeverityHarmful},
		{650, 1249, SeverityHealth},
		{1250, 1649, SeverityHazard},
	},
}

// PollutantSeverity classifies a pollutant concentration. Concentrations
// above the top tier's upper bound still classify into the top tier; clean-air
// concentrations return ok=false.
func PollutantSeverity(p Pollutant, value *float64) (Severity, bool) {
	if value == nil || !isFinite(*value) {
		return 0, false
	}
	tiers, known := pollutantTiers[p]
	if !known {
		return 0, false
	}
	for _, t := range tiers {
		if *value >= t.Min && *value <= t.Max {
			return t.Severity, true
		}
	}
	if *value > tiers[len(tiers)-1].Max {
		return tiers[len(tiers)-1].Severity, true
	}
	return 0, false
}

// AQISeverity classifies a composite AQI value: 101+ elevated, 151+ harmful,
// 201+ health impact, 301+ hazardous.
func AQISeverity(value *float64) (Severity, bool) {
	if value == nil || !isFinite(*value) {
		return 0, false
	}
	v := *value
	switch {
	case v >= 301:
		return SeverityHazard, true
	case v >= 201:
		return SeverityHealth, true
	case v >= 151:
		return SeverityHarmful, true
	case v >= 101:
		return SeverityElevated, true
	}
	return 0, false
}

package derive

// beaufortBand is one inclusive wind-speed range on the Beaufort scale.
type beaufortBand struct {
	Low   float64
	High  float64
	Level int
	Label string
}

// beaufortScale covers bands 0 (calm) through 17. Ranges are inclusive on
// both ends; consecutive bands meet at one-decimal boundaries with no gap or
// overlap at that resolution.
var beaufortScale = []beaufortBand{
	{0.0, 0.2, 0, "靜風"},
	{0.3, 1.5, 1, "1級"},
	{1.6, 3.3, 2, "2級"},
	{3.4, 5.4, 3, "3級"},
	{5.5, 7.9, 4, "4級"},
	{8.0, 10.7, 5, "5級"},
	{10.8, 13.8, 6, "6級"},
	{13.9, 17.1, 7, "7級"},
	{17.2, 20.7, 8, "8級"},
	{20.8, 24.4, 9, "9級"},
	{24.5, 28.4, 10, "10級"},
	{28.5, 32.6, 11, "11級"},
	{32.7, 36.9, 12, "12級"},
	{37.0, 41.4, 13, "13級"},
	{41.5, 46.1, 14, "14級"},
	{46.2, 50.9, 15, "15級"},
	{51.0, 56.0, 16, "16級"},
	{56.1, 61.2, 17, "17級"},
}

// BeaufortAboveTop is the level reported for speeds beyond band 17.
const BeaufortAboveTop = 18

// BeaufortLabelAboveTop is the label for speeds beyond band 17.
const BeaufortLabelAboveTop = "17級以上"

// BeaufortLabel maps a wind speed in m/s to its Beaufort band label. Missing
// or non-finite speeds map to "--".
func BeaufortLabel(mps *float64) string {
	if mps == nil || !isFinite(*mps) {
		return "--"
	}
	for _, b := range beaufortScale {
		if *mps >= b.Low && *mps <= b.High {
			return b.Label
		}
	}
	return BeaufortLabelAboveTop
}

// BeaufortLevel maps a wind speed in m/s to its numeric Beaufort band
// (0-17, or BeaufortAboveTop). The second return is false for missing or
// non-finite speeds.
func BeaufortLevel(mps *float64) (int, bool) {
	if mps == nil || !isFinite(*mps) {
		return 0, false
	}
	for _, b := range beaufortScale {
		if *mps >= b.Low && *mps <= b.High {
			return b.Level, true
		}
	}
	return BeaufortAboveTop, true
}

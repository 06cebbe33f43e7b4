package derive

import (
	"math"

	"github.com/faein/changhuaweather/internal/models"
)

// compassRose is the 16-point rose in clockwise order starting at north.
var compassRose = []string{
	"北", "北北東", "東北", "東北東",
	"東", "東南東", "東南", "南南東",
	"南", "南南西", "西南", "西南西",
	"西", "西北西", "西北", "北北西",
}

// WindDirectionLabel maps a bearing in degrees to the nearest 22.5° sector
// name. Missing, sentinel or non-finite bearings map to "—".
func WindDirectionLabel(deg *float64) string {
	if !models.ValidObservation(deg) {
		return "—"
	}
	idx := int(math.Round(math.Mod(*deg, 360)/22.5)) % 16
	if idx < 0 {
		idx += 16
	}
	return compassRose[idx]
}

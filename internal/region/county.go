// Package region canonicalizes Taiwanese administrative area names. Upstream
// feeds spell municipality names inconsistently (台中市 vs 臺中市, the retired
// 桃園縣), so every area comparison in the system goes through Canonical first.
package region

import "strings"

// counties is the ordered list of the 22 canonical municipality names, in the
// order the CWA publishes them.
var counties = []string{
	"基隆市",
	"臺北市",
	"新北市",
	"桃園市",
	"新竹縣",
	"新竹市",
	"苗栗縣",
	"臺中市",
	"彰化縣",
	"南投縣",
	"雲林縣",
	"嘉義縣",
	"嘉義市",
	"臺南市",
	"高雄市",
	"屏東縣",
	"宜蘭縣",
	"花蓮縣",
	"臺東縣",
	"澎湖縣",
	"金門縣",
	"連江縣",
}

// aliases maps recognized alternate spellings to their canonical form. The
// 台/臺 variants are the common case; 桃園縣 was renamed on upgrade to a
// special municipality.
var aliases = map[string]string{
	"台北市": "臺北市",
	"台中市": "臺中市",
	"台南市": "臺南市",
	"台東縣": "臺東縣",
	"桃園縣": "桃園市",
}

var canonical = func() map[string]bool {
	m := make(map[string]bool, len(counties))
	for _, c := range counties {
		m[c] = true
	}
	return m
}()

// Canonical returns the single standardized spelling for a municipality name.
// Unrecognized names pass through trimmed but otherwise unchanged, so that
// sub-county area strings ("全區", township names) survive.
func Canonical(name string) string {
	raw := strings.TrimSpace(name)
	if raw == "" {
		return ""
	}
	if alias, ok := aliases[raw]; ok {
		return alias
	}
	return raw
}

// IsCounty reports whether name canonicalizes to one of the 22 municipalities.
func IsCounty(name string) bool {
	return canonical[Canonical(name)]
}

// Counties returns the canonical municipality names in publication order.
func Counties() []string {
	out := make([]string, len(counties))
	copy(out, counties)
	return out
}

// TownName strips a leading county prefix from a township name so that
// boundary-file names and station metadata compare equal.
func TownName(county, name string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), county))
}

package ingest

import (
	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/models"
	"github.com/faein/changhuaweather/internal/region"
)

// NormalizeAlerts flattens a hazard-warning payload into alert records.
// Hazards nest either as hazardConditions (object or array, each wrapping
// hazardCondition/hazards which may themselves be single objects) or directly
// on the location; a separate flat records.alert list also appears in some
// payload generations.
func NormalizeAlerts(payload gjson.Result) []models.AlertRecord {
	records := payload.Get("records")
	if !records.Exists() {
		records = payload.Get("Records")
	}

	var list []models.AlertRecord
	locs := firstExisting(records, "location", "locations")
	for _, loc := range locs.Array() {
		locName := firstExisting(loc, "locationName", "county").String()
		locArea := region.Canonical(locName)
		for _, h := range collectHazards(loc) {
			info := h.Get("info")
			valid := firstExisting(h, "validTime", "time")
			areaRaw := firstString(
				loc.Get("locationName"), loc.Get("county"),
				h.Get("locationName"), h.Get("areaName"), info.Get("areaName"),
			)
			if areaRaw == "" {
				areaRaw = "全區"
			}
			title := firstString(
				h.Get("event"), h.Get("hazardDesc"), h.Get("hazardType"), h.Get("headline"),
				info.Get("phenomena"), info.Get("event"),
			)
			if title == "" {
				title = "警特報"
			}
			list = append(list, models.AlertRecord{
				Area:     region.Canonical(areaRaw),
				AreaRaw:  areaRaw,
				LocArea:  locArea,
				Title:    title,
				Desc:     firstString(h.Get("description"), h.Get("hazardDesc"), h.Get("content"), info.Get("description")),
				Start:    firstString(h.Get("startTime"), h.Get("start"), h.Get("publishTime"), valid.Get("startTime"), valid.Get("start")),
				End:      firstString(h.Get("endTime"), h.Get("end"), valid.Get("endTime"), valid.Get("end")),
				Severity: firstString(h.Get("severity"), h.Get("significance"), h.Get("alertLevel"), info.Get("significance")),
			})
		}
	}

	direct := firstExisting(records, "alert", "alerts")
	if direct.IsArray() {
		for _, h := range direct.Array() {
			area := firstString(h.Get("areaName"), h.Get("locationName"))
			if area == "" {
				area = "全區"
			}
			title := firstString(h.Get("title"), h.Get("headline"), h.Get("event"))
			if title == "" {
				title = "警特報"
			}
			list = append(list, models.AlertRecord{
				Area:     area,
				Title:    title,
				Desc:     firstString(h.Get("description"), h.Get("summary")),
				Start:    firstString(h.Get("startTime"), h.Get("publishTime")),
				End:      h.Get("endTime").String(),
				Severity: firstString(h.Get("severity"), h.Get("significance")),
			})
		}
	}
	return list
}

// FilterAlertsByCounty keeps records whose canonicalized area matches the
// county under any of the three area fields.
func FilterAlertsByCounty(alerts []models.AlertRecord, county string) []models.AlertRecord {
	want := region.Canonical(county)
	if want == "" {
		return alerts
	}
	var out []models.AlertRecord
	for _, a := range alerts {
		if region.Canonical(a.Area) == want ||
			region.Canonical(a.AreaRaw) == want ||
			region.Canonical(a.LocArea) == want {
			out = append(out, a)
		}
	}
	return out
}

// collectHazards gathers hazard nodes from all the nesting shapes a location
// may carry.
func collectHazards(loc gjson.Result) []gjson.Result {
	var collected []gjson.Result
	appendAll := func(v gjson.Result) {
		if !v.Exists() {
			return
		}
		if v.IsArray() {
			collected = append(collected, v.Array()...)
			return
		}
		collected = append(collected, v)
	}

	hc := loc.Get("hazardConditions")
	if hc.Exists() {
		if hc.IsArray() {
			for _, h := range hc.Array() {
				appendAll(h.Get("hazardCondition"))
				appendAll(h.Get("hazards"))
			}
		} else {
			appendAll(hc.Get("hazardCondition"))
			appendAll(hc.Get("hazards"))
		}
	}
	appendAll(loc.Get("hazardCondition"))
	appendAll(loc.Get("conditions"))
	return collected
}

// firstString returns the first non-empty string among the results.
func firstString(results ...gjson.Result) string {
	for _, r := range results {
		if r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
		if r.Exists() && r.Type != gjson.JSON && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

package ingest

import (
	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/models"
)

// elementTable indexes a location's forecast elements by element name. Slots
// are aligned by array index across elements; the upstream guarantees equal
// period boundaries per index within one location.
type elementTable map[string][]gjson.Result

func buildElementTable(loc gjson.Result) elementTable {
	table := elementTable{}
	for _, el := range loc.Get("weatherElement").Array() {
		name := el.Get("elementName").String()
		table[name] = el.Get("time").Array()
	}
	return table
}

func (t elementTable) slotCount() int {
	max := 0
	for _, times := range t {
		if len(times) > max {
			max = len(times)
		}
	}
	return max
}

// timeAt probes the start or end timestamp of slot idx across all elements,
// returning the first one any element carries.
func (t elementTable) timeAt(idx int, key string) string {
	for _, times := range t {
		if idx >= len(times) {
			continue
		}
		slot := times[idx]
		if v := firstString(
			slot.Get(key+"Time"), slot.Get(key+"time"),
			slot.Get(key), slot.Get("dataTime"), slot.Get("time"),
		); v != "" {
			return v
		}
	}
	return ""
}

// valueAt reads element key at slot idx, unwrapping whichever value container
// the payload generation uses.
func (t elementTable) valueAt(key string, idx int) *string {
	times, ok := t[key]
	if !ok || idx >= len(times) {
		return nil
	}
	node := times[idx]
	if p := node.Get("parameter"); p.Exists() {
		if v := firstString(p.Get("parameterName"), p.Get("parameterValue"), p.Get("value")); v != "" {
			return &v
		}
		return nil
	}
	if evs := node.Get("elementValue"); evs.IsArray() && len(evs.Array()) > 0 {
		ev := evs.Array()[0]
		if v := firstString(ev.Get("value"), ev.Get("elementValue"), ev.Get("measures"), ev.Get("parameterName")); v != "" {
			return &v
		}
		return nil
	}
	if v := node.Get("value"); v.Exists() {
		s := v.String()
		return &s
	}
	if v := node.Get("text"); v.Exists() && v.String() != "" {
		s := v.String()
		return &s
	}
	if v := node.Get("parameterName"); v.Exists() && v.String() != "" {
		s := v.String()
		return &s
	}
	return nil
}

// NormalizeForecast builds the aligned forecast slots for a county from a
// 36-hour forecast payload. The location matching the county name is
// preferred; otherwise the first location is used. Slots that carry no data
// at all are dropped.
func NormalizeForecast(payload gjson.Result, county string) []models.ForecastSlot {
	records := payload.Get("records")
	if !records.Exists() {
		records = payload.Get("Records")
	}
	locs := firstExisting(records, "location", "locations").Array()
	if len(locs) == 0 {
		return nil
	}
	loc := locs[0]
	for _, l := range locs {
		if l.Get("locationName").String() == county {
			loc = l
			break
		}
	}

	locName := loc.Get("locationName").String()
	if locName == "" {
		locName = county
	}

	table := buildElementTable(loc)
	var slots []models.ForecastSlot
	for i := 0; i < table.slotCount(); i++ {
		slot := models.ForecastSlot{
			Location: locName,
			Start:    table.timeAt(i, "start"),
			End:      table.timeAt(i, "end"),
			Wx:       deref(table.valueAt("Wx", i)),
			PoP:      firstValue(table.valueAt("PoP12h", i), table.valueAt("PoP", i)),
			MinT:     firstValue(table.valueAt("MinT", i), table.valueAt("T", i)),
			MaxT:     table.valueAt("MaxT", i),
			CI:       deref(table.valueAt("CI", i)),
			RH:       table.valueAt("RH", i),
		}
		if !slot.Empty() {
			slots = append(slots, slot)
		}
	}
	return slots
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstValue(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}

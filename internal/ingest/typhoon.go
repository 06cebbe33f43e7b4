package ingest

import (
	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/models"
)

// maxTrackDepth bounds the recursive track search; typhoon payloads nest
// forecast and analysis sections several levels deep but never this far.
const maxTrackDepth = 16

// NormalizeTyphoons extracts cyclone records from a typhoon-warning payload.
// The cyclone list key varies between payload generations; typhoonInfos is a
// legacy fallback consulted only when the primary keys yield nothing.
func NormalizeTyphoons(payload gjson.Result) []models.Typhoon {
	records := payload.Get("records")
	if !records.Exists() {
		records = payload.Get("Records")
	}

	var list []models.Typhoon
	arr := firstExisting(records, "typhoon", "typhoons", "tropicalCyclone", "cyclone")
	if arr.IsArray() {
		for _, item := range arr.Array() {
			list = append(list, models.Typhoon{
				Name:   firstString(item.Get("cwaTyphoonName"), item.Get("typhoonName"), item.Get("name"), item.Get("title"), item.Get("id")),
				ID:     firstString(item.Get("typhoonId"), item.Get("no"), item.Get("serial"), item.Get("id")),
				Status: firstString(item.Get("status"), item.Get("alertLevel"), item.Get("typhoonStatus")),
				Time:   firstString(item.Get("issueTime"), item.Get("publishTime"), item.Get("time"), item.Get("dataTime")),
				Text:   firstString(item.Get("description"), item.Get("summary"), item.Get("remark"), item.Get("text")),
				Track:  ExtractTrack(item),
			})
		}
	}
	if len(list) == 0 {
		for _, item := range records.Get("typhoonInfos").Array() {
			list = append(list, models.Typhoon{
				Name:   firstString(item.Get("name"), item.Get("title"), item.Get("id")),
				ID:     item.Get("id").String(),
				Status: item.Get("status").String(),
				Time:   firstString(item.Get("issueTime"), item.Get("publishTime")),
				Text:   firstString(item.Get("remark"), item.Get("description")),
				Track:  ExtractTrack(item),
			})
		}
	}
	return list
}

// ExtractTrack walks a cyclone record for the first array whose elements
// parse to at least two track points. The walk is depth-first and bounded so
// a pathological payload cannot recurse without end.
func ExtractTrack(node gjson.Result) []models.TrackPoint {
	var found []models.TrackPoint
	var walk func(n gjson.Result, depth int)
	walk = func(n gjson.Result, depth int) {
		if found != nil || depth > maxTrackDepth {
			return
		}
		if n.IsArray() {
			items := n.Array()
			var pts []models.TrackPoint
			for _, item := range items {
				if p, ok := parseTrackPoint(item); ok {
					pts = append(pts, p)
				}
			}
			if len(pts) >= 2 {
				found = pts
				return
			}
			for _, item := range items {
				walk(item, depth+1)
			}
			return
		}
		if n.IsObject() {
			n.ForEach(func(_, v gjson.Result) bool {
				walk(v, depth+1)
				return found == nil
			})
		}
	}
	walk(node, 0)
	return found
}

// parseTrackPoint reads one candidate position, probing the coordinate key
// variants seen across payloads, including the Chinese-keyed legacy form.
func parseTrackPoint(p gjson.Result) (models.TrackPoint, bool) {
	if !p.IsObject() {
		return models.TrackPoint{}, false
	}
	lat := firstNumeric(
		p.Get("lat"), p.Get("latitude"), p.Get("Latitude"), p.Get("LAT"),
		p.Get("latitute"), p.Get("Lat"), p.Get("緯度"),
	)
	lon := firstNumeric(
		p.Get("lon"), p.Get("longitude"), p.Get("Longitude"), p.Get("LON"),
		p.Get("lonitude"), p.Get("Lon"), p.Get("經度"),
	)
	if lat == nil || lon == nil {
		return models.TrackPoint{}, false
	}
	return models.TrackPoint{
		Lat:  *lat,
		Lon:  *lon,
		Time: firstString(p.Get("time"), p.Get("dateTime"), p.Get("DateTime"), p.Get("datetime")),
	}, true
}

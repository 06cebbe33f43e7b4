package ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractStations pulls the station list out of a datastore payload. Both
// payload generations are handled: a flat array under one of the known keys,
// or a container object wrapping a Station array.
func ExtractStations(payload gjson.Result) []gjson.Result {
	records := payload.Get("records")
	if !records.Exists() {
		records = payload.Get("Records")
	}
	list := firstExisting(records, "Station", "station", "Stations", "stations", "location", "locations")
	if list.IsArray() {
		return list.Array()
	}
	if inner := list.Get("Station"); inner.IsArray() {
		return inner.Array()
	}
	return nil
}

// StationName probes the name keys used across dataset generations.
func StationName(station gjson.Result) string {
	return firstExisting(station,
		"StationName", "stationName",
		"Station.StationName", "Station.stationName",
		"LocationName", "locationName",
	).String()
}

// StationID probes the identifier keys used across dataset generations.
func StationID(station gjson.Result) string {
	return firstExisting(station, "StationId", "stationId", "StationID", "StationNo").String()
}

// ObsTime probes the observation timestamp of a station record.
func ObsTime(station gjson.Result) string {
	return firstExisting(station,
		"ObsTime.DateTime", "ObsTime.dateTime", "ObsTime.LocalTime",
		"obsTime.dateTime", "obsTime.DateTime",
		"time.obsTime",
	).String()
}

// weatherElementContainers lists the element holder keys in probe order.
var weatherElementContainers = []string{
	"WeatherElement", "weatherElement", "WeatherElements", "weatherElements", "Element", "element",
}

// ReadElement reads a single weather element by name. The container may be a
// keyed object (new payloads) or an array of name/value pairs (legacy
// payloads); element values may themselves be wrapped one level deep.
func ReadElement(station gjson.Result, key string) gjson.Result {
	el := firstExisting(station, weatherElementContainers...)
	if !el.Exists() {
		return gjson.Result{}
	}
	if el.IsArray() {
		var found gjson.Result
		el.ForEach(func(_, e gjson.Result) bool {
			name := firstExisting(e, "ElementName", "elementName").String()
			if name == key {
				found = firstExisting(e, "ElementValue", "elementValue", "Value", "value")
				return false
			}
			return true
		})
		return found
	}
	node := el.Get(key)
	if !node.Exists() {
		node = el.Get(strings.ToLower(key))
	}
	if !node.Exists() {
		return gjson.Result{}
	}
	if node.IsObject() {
		return firstExisting(node, "ElementValue", "Value", "value", "elementValue")
	}
	return node
}

// ReadNested reads a dotted path inside the weather element container,
// falling back to a lowercased key at each step. Used for wrapped values such
// as GustInfo.PeakGustSpeed.
func ReadNested(station gjson.Result, path string) gjson.Result {
	cursor := firstExisting(station, weatherElementContainers...)
	if !cursor.Exists() {
		return gjson.Result{}
	}
	for _, part := range strings.Split(path, ".") {
		next := cursor.Get(part)
		if !next.Exists() {
			next = cursor.Get(strings.ToLower(part))
		}
		if !next.Exists() {
			return gjson.Result{}
		}
		cursor = next
	}
	if cursor.IsObject() {
		return firstExisting(cursor, "ElementValue", "Value", "value", "elementValue")
	}
	return cursor
}

// ReadRain reads one accumulation window from a rain station record.
func ReadRain(station gjson.Result, key string) gjson.Result {
	el := firstExisting(station, "RainfallElement", "rainfallElement", "RainElement", "rainElement")
	if !el.Exists() {
		return gjson.Result{}
	}
	node := el.Get(key)
	if !node.Exists() {
		node = el.Get(strings.ToLower(key))
	}
	if !node.Exists() {
		return gjson.Result{}
	}
	if node.IsObject() {
		return firstExisting(node, "Precipitation", "precipitation", "Value", "value")
	}
	return node
}

// StationGeo returns the geo container of a station record.
func StationGeo(station gjson.Result) gjson.Result {
	return firstExisting(station, "GeoInfo", "geoInfo")
}

// StationCoords resolves the WGS84 coordinate pair from a geo container.
// Returns ok=false when no finite WGS84 pair is present.
func StationCoords(geo gjson.Result) (lat, lon float64, ok bool) {
	coords := firstExisting(geo, "Coordinates", "coordinates", "Coordinate", "coordinate")
	list := coords
	if !coords.IsArray() {
		list = firstExisting(coords, "Coordinate", "coordinates")
	}
	if !list.IsArray() {
		return 0, 0, false
	}
	for _, c := range list.Array() {
		name := firstExisting(c, "CoordinateName", "coordinateName").String()
		if !strings.EqualFold(name, "WGS84") {
			continue
		}
		latp := Numeric(firstExisting(c, "StationLatitude", "stationLatitude", "Latitude", "latitude"))
		lonp := Numeric(firstExisting(c, "StationLongitude", "stationLongitude", "Longitude", "longitude"))
		if latp == nil || lonp == nil {
			return 0, 0, false
		}
		return *latp, *lonp, true
	}
	return 0, 0, false
}

// Numeric converts a JSON value to a finite float, accepting number-typed
// and numeric-string values alike. Non-finite and unparseable values map to
// nil, mirroring how missing readings are represented downstream.
func Numeric(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	case gjson.String:
		s := strings.TrimSpace(v.String())
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// firstExisting returns the first path that exists on the node, probing in
// declaration order.
func firstExisting(node gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := node.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// firstNumeric returns the first result that parses to a finite number.
func firstNumeric(results ...gjson.Result) *float64 {
	for _, r := range results {
		if v := Numeric(r); v != nil {
			return v
		}
	}
	return nil
}

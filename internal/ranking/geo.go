package ranking

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/faein/changhuaweather/internal/httputil"
	"github.com/faein/changhuaweather/internal/region"
)

// feature is one county boundary with its parsed polygon rings. Only the
// outer ring of each polygon participates in containment tests.
type feature struct {
	name     string
	polygons [][][2]float64 // outer rings only
}

// Resolver answers point-in-county queries against a boundary collection.
type Resolver struct {
	features []feature
}

// ParseFeatureCollection reads a GeoJSON FeatureCollection of county
// boundaries. Polygon and MultiPolygon geometries are supported; other
// geometry types are skipped.
func ParseFeatureCollection(data []byte) (*Resolver, error) {
	doc := gjson.ParseBytes(data)
	feats := doc.Get("features")
	if !feats.IsArray() {
		return nil, fmt.Errorf("geojson: missing features array")
	}

	var r Resolver
	for _, f := range feats.Array() {
		props := f.Get("properties")
		name := props.Get("COUNTYNAME").String()
		if name == "" {
			name = props.Get("name").String()
		}
		geom := f.Get("geometry")
		var outers [][][2]float64
		switch geom.Get("type").String() {
		case "Polygon":
			if ring := parseOuterRing(geom.Get("coordinates")); ring != nil {
				outers = append(outers, ring)
			}
		case "MultiPolygon":
			for _, poly := range geom.Get("coordinates").Array() {
				if ring := parseOuterRing(poly); ring != nil {
					outers = append(outers, ring)
				}
			}
		}
		if name != "" && len(outers) > 0 {
			r.features = append(r.features, feature{name: name, polygons: outers})
		}
	}
	return &r, nil
}

// ResolveCounty returns the canonical county containing the point, walking
// features in document order.
func (r *Resolver) ResolveCounty(lon, lat float64) (string, bool) {
	for _, f := range r.features {
		for _, ring := range f.polygons {
			if ringContains(ring, lon, lat) {
				return region.Canonical(f.name), true
			}
		}
	}
	return "", false
}

func parseOuterRing(rings gjson.Result) [][2]float64 {
	arr := rings.Array()
	if len(arr) == 0 {
		return nil
	}
	var ring [][2]float64
	for _, pt := range arr[0].Array() {
		coords := pt.Array()
		if len(coords) < 2 {
			continue
		}
		ring = append(ring, [2]float64{coords[0].Float(), coords[1].Float()})
	}
	if len(ring) < 3 {
		return nil
	}
	return ring
}

// ringContains is the even-odd ray cast over one ring.
func ringContains(ring [][2]float64, x, y float64) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Locator lazily fetches the county boundary file and resolves coordinates
// to counties.
type Locator struct {
	url    string
	client *http.Client

	mu       sync.Mutex
	resolver *Resolver
}

func NewLocator(url string) *Locator {
	return &Locator{url: url, client: httputil.NewClient()}
}

// Resolve maps a coordinate to its canonical county name.
func (l *Locator) Resolve(ctx context.Context, lon, lat float64) (string, bool, error) {
	r, err := l.load(ctx)
	if err != nil {
		return "", false, err
	}
	county, ok := r.ResolveCounty(lon, lat)
	return county, ok, nil
}

func (l *Locator) load(ctx context.Context) (*Resolver, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.resolver != nil {
		return l.resolver, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load county boundaries: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load county boundaries: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	r, err := ParseFeatureCollection(body)
	if err != nil {
		return nil, err
	}
	l.resolver = r
	return r, nil
}

// Package transit approximates commute times over a static table of MRT
// stations. It is a distance-based proxy, not a router: line topology and
// transfers are not modeled.
package transit

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"rent591/models"
)

const earthRadiusKm = 6371.0

// stationSuffixes are stripped from station names, longest first.
var stationSuffixes = []string{"火車站", "捷運站", "站"}

// Coord is a latitude/longitude pair in degrees.
type Coord struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Valid reports whether the coordinate is finite and on the globe.
func (c Coord) Valid() bool {
	return models.ValidCoords(c.Lat, c.Lon)
}

// UnmarshalYAML accepts either a {lat, lon} mapping or a [lat, lon] pair.
func (c *Coord) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var pair []float64
		if err := value.Decode(&pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("coords: want [lat, lon], got %d values", len(pair))
		}
		c.Lat, c.Lon = pair[0], pair[1]
		return nil
	}
	type plain Coord
	return value.Decode((*plain)(c))
}

// Graph is an immutable station name -> coordinate table. It is safe for
// concurrent use once constructed.
type Graph struct {
	stations map[string]Coord
}

// NewGraph copies the given table into a new Graph.
func NewGraph(stations map[string]Coord) *Graph {
	g := &Graph{stations: make(map[string]Coord, len(stations))}
	for name, c := range stations {
		g.stations[name] = c
	}
	return g
}

// Len returns the number of stations.
func (g *Graph) Len() int {
	return len(g.stations)
}

// Names returns the station names in sorted order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.stations))
	for name := range g.stations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Coords returns the coordinates of an exact station name.
func (g *Graph) Coords(name string) (Coord, bool) {
	c, ok := g.stations[name]
	return c, ok
}

// Lookup resolves a station name, retrying with each known suffix stripped
// when the direct lookup misses. It returns the resolved bare name.
func (g *Graph) Lookup(name string) (string, Coord, bool) {
	if name == "" {
		return "", Coord{}, false
	}
	if c, ok := g.stations[name]; ok {
		return name, c, true
	}
	for _, suffix := range stationSuffixes {
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		bare := strings.TrimSuffix(name, suffix)
		if c, ok := g.stations[bare]; ok {
			return bare, c, true
		}
	}
	return "", Coord{}, false
}

// Haversine returns the great-circle distance in kilometers between two points.
// All distance math in the module goes through this function.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is Haversine over two Coords.
func Distance(a, b Coord) float64 {
	return Haversine(a.Lat, a.Lon, b.Lat, b.Lon)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

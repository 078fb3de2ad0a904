package transit

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"rent591/models"
)

const (
	walkPaceMPerMin = 80.0
	mrtSpeedKmh     = 25.0
	kmPerStop       = 0.8
	bikeSpeedKmh    = 15.0
	streetFactor    = 1.3

	// DefaultWalkFromStationMin is the walk from the reference station to the
	// reference point when none is configured.
	DefaultWalkFromStationMin = 4.0
)

var (
	// leadingFillers are stripped repeatedly from the start of a transit reference.
	leadingFillers = []string{"本房屋近", "距離", "距", "近", "捷運"}

	cjkRunRegex     = regexp.MustCompile(`[\x{4e00}-\x{9fff}]+`)
	stationDistance = regexp.MustCompile(`[(（]\s*(\d+)\s*(?:m|公尺)?\s*[)）]`)
)

// Reference is the user-configured commute destination.
type Reference struct {
	Name               string  `yaml:"name"`
	Coord              Coord   `yaml:"coords"`
	Station            string  `yaml:"station"`
	WalkFromStationMin float64 `yaml:"walk_from_station_min"`
}

// Estimator computes approximate MRT and bike commute times to a Reference.
// Transfers are always zero: the station table carries no line topology, so
// the MRT leg is a straight-line distance proxy.
type Estimator struct {
	graph      *Graph
	ref        Reference
	refStation string
	refCoord   Coord
	hasStation bool
}

// NewEstimator builds an estimator over graph g for reference ref.
func NewEstimator(g *Graph, ref Reference) *Estimator {
	e := &Estimator{graph: g, ref: ref}
	if name, c, ok := g.Lookup(ref.Station); ok {
		e.refStation = name
		e.refCoord = c
		e.hasStation = true
	}
	return e
}

// Reference returns the configured reference point.
func (e *Estimator) Reference() Reference {
	return e.ref
}

// ParseReference splits a free-text transit reference such as "距後山埤站 (266m)"
// into a bare station name and an optional distance in meters.
func ParseReference(text string) (string, *int) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	cleaned := text
	for stripped := true; stripped; {
		stripped = false
		for _, filler := range leadingFillers {
			if strings.HasPrefix(cleaned, filler) {
				cleaned = strings.TrimPrefix(cleaned, filler)
				stripped = true
				break
			}
		}
	}

	station := cjkRunRegex.FindString(cleaned)
	for _, suffix := range stationSuffixes {
		if strings.HasSuffix(station, suffix) && len(station) > len(suffix) {
			station = strings.TrimSuffix(station, suffix)
			break
		}
	}

	var distance *int
	if m := stationDistance.FindStringSubmatch(text); m != nil {
		if d, err := strconv.Atoi(m[1]); err == nil {
			distance = &d
		}
	}

	return station, distance
}

// Transit estimates the MRT leg from station to the reference point. It
// returns nil when either the station or the reference station is unknown.
func (e *Estimator) Transit(station string, distanceM *int) *models.TransitLeg {
	if !e.hasStation || station == "" {
		return nil
	}
	name, coord, ok := e.resolve(station)
	if !ok {
		return nil
	}

	leg := &models.TransitLeg{Route: "Estimated"}
	if name == e.refStation {
		leg.Route = "At reference station"
	} else {
		km := Distance(coord, e.refCoord)
		leg.RideMin = int(km / mrtSpeedKmh * 60)
		leg.Stops = max(1, int(km/kmPerStop))
	}

	var walk float64
	if distanceM != nil && *distanceM > 0 {
		walk = float64(*distanceM) / walkPaceMPerMin
	}
	leg.WalkToStationMin = round(walk, 1)
	leg.TimeMin = round(walk+float64(leg.RideMin)+e.walkFromStation(), 1)
	return leg
}

// Cycle estimates the bike leg. It uses the listing coordinates when given and
// falls back to the station coordinates; it returns nil when neither exists.
func (e *Estimator) Cycle(from *Coord, station string) *models.CycleLeg {
	var origin Coord
	switch {
	case from != nil:
		if !from.Valid() {
			return nil
		}
		origin = *from
	case station != "":
		_, c, ok := e.resolve(station)
		if !ok {
			return nil
		}
		origin = c
	default:
		return nil
	}

	km := Distance(origin, e.ref.Coord)
	street := km * streetFactor
	return &models.CycleLeg{
		TimeMin:          round(street/bikeSpeedKmh*60, 1),
		DistanceKm:       round(km, 2),
		StreetDistanceKm: round(street, 2),
	}
}

// Estimate parses a transit reference and returns the faster of the MRT and
// bike legs. An unresolvable station with no coordinates yields a Commute whose
// time and mode are nil.
func (e *Estimator) Estimate(text string, from *Coord) models.Commute {
	station, distance := ParseReference(text)

	result := models.Commute{DistanceToStationM: distance}
	if station != "" {
		result.StationName = models.StringPtr(station)
	}

	result.MRT = e.Transit(station, distance)
	result.Bike = e.Cycle(from, station)

	mrtTime, bikeTime := math.Inf(1), math.Inf(1)
	if result.MRT != nil {
		mrtTime = result.MRT.TimeMin
	}
	if result.Bike != nil {
		bikeTime = result.Bike.TimeMin
	}
	if math.IsInf(mrtTime, 1) && math.IsInf(bikeTime, 1) {
		return result
	}

	if mrtTime <= bikeTime {
		result.TimeMin = models.FloatPtr(round(mrtTime, 1))
		result.Mode = models.StringPtr(models.ModeMRT)
	} else {
		result.TimeMin = models.FloatPtr(round(bikeTime, 1))
		result.Mode = models.StringPtr(models.ModeBike)
	}
	return result
}

// resolve looks a station up, also trying the name with a trailing "站"
// restored, since some table keys (台北車站) keep the suffix.
func (e *Estimator) resolve(station string) (string, Coord, bool) {
	if name, c, ok := e.graph.Lookup(station); ok {
		return name, c, true
	}
	return e.graph.Lookup(station + "站")
}

func (e *Estimator) walkFromStation() float64 {
	if e.ref.WalkFromStationMin > 0 {
		return e.ref.WalkFromStationMin
	}
	return DefaultWalkFromStationMin
}

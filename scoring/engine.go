// Package scoring reduces a listing to a single weighted 0-100 score.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"rent591/models"
	"rent591/transit"
)

// FactorScore is one factor's contribution to a listing's score.
type FactorScore struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Weight  int     `json:"weight"`
	Applied bool    `json:"applied"`
}

// Breakdown is the per-factor view of a score. Factors always lists all five
// factors in a fixed order; Applied is false for those left out.
type Breakdown struct {
	Factors     []FactorScore `json:"factors"`
	TotalWeight int           `json:"total_weight"`
	Score       float64       `json:"score"`
}

// Engine scores listings against a set of weights. The estimator is used to
// fill in commute fields before scoring; a nil estimator skips enrichment.
type Engine struct {
	estimator *transit.Estimator
	weights   Weights
}

// NewEngine creates a scoring engine.
func NewEngine(estimator *transit.Estimator, weights Weights) *Engine {
	return &Engine{estimator: estimator, weights: weights}
}

// Weights returns the engine's weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Evaluate computes the score breakdown without touching the listing. Commute
// is taken from the listing as is.
func (e *Engine) Evaluate(l *models.Listing) Breakdown {
	factors := []struct {
		name   string
		weight int
		fn     func(*models.Listing) (float64, bool)
	}{
		{FactorLease, e.weights.Lease, leaseScore},
		{FactorCommute, e.weights.Commute, commuteScore},
		{FactorPrice, e.weights.Price, priceScore},
		{FactorSize, e.weights.Size, sizeScore},
		{FactorAmenities, e.weights.Amenities, amenitiesScore},
	}

	var b Breakdown
	var weighted float64
	for _, f := range factors {
		fs := FactorScore{Name: f.name, Weight: f.weight}
		if s, ok := f.fn(l); ok {
			fs.Score = s
			if f.weight > 0 {
				fs.Applied = true
				weighted += s * float64(f.weight)
				b.TotalWeight += f.weight
			}
		}
		b.Factors = append(b.Factors, fs)
	}

	if b.TotalWeight > 0 {
		b.Score = round1(weighted / float64(b.TotalWeight))
	}
	return b
}

// Enrich estimates the commute for l and stores the result on it. The transit
// text is rebuilt as "<station> (<m>m)" so the estimator sees the distance.
func (e *Engine) Enrich(l *models.Listing) {
	if e.estimator == nil {
		return
	}

	var text string
	if l.MRTStation != nil {
		text = *l.MRTStation
	}
	if l.MRTDistanceM != nil && *l.MRTDistanceM > 0 {
		text = fmt.Sprintf("%s (%dm)", text, *l.MRTDistanceM)
	}

	var from *transit.Coord
	if l.HasCoords() {
		from = &transit.Coord{Lat: *l.Lat, Lon: *l.Lng}
	}

	c := e.estimator.Estimate(text, from)
	l.CommuteTimeMin = c.TimeMin
	l.TransportMode = c.Mode
	l.CommuteDetails = nil
	if c.MRT != nil || c.Bike != nil {
		l.CommuteDetails = &models.CommuteDetails{MRT: c.MRT, Bike: c.Bike}
	}
}

// Score enriches the commute fields, then computes and stores the score.
// Enrichment must come first or commute is treated as missing.
func (e *Engine) Score(l *models.Listing) float64 {
	e.Enrich(l)
	s := e.Evaluate(l).Score
	l.Score = models.FloatPtr(s)
	return s
}

// Rank scores every listing and sorts them by descending score. Ties keep
// their input order.
func (e *Engine) Rank(listings []*models.Listing) {
	for _, l := range listings {
		e.Score(l)
	}
	SortByScore(listings)
}

// SortByScore orders already-scored listings by descending score, stable.
func SortByScore(listings []*models.Listing) {
	sort.SliceStable(listings, func(i, j int) bool {
		return listings[i].ScoreValue() > listings[j].ScoreValue()
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

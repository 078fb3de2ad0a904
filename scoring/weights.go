package scoring

import "fmt"

// Factor names, also used as keys in a Breakdown.
const (
	FactorLease     = "lease"
	FactorCommute   = "commute"
	FactorPrice     = "price"
	FactorSize      = "size"
	FactorAmenities = "amenities"
)

// Weights are the relative importance of each factor. A zero weight disables
// the factor.
type Weights struct {
	Commute   int `yaml:"commute" json:"commute"`
	Lease     int `yaml:"lease" json:"lease"`
	Price     int `yaml:"price" json:"price"`
	Size      int `yaml:"size" json:"size"`
	Amenities int `yaml:"amenities" json:"amenities"`
}

// DefaultWeights favour commute, then lease flexibility.
func DefaultWeights() Weights {
	return Weights{
		Commute:   3,
		Lease:     2,
		Price:     1,
		Size:      1,
		Amenities: 1,
	}
}

// Validate rejects negative weights. All-zero weights are allowed and make
// every listing score 0.
func (w Weights) Validate() error {
	for name, v := range w.byName() {
		if v < 0 {
			return fmt.Errorf("scoring weight %s is negative: %d", name, v)
		}
	}
	return nil
}

// Total is the sum of all weights.
func (w Weights) Total() int {
	return w.Commute + w.Lease + w.Price + w.Size + w.Amenities
}

func (w Weights) byName() map[string]int {
	return map[string]int{
		FactorLease:     w.Lease,
		FactorCommute:   w.Commute,
		FactorPrice:     w.Price,
		FactorSize:      w.Size,
		FactorAmenities: w.Amenities,
	}
}

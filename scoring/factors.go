package scoring

import "rent591/models"

// Each factor maps one listing attribute to [0, 100]. ok is false when the
// input is missing or zero, in which case the factor is left out entirely.

func leaseScore(l *models.Listing) (float64, bool) {
	if l.MinTenancyMonths == nil || *l.MinTenancyMonths == 0 {
		return 0, false
	}
	switch m := *l.MinTenancyMonths; {
	case m <= 1:
		return 100, true
	case m <= 3:
		return 90, true
	case m <= 6:
		return 70, true
	case m <= 12:
		return 40, true
	default:
		return 20, true
	}
}

func commuteScore(l *models.Listing) (float64, bool) {
	if l.CommuteTimeMin == nil || *l.CommuteTimeMin == 0 {
		return 0, false
	}
	switch t := *l.CommuteTimeMin; {
	case t <= 10:
		return 100, true
	case t <= 15:
		return 85, true
	case t <= 20:
		return 70, true
	case t <= 30:
		return 50, true
	case t <= 45:
		return 30, true
	default:
		return 10, true
	}
}

// priceScore is linear from 100 at NT$15,000 down to 0 at NT$50,000.
func priceScore(l *models.Listing) (float64, bool) {
	if l.BaseRentNT == nil || *l.BaseRentNT <= 0 {
		return 0, false
	}
	return clamp(100-float64(*l.BaseRentNT-15000)/350, 0, 100), true
}

// sizeScore is the floor area in sqm itself, bounded to [10, 100].
func sizeScore(l *models.Listing) (float64, bool) {
	if l.SizeSqm == nil || *l.SizeSqm <= 0 {
		return 0, false
	}
	return clamp(*l.SizeSqm, 10, 100), true
}

var amenityBonus = []struct {
	flag  func(l *models.Listing) *bool
	bonus float64
}{
	{func(l *models.Listing) *bool { return l.WashingMachine }, 30},
	{func(l *models.Listing) *bool { return l.Balcony }, 25},
	{func(l *models.Listing) *bool { return l.AC }, 20},
	{func(l *models.Listing) *bool { return l.PetsAllowed }, 15},
	{func(l *models.Listing) *bool { return l.Parking }, 10},
}

// amenitiesScore only counts when at least one amenity is present.
func amenitiesScore(l *models.Listing) (float64, bool) {
	var total float64
	present := 0
	for _, a := range amenityBonus {
		if v := a.flag(l); v != nil && *v {
			total += a.bonus
			present++
		}
	}
	if present == 0 {
		return 0, false
	}
	return min(total, 100), true
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

package models

import "time"

// Price confidence levels recorded alongside the extracted base rent.
const (
	PriceConfidenceHigh = "high"
	PriceConfidenceLow  = "low"
)

// Listing is one rental unit parsed from a 591 listing page.
//
// Nullable fields are pointers and are serialized without omitempty so that a
// field that could not be extracted round-trips as null rather than vanishing.
type Listing struct {
	ID    string  `json:"id"`
	URL   string  `json:"url"`
	Title *string `json:"title"`

	District  *string  `json:"district"`
	AddressZh *string  `json:"address_zh"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`

	SizePing *float64 `json:"size_ping"`
	SizeSqm  *float64 `json:"size_sqm"`
	Layout   *string  `json:"layout"`
	Floor    *string  `json:"floor"`

	MinTenancyMonths *int `json:"min_tenancy_months"`
	DepositMonths    *int `json:"deposit_months"`

	BaseRentNT          *int     `json:"base_rent_nt"`
	PriceConfidence     string   `json:"price_confidence,omitempty"`
	ManagementFeeNT     *int     `json:"management_fee_nt"`
	UtilitiesEstimateNT *int     `json:"utilities_estimate_nt"`
	TotalMonthlyNT      *int     `json:"total_monthly_nt"`
	TotalMonthlyEUR     *float64 `json:"total_monthly_eur"`
	UpfrontCostNT       *int     `json:"upfront_cost_nt"`
	UpfrontCostEUR      *float64 `json:"upfront_cost_eur"`

	WashingMachine *bool `json:"washing_machine"`
	AC             *bool `json:"ac"`
	Balcony        *bool `json:"balcony"`
	Parking        *bool `json:"parking"`
	PetsAllowed    *bool `json:"pets_allowed"`

	MRTStation   *string `json:"mrt_station"`
	MRTDistanceM *int    `json:"mrt_distance_m"`

	ImageURLs []string `json:"image_urls"`

	// Set by commute enrichment.
	CommuteTimeMin *float64        `json:"commute_time_min"`
	TransportMode  *string         `json:"transport_mode"`
	CommuteDetails *CommuteDetails `json:"commute_details"`

	// Set by the scoring engine.
	Score *float64 `json:"score"`

	FetchedAt *time.Time `json:"fetched_at"`
	// Set when the page was found gone. Delisted listings are kept.
	DelistedAt *time.Time `json:"delisted_at"`
}

// HasCoords reports whether both listing coordinates were extracted.
func (l *Listing) HasCoords() bool {
	return l.Lat != nil && l.Lng != nil
}

// ValidCoords reports whether lat and lng lie inside WGS84 bounds. NaN and
// infinities never do.
func ValidCoords(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// IsUsable reports whether the listing carries at least a price or a size.
func (l *Listing) IsUsable() bool {
	return l.BaseRentNT != nil || l.SizePing != nil
}

// IsDelisted reports whether the listing was found gone on a refresh.
func (l *Listing) IsDelisted() bool {
	return l.DelistedAt != nil
}

// ScoreValue returns the score or 0 when the listing was never scored.
func (l *Listing) ScoreValue() float64 {
	if l.Score == nil {
		return 0
	}
	return *l.Score
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

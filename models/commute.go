package models

// Transport modes chosen by the commute estimator.
const (
	ModeMRT  = "MRT"
	ModeBike = "Bike"
)

// TransitLeg is the approximate MRT journey from a listing to the reference point.
type TransitLeg struct {
	TimeMin          float64 `json:"mrt_time_min"`
	RideMin          int     `json:"mrt_ride_min"`
	WalkToStationMin float64 `json:"walk_to_station_min"`
	Stops            int     `json:"stops"`
	Transfers        int     `json:"transfers"`
	Route            string  `json:"route"`
}

// CycleLeg is the approximate bike journey from a listing to the reference point.
type CycleLeg struct {
	TimeMin          float64 `json:"bike_time_min"`
	DistanceKm       float64 `json:"distance_km"`
	StreetDistanceKm float64 `json:"street_distance_km"`
}

// CommuteDetails keeps both per-mode breakdowns on the listing.
type CommuteDetails struct {
	MRT  *TransitLeg `json:"mrt"`
	Bike *CycleLeg   `json:"bike"`
}

// Commute is the estimator output. TimeMin is nil when neither mode resolved.
type Commute struct {
	TimeMin            *float64    `json:"commute_time_min"`
	Mode               *string     `json:"transport_mode"`
	MRT                *TransitLeg `json:"mrt_details"`
	Bike               *CycleLeg   `json:"bike_details"`
	StationName        *string     `json:"station_name"`
	DistanceToStationM *int        `json:"distance_to_station_m"`
}

// Resolved reports whether at least one mode produced a duration.
func (c Commute) Resolved() bool {
	return c.TimeMin != nil
}

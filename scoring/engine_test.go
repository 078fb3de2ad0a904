package scoring

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent591/models"
	"rent591/transit"
)

func taipeiEngine() *Engine {
	ref := transit.Reference{
		Name:               "Taipei Main Station",
		Coord:              transit.Coord{Lat: 25.0478, Lon: 121.5170},
		Station:            "台北車站",
		WalkFromStationMin: 4,
	}
	return NewEngine(transit.NewEstimator(transit.TaipeiGraph(), ref), DefaultWeights())
}

func factor(b Breakdown, name string) FactorScore {
	for _, f := range b.Factors {
		if f.Name == name {
			return f
		}
	}
	return FactorScore{}
}

func TestEvaluate_PerfectListing(t *testing.T) {
	l := &models.Listing{
		MinTenancyMonths: models.IntPtr(1),
		CommuteTimeMin:   models.FloatPtr(5),
		BaseRentNT:       models.IntPtr(15000),
		SizeSqm:          models.FloatPtr(100),
		WashingMachine:   models.BoolPtr(true),
		AC:               models.BoolPtr(true),
		Balcony:          models.BoolPtr(true),
		Parking:          models.BoolPtr(true),
		PetsAllowed:      models.BoolPtr(true),
	}

	b := NewEngine(nil, DefaultWeights()).Evaluate(l)
	require.Len(t, b.Factors, 5)
	for _, f := range b.Factors {
		assert.True(t, f.Applied, f.Name)
		assert.Equal(t, 100.0, f.Score, f.Name)
	}
	assert.Equal(t, 8, b.TotalWeight)
	assert.Equal(t, 100.0, b.Score)
}

func TestEvaluate_MissingData(t *testing.T) {
	l := &models.Listing{
		MinTenancyMonths: models.IntPtr(12),
		SizeSqm:          models.FloatPtr(50),
	}

	b := NewEngine(nil, DefaultWeights()).Evaluate(l)
	assert.Equal(t, 3, b.TotalWeight)
	assert.Equal(t, 43.3, b.Score)
	assert.False(t, factor(b, FactorCommute).Applied)
	assert.False(t, factor(b, FactorPrice).Applied)
	assert.False(t, factor(b, FactorAmenities).Applied)
}

func TestEvaluate_NoUsableInput(t *testing.T) {
	b := NewEngine(nil, DefaultWeights()).Evaluate(&models.Listing{
		BaseRentNT:     models.IntPtr(0),
		WashingMachine: models.BoolPtr(false),
	})
	assert.Zero(t, b.TotalWeight)
	assert.Zero(t, b.Score)
}

func TestEvaluate_ZeroWeights(t *testing.T) {
	l := &models.Listing{MinTenancyMonths: models.IntPtr(1), SizeSqm: models.FloatPtr(30)}
	assert.Zero(t, NewEngine(nil, Weights{}).Evaluate(l).Score)

	// A zero weight drops only its own factor.
	w := DefaultWeights()
	w.Lease = 0
	b := NewEngine(nil, w).Evaluate(l)
	assert.False(t, factor(b, FactorLease).Applied)
	assert.Equal(t, 30.0, b.Score)
}

func TestEvaluate_DoesNotMutate(t *testing.T) {
	l := &models.Listing{MRTStation: models.StringPtr("市政府站"), SizeSqm: models.FloatPtr(20)}
	taipeiEngine().Evaluate(l)
	assert.Nil(t, l.Score)
	assert.Nil(t, l.CommuteTimeMin)
}

func TestFactorTables(t *testing.T) {
	lease := map[int]float64{1: 100, 2: 90, 3: 90, 6: 70, 7: 40, 12: 40, 13: 20, 24: 20}
	for months, want := range lease {
		got, ok := leaseScore(&models.Listing{MinTenancyMonths: models.IntPtr(months)})
		assert.True(t, ok)
		assert.Equal(t, want, got, "lease %d", months)
	}

	commute := map[float64]float64{5: 100, 10: 100, 10.1: 85, 15: 85, 20: 70, 30: 50, 45: 30, 46: 10}
	for minutes, want := range commute {
		got, ok := commuteScore(&models.Listing{CommuteTimeMin: models.FloatPtr(minutes)})
		assert.True(t, ok)
		assert.Equal(t, want, got, "commute %v", minutes)
	}

	price := map[int]float64{10000: 100, 15000: 100, 32500: 50, 50000: 0, 60000: 0}
	for rent, want := range price {
		got, ok := priceScore(&models.Listing{BaseRentNT: models.IntPtr(rent)})
		assert.True(t, ok)
		assert.InDelta(t, want, got, 1e-9, "price %d", rent)
	}

	size := map[float64]float64{5: 10, 10: 10, 42.5: 42.5, 100: 100, 150: 100}
	for sqm, want := range size {
		got, ok := sizeScore(&models.Listing{SizeSqm: models.FloatPtr(sqm)})
		assert.True(t, ok)
		assert.Equal(t, want, got, "size %v", sqm)
	}
}

func TestAmenitiesScore(t *testing.T) {
	got, ok := amenitiesScore(&models.Listing{Parking: models.BoolPtr(true), WashingMachine: models.BoolPtr(false)})
	assert.True(t, ok)
	assert.Equal(t, 10.0, got)

	got, ok = amenitiesScore(&models.Listing{WashingMachine: models.BoolPtr(true), Balcony: models.BoolPtr(true)})
	assert.True(t, ok)
	assert.Equal(t, 55.0, got)

	_, ok = amenitiesScore(&models.Listing{AC: models.BoolPtr(false)})
	assert.False(t, ok)
}

func TestScore_EnrichesCommuteFirst(t *testing.T) {
	l := &models.Listing{
		MRTStation:       models.StringPtr("市政府站"),
		MRTDistanceM:     models.IntPtr(77),
		MinTenancyMonths: models.IntPtr(12),
	}

	s := taipeiEngine().Score(l)

	require.NotNil(t, l.CommuteTimeMin)
	assert.Equal(t, 17.0, *l.CommuteTimeMin)
	require.NotNil(t, l.TransportMode)
	assert.Equal(t, models.ModeMRT, *l.TransportMode)
	require.NotNil(t, l.CommuteDetails)
	require.NotNil(t, l.CommuteDetails.MRT)
	assert.NotNil(t, l.CommuteDetails.Bike)

	// (lease 2*40 + commute 3*70) / 5
	assert.Equal(t, 58.0, s)
	require.NotNil(t, l.Score)
	assert.Equal(t, s, *l.Score)
}

func TestScore_UnknownStationLeavesCommuteNull(t *testing.T) {
	l := &models.Listing{
		MRTStation:     models.StringPtr("不存在站"),
		SizeSqm:        models.FloatPtr(40),
		CommuteTimeMin: models.FloatPtr(3),
	}

	s := taipeiEngine().Score(l)
	assert.Nil(t, l.CommuteTimeMin)
	assert.Nil(t, l.TransportMode)
	assert.Nil(t, l.CommuteDetails)
	assert.Equal(t, 40.0, s)
}

func TestScore_Idempotent(t *testing.T) {
	l := &models.Listing{
		MRTStation:       models.StringPtr("大安站"),
		MRTDistanceM:     models.IntPtr(350),
		MinTenancyMonths: models.IntPtr(6),
		BaseRentNT:       models.IntPtr(21000),
		SizeSqm:          models.FloatPtr(33),
		AC:               models.BoolPtr(true),
	}
	e := taipeiEngine()

	first := e.Score(l)
	second := e.Score(l)
	assert.Equal(t, first, second)
}

func TestRank_DescendingAndStable(t *testing.T) {
	tieA := &models.Listing{ID: "a", MinTenancyMonths: models.IntPtr(12)}
	high := &models.Listing{ID: "high", MinTenancyMonths: models.IntPtr(1)}
	tieB := &models.Listing{ID: "b", MinTenancyMonths: models.IntPtr(12)}
	none := &models.Listing{ID: "none"}

	listings := []*models.Listing{none, tieA, high, tieB}
	NewEngine(nil, DefaultWeights()).Rank(listings)

	var ids []string
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"high", "a", "b", "none"}, ids)
	assert.Equal(t, 0.0, *none.Score)
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.NoError(t, Weights{}.Validate())

	w := DefaultWeights()
	w.Price = -1
	assert.ErrorContains(t, w.Validate(), "price")
}

func TestWriteSummary(t *testing.T) {
	listings := []*models.Listing{
		{
			ID:               "1",
			URL:              "https://rent.591.com.tw/1",
			BaseRentNT:       models.IntPtr(18500),
			SizePing:         models.FloatPtr(10),
			District:         models.StringPtr("Da'an"),
			CommuteTimeMin:   models.FloatPtr(17),
			MinTenancyMonths: models.IntPtr(12),
			Score:            models.FloatPtr(58),
		},
		{ID: "2", URL: "https://rent.591.com.tw/2"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, listings, 1))

	out := buf.String()
	assert.Contains(t, out, "TOP 1 LISTINGS BY SCORE")
	assert.Contains(t, out, " 1. Score:  58.0 | NT$18,500 | 10 ping | Da'an")
	assert.Contains(t, out, "Commute: 17.0 min | Min lease: 12 mo")
	assert.NotContains(t, out, "rent.591.com.tw/2")

	buf.Reset()
	require.NoError(t, WriteSummary(&buf, listings, 10))
	assert.Contains(t, buf.String(), "TOP 2 LISTINGS BY SCORE")
	assert.Contains(t, buf.String(), "NT$? | ? ping | ?")
}

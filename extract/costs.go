package extract

import (
	"math"

	"rent591/models"
)

// SqmPerPing converts ping to square meters.
const SqmPerPing = 3.3

// Rates are the fixed figures used to derive cost fields.
type Rates struct {
	NTToEUR                 float64 `yaml:"nt_to_eur"`
	UtilitiesBaseNT         int     `yaml:"utilities_base_nt"`
	ElectricityPerSqmNT     int     `yaml:"electricity_per_sqm_nt"`
	ElectricityNoACPerSqmNT int     `yaml:"electricity_no_ac_per_sqm_nt"`
	DefaultDepositMonths    int     `yaml:"default_deposit_months"`
}

// DefaultRates returns the rates used when none are configured.
func DefaultRates() Rates {
	return Rates{
		NTToEUR:                 0.027,
		UtilitiesBaseNT:         2000,
		ElectricityPerSqmNT:     70,
		ElectricityNoACPerSqmNT: 30,
		DefaultDepositMonths:    2,
	}
}

// PingToSqm converts ping to square meters rounded to one decimal.
func PingToSqm(ping float64) float64 {
	return math.Round(ping*SqmPerPing*10) / 10
}

// EstimateUtilities returns the monthly utilities estimate in NT$: a base
// allowance plus an electricity figure per square meter, lower without AC.
func (r Rates) EstimateUtilities(sqm float64, hasAC bool) int {
	perSqm := r.ElectricityNoACPerSqmNT
	if hasAC {
		perSqm = r.ElectricityPerSqmNT
	}
	return int(float64(r.UtilitiesBaseNT) + sqm*float64(perSqm))
}

// ToEUR converts NT$ at the fixed rate, rounded to cents.
func (r Rates) ToEUR(nt int) float64 {
	return math.Round(float64(nt)*r.NTToEUR*100) / 100
}

// derive fills the size and cost fields whose inputs are present. A derived
// field is never set without its source.
func (e *Extractor) derive(l *models.Listing) {
	if l.SizePing != nil {
		l.SizeSqm = models.FloatPtr(PingToSqm(*l.SizePing))
	}

	if l.SizeSqm != nil {
		hasAC := l.AC == nil || *l.AC
		l.UtilitiesEstimateNT = models.IntPtr(e.rates.EstimateUtilities(*l.SizeSqm, hasAC))
	}

	if l.BaseRentNT == nil {
		return
	}
	rent := *l.BaseRentNT

	total := rent
	if l.ManagementFeeNT != nil {
		total += *l.ManagementFeeNT
	}
	if l.UtilitiesEstimateNT != nil {
		total += *l.UtilitiesEstimateNT
	}
	l.TotalMonthlyNT = models.IntPtr(total)
	l.TotalMonthlyEUR = models.FloatPtr(e.rates.ToEUR(total))

	deposit := e.rates.DefaultDepositMonths
	if l.DepositMonths != nil {
		deposit = *l.DepositMonths
	}
	upfront := rent * deposit
	l.UpfrontCostNT = models.IntPtr(upfront)
	l.UpfrontCostEUR = models.FloatPtr(e.rates.ToEUR(upfront))
}

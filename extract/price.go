package extract

import (
	"regexp"
	"strconv"
	"strings"

	"rent591/models"
)

// minMonthlyRent separates a monthly rent from per-ping or deposit figures.
const minMonthlyRent = 10000

var (
	strongMonthlyPrice = regexp.MustCompile(`<strong[^>]*>(\d{1,3}(?:,\d{3})*)</strong>\s*元/月`)
	closingStrongPrice = regexp.MustCompile(`>(\d{1,3}(?:,\d{3})*)</strong>\s*元/月`)
	monthlyPriceToken  = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+)\s*元/月`)
	bareFiveSixDigits  = regexp.MustCompile(`>(\d{5,6})<`)
)

// priceStrategy is one step of the rent cascade. Strategies run on raw markup
// because the emphasis tags around the price carry the signal.
type priceStrategy struct {
	name       string
	confidence string
	try        func(raw string) (int, bool)
}

var priceChain = []priceStrategy{
	{"strong-monthly", models.PriceConfidenceHigh, func(raw string) (int, bool) {
		return submatchInt(strongMonthlyPrice, raw, 1)
	}},
	{"closing-strong-monthly", models.PriceConfidenceHigh, func(raw string) (int, bool) {
		return submatchInt(closingStrongPrice, raw, 1)
	}},
	{"monthly-token", models.PriceConfidenceHigh, firstMonthlyToken},
	// Any bare 5-6 digit element text. This can misfire on unrelated numbers,
	// so its result is flagged low confidence.
	{"bare-digits", models.PriceConfidenceLow, func(raw string) (int, bool) {
		return submatchInt(bareFiveSixDigits, raw, 1)
	}},
}

// firstMonthlyToken keeps the first comma-grouped "元/月" figure at or above
// minMonthlyRent.
func firstMonthlyToken(raw string) (int, bool) {
	for _, m := range monthlyPriceToken.FindAllStringSubmatch(raw, -1) {
		v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if v >= minMonthlyRent {
			return v, true
		}
	}
	return 0, false
}

// extractPrice runs the rent cascade and reports which confidence level won.
func extractPrice(doc *document) (int, string, bool) {
	rent, _, confidence, ok := ExtractPrice(doc.raw)
	return rent, confidence, ok
}

// ExtractPrice runs the rent cascade over raw markup. It returns the rent, the
// name of the strategy that matched and its confidence.
func ExtractPrice(raw string) (rent int, strategy, confidence string, ok bool) {
	for _, s := range priceChain {
		if v, found := s.try(raw); found && v > 0 {
			return v, s.name, s.confidence, true
		}
	}
	return 0, "", "", false
}

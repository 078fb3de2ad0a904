package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rent591/models"
)

var (
	sizeRegex   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*坪`)
	layoutRegex = regexp.MustCompile(`(\d+房(?:\d+廳)?(?:\d+衛)?(?:\d+陽台)?)`)

	floorPairRegex   = regexp.MustCompile(`(\d+)\s*[F樓]\s*/\s*(\d+)\s*[F樓]?`)
	floorLooseRegex  = regexp.MustCompile(`(\d+)\s*[F樓]?\s*/\s*(\d+)`)
	floorSingleRegex = regexp.MustCompile(`(\d+)\s*[F樓]`)
	floorLabelRegex  = regexp.MustCompile(`樓層\s*[：:]?\s*([^\s，,]+)`)

	leaseLabelRegex   = regexp.MustCompile(`(?:最短租期|租期)\s*[：:]?\s*([^\s，,、。]+)`)
	leaseMonthsRegex  = regexp.MustCompile(`(\d+)\s*個?月`)
	leaseYearsRegex   = regexp.MustCompile(`(\d+)\s*年`)
	minLeaseRegex     = regexp.MustCompile(`最短租期\s*(\d+)\s*個?月`)
	depositMonthRegex = regexp.MustCompile(`押金\s*(\d+)\s*個?月`)
	depositYearRegex  = regexp.MustCompile(`押金\s*(\d+)\s*年`)

	managementFeeColon = regexp.MustCompile(`管理費\s*[：:]\s*(\d{1,5})\s*元`)
	managementFeeBare  = regexp.MustCompile(`管理費\s*(\d{3,5})`)

	transitLabelled = regexp.MustCompile(`(?:距|近)(?:捷運)?([\x{4e00}-\x{9fff}]{1,10}站)\s*(?:約)?\s*(\d+)\s*(?:公尺|m)`)
	transitLoose    = regexp.MustCompile(`([\x{4e00}-\x{9fff}]+(?:站|捷運站))[^\d]{0,20}(\d+)?`)

	latRegex = regexp.MustCompile(`["']?lat(?:itude)?["']?\s*[:=]\s*["']?(-?\d{1,2}\.\d{3,})`)
	lngRegex = regexp.MustCompile(`["']?(?:lng|lon|longitude)["']?\s*[:=]\s*["']?(-?\d{1,3}\.\d{3,})`)
)

// districts is the closed set of Taipei City districts recognised in listings.
var districts = []struct {
	zh, en string
}{
	{"大安區", "Da'an"},
	{"中正區", "Zhongzheng"},
	{"信義區", "Xinyi"},
	{"松山區", "Songshan"},
	{"中山區", "Zhongshan"},
	{"內湖區", "Neihu"},
	{"南港區", "Nangang"},
	{"士林區", "Shilin"},
	{"北投區", "Beitou"},
	{"萬華區", "Wanhua"},
	{"文山區", "Wenshan"},
	{"大同區", "Datong"},
}

var (
	districtRegex = regexp.MustCompile(`(` + districtAlternation() + `)`)
	addressRegex  = regexp.MustCompile(`((?:` + districtAlternation() + `)[^\s,，]{5,50})`)
)

func districtAlternation() string {
	names := make([]string, len(districts))
	for i, d := range districts {
		names[i] = d.zh
	}
	return strings.Join(names, "|")
}

// DistrictName maps a district name in Chinese to its English identifier.
func DistrictName(zh string) (string, bool) {
	for _, d := range districts {
		if d.zh == zh {
			return d.en, true
		}
	}
	return "", false
}

// DistrictNames returns the English identifiers of all known districts.
func DistrictNames() []string {
	names := make([]string, len(districts))
	for i, d := range districts {
		names[i] = d.en
	}
	return names
}

var sizeChain = []floatStrategy{
	onText(func(text string) (float64, bool) {
		m := sizeRegex.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil && v > 0
	}),
}

var layoutChain = []stringStrategy{
	onText(func(text string) (string, bool) {
		m := layoutRegex.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}),
}

var floorChain = []stringStrategy{
	onText(func(text string) (string, bool) {
		m := floorPairRegex.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return fmt.Sprintf("%sF/%sF", m[1], m[2]), true
	}),
	onSpaced(func(text string) (string, bool) {
		m := floorLabelRegex.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		floor := ParseFloor(m[1])
		return floor, floor != ""
	}),
}

// ParseFloor normalizes a floor descriptor: "4樓/5樓" becomes "4F/5F", "3樓"
// becomes "3F", anything else is returned trimmed. Empty input yields "".
func ParseFloor(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if m := floorLooseRegex.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%sF/%sF", m[1], m[2])
	}
	if m := floorSingleRegex.FindStringSubmatch(text); m != nil {
		return m[1] + "F"
	}
	return text
}

var districtChain = []stringStrategy{
	onText(func(text string) (string, bool) {
		m := districtRegex.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return DistrictName(m[1])
	}),
}

var addressChain = []stringStrategy{
	onSpaced(func(text string) (string, bool) {
		m := addressRegex.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}),
}

// leasePhrases cover the written-out terms. Digit forms go through the
// numeric patterns so "11個月" is never read as "1個月".
var leasePhrases = []phrase{
	{"一個月", 1}, {"月租", 1},
	{"三個月", 3},
	{"半年", 6}, {"六個月", 6},
	{"一年", 12},
	{"兩年", 24}, {"二年", 24},
}

// ParseLeaseTerm converts a lease description into months.
func ParseLeaseTerm(text string) (int, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return 0, false
	}
	if v, ok := submatchInt(leaseMonthsRegex, text, 1); ok && v > 0 {
		return v, true
	}
	if v, ok := submatchInt(leaseYearsRegex, text, 12); ok && v > 0 {
		return v, true
	}
	return phrasesIn(text, leasePhrases)
}

var leaseChain = []intStrategy{
	// A labelled "租期" segment gets the full cascade.
	onSpaced(func(text string) (int, bool) {
		m := leaseLabelRegex.FindStringSubmatch(text)
		if m == nil {
			return 0, false
		}
		return ParseLeaseTerm(m[1])
	}),
	onText(func(text string) (int, bool) {
		return submatchInt(minLeaseRegex, text, 1)
	}),
	// Unlabelled pages: fixed-term phrases anywhere in the text.
	onText(func(text string) (int, bool) {
		return phrasesIn(text, []phrase{
			{"一年", 12},
			{"半年", 6}, {"六個月", 6},
			{"一個月", 1}, {"月租", 1},
			{"兩年", 24}, {"二年", 24},
		})
	}),
}

var depositChain = []intStrategy{
	onText(func(text string) (int, bool) {
		return phrasesIn(text, []phrase{
			{"押金一個月", 1},
			{"押金二個月", 2}, {"押金兩個月", 2},
			{"押金三個月", 3},
			{"押金六個月", 6},
			{"押金一年", 12},
			{"押金兩年", 24}, {"押金二年", 24},
		})
	}),
	onText(func(text string) (int, bool) {
		return submatchInt(depositMonthRegex, text, 1)
	}),
	onText(func(text string) (int, bool) {
		return submatchInt(depositYearRegex, text, 12)
	}),
}

var managementFeeChain = []intStrategy{
	onText(func(text string) (int, bool) {
		return phrasesIn(text, []phrase{{"管理費無", 0}, {"管理費含", 0}, {"管理費已含", 0}})
	}),
	onText(func(text string) (int, bool) {
		return submatchInt(managementFeeColon, text, 1)
	}),
	onText(func(text string) (int, bool) {
		return submatchInt(managementFeeBare, text, 1)
	}),
}

// extractAmenities sets each flag independently from keyword presence.
func extractAmenities(doc *document, l *models.Listing) {
	text := doc.text
	l.WashingMachine = models.BoolPtr(strings.Contains(text, "洗衣機"))
	l.AC = models.BoolPtr(strings.Contains(text, "冷氣") || strings.Contains(text, "空調"))
	l.Balcony = models.BoolPtr(strings.Contains(text, "陽台"))
	l.Parking = models.BoolPtr(strings.Contains(text, "車位") || strings.Contains(text, "停車"))
	l.PetsAllowed = models.BoolPtr(strings.Contains(text, "可養寵") ||
		(strings.Contains(text, "寵物") && !strings.Contains(text, "不可")))
}

// extractTransit finds the nearest-station reference: first a "距X站 N公尺"
// phrase, then the first station-like word with an optional nearby number.
func extractTransit(doc *document) (string, *int, bool) {
	if m := transitLabelled.FindStringSubmatch(doc.spaced); m != nil {
		if d, err := strconv.Atoi(m[2]); err == nil {
			return m[1], &d, true
		}
	}
	m := transitLoose.FindStringSubmatch(doc.spaced)
	if m == nil {
		return "", nil, false
	}
	var distance *int
	if m[2] != "" {
		if d, err := strconv.Atoi(m[2]); err == nil {
			distance = &d
		}
	}
	return m[1], distance, true
}

// extractCoords reads embedded map coordinates. Both must be present and in range.
func extractCoords(doc *document) (float64, float64, bool) {
	latM := latRegex.FindStringSubmatch(doc.raw)
	lngM := lngRegex.FindStringSubmatch(doc.raw)
	if latM == nil || lngM == nil {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(latM[1], 64)
	lng, err2 := strconv.ParseFloat(lngM[1], 64)
	if err1 != nil || err2 != nil || !models.ValidCoords(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}

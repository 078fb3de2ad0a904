// Package extract turns a raw 591 listing page into a models.Listing.
//
// Every field is parsed by an ordered chain of strategies; the first strategy
// that yields a plausible value wins. A field no strategy can parse is left nil.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"rent591/models"
)

// ErrNoRecord is returned when a document cannot be parsed at all.
var ErrNoRecord = errors.New("extract: no record")

// DefaultBaseURL is the listing detail host.
const DefaultBaseURL = "https://rent.591.com.tw"

// document holds the three views of a page the strategies work on.
type document struct {
	raw    string // unparsed markup
	text   string // text nodes concatenated with no separator
	spaced string // text nodes joined by single spaces
	dom    *goquery.Document
}

// Extractor parses listing pages. It holds no mutable state and is safe for
// concurrent use.
type Extractor struct {
	baseURL string
	rates   Rates
}

// New creates an Extractor. An empty baseURL falls back to DefaultBaseURL.
func New(baseURL string, rates Rates) *Extractor {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Extractor{
		baseURL: strings.TrimRight(baseURL, "/"),
		rates:   rates,
	}
}

// Extract parses one listing page. It only fails with ErrNoRecord; a page that
// yields neither price nor size is still returned.
func (e *Extractor) Extract(raw, listingID string) (*models.Listing, error) {
	doc, err := parseDocument(raw)
	if err != nil {
		return nil, err
	}

	l := &models.Listing{
		ID:        listingID,
		URL:       fmt.Sprintf("%s/%s", e.baseURL, listingID),
		ImageURLs: []string{},
	}

	l.Title = extractTitle(doc)

	if rent, confidence, ok := extractPrice(doc); ok {
		l.BaseRentNT = models.IntPtr(rent)
		l.PriceConfidence = confidence
	}

	if v, ok := firstFloat(doc, sizeChain); ok {
		l.SizePing = models.FloatPtr(v)
	}
	if v, ok := firstString(doc, layoutChain); ok {
		l.Layout = models.StringPtr(v)
	}
	if v, ok := firstString(doc, floorChain); ok {
		l.Floor = models.StringPtr(v)
	}
	if v, ok := firstString(doc, districtChain); ok {
		l.District = models.StringPtr(v)
	}
	if v, ok := firstString(doc, addressChain); ok {
		l.AddressZh = models.StringPtr(v)
	}
	if v, ok := firstInt(doc, depositChain); ok {
		l.DepositMonths = models.IntPtr(v)
	}
	if v, ok := firstInt(doc, leaseChain); ok {
		l.MinTenancyMonths = models.IntPtr(v)
	}
	if v, ok := firstInt(doc, managementFeeChain); ok {
		l.ManagementFeeNT = models.IntPtr(v)
	}

	extractAmenities(doc, l)

	if station, distance, ok := extractTransit(doc); ok {
		l.MRTStation = models.StringPtr(station)
		l.MRTDistanceM = distance
	}
	if lat, lng, ok := extractCoords(doc); ok {
		l.Lat = models.FloatPtr(lat)
		l.Lng = models.FloatPtr(lng)
	}

	l.ImageURLs = ExtractImageURLs(raw)

	e.derive(l)
	return l, nil
}

func parseDocument(raw string) (*document, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoRecord
	}

	dom, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecord, err)
	}

	var parts []string
	dom.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		collectText(s.Nodes[0], &parts)
	})

	var trimmed []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			trimmed = append(trimmed, t)
		}
	}

	return &document{
		raw:    raw,
		text:   strings.Join(parts, ""),
		spaced: strings.Join(trimmed, " "),
		dom:    dom,
	}, nil
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		*parts = append(*parts, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func extractTitle(doc *document) *string {
	for _, sel := range []string{"h1", "title"} {
		if t := strings.TrimSpace(doc.dom.Find(sel).First().Text()); t != "" {
			return models.StringPtr(t)
		}
	}
	return nil
}

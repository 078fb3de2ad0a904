package extract

import (
	"regexp"
	"strings"
)

const (
	// MaxImages caps the number of photo URLs kept per listing.
	MaxImages = 20

	highResSuffix = "!1000x.water2.jpg"
)

// imageRegex matches 591 photo URLs: a date-organized path, a numeric file
// name and an optional inline sizing suffix ("!750x588.water2.jpg").
var imageRegex = regexp.MustCompile(`https://img\d\.591\.com\.tw/house/\d{4}/\d{2}/\d{2}/(\d+)\.jpg(?:!\d+x[^"'\s<>]*)?`)

// ExtractImageURLs returns up to MaxImages photo URLs in first-seen order,
// deduplicated by numeric image id, each rewritten to the high-res variant.
func ExtractImageURLs(raw string) []string {
	urls := []string{}
	seen := make(map[string]struct{})

	for _, m := range imageRegex.FindAllStringSubmatch(raw, -1) {
		id := m[1]
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		base, _, _ := strings.Cut(m[0], "!")
		urls = append(urls, base+highResSuffix)
		if len(urls) == MaxImages {
			break
		}
	}

	return urls
}

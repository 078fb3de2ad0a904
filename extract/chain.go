package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Strategies are pure functions over a document. A chain is tried in order
// and stops at the first strategy that reports ok.
type (
	intStrategy    func(d *document) (int, bool)
	floatStrategy  func(d *document) (float64, bool)
	stringStrategy func(d *document) (string, bool)
)

func firstInt(d *document, chain []intStrategy) (int, bool) {
	for _, try := range chain {
		if v, ok := try(d); ok {
			return v, true
		}
	}
	return 0, false
}

func firstFloat(d *document, chain []floatStrategy) (float64, bool) {
	for _, try := range chain {
		if v, ok := try(d); ok {
			return v, true
		}
	}
	return 0, false
}

func firstString(d *document, chain []stringStrategy) (string, bool) {
	for _, try := range chain {
		if v, ok := try(d); ok {
			return v, true
		}
	}
	return "", false
}

// phrase maps a literal marker to the value it implies.
type phrase struct {
	marker string
	value  int
}

// phrasesIn returns the value of the first phrase whose marker appears in text.
func phrasesIn(text string, phrases []phrase) (int, bool) {
	for _, p := range phrases {
		if strings.Contains(text, p.marker) {
			return p.value, true
		}
	}
	return 0, false
}

// submatchInt parses capture group 1 of re in text, scaled by mul.
func submatchInt(re *regexp.Regexp, text string, mul int) (int, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n * mul, true
}

// onText and onSpaced lift a text function into a strategy over one document view.
func onText[T any](fn func(string) (T, bool)) func(d *document) (T, bool) {
	return func(d *document) (T, bool) { return fn(d.text) }
}

func onSpaced[T any](fn func(string) (T, bool)) func(d *document) (T, bool) {
	return func(d *document) (T, bool) { return fn(d.spaced) }
}

package scoring

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"rent591/models"
)

var printer = message.NewPrinter(language.English)

// WriteSummary prints the top n listings, assumed already ranked.
func WriteSummary(w io.Writer, listings []*models.Listing, n int) error {
	n = min(n, len(listings))
	rule := strings.Repeat("=", 70)

	if _, err := fmt.Fprintf(w, "\n%s\n  TOP %d LISTINGS BY SCORE\n%s\n\n", rule, n, rule); err != nil {
		return err
	}

	for i, l := range listings[:n] {
		_, err := fmt.Fprintf(w, "%2d. Score: %5.1f | NT$%s | %s ping | %s\n    Commute: %s min | Min lease: %s mo\n    %s\n\n",
			i+1,
			l.ScoreValue(),
			orDash(l.BaseRentNT, func(v int) string { return printer.Sprintf("%d", v) }),
			orDash(l.SizePing, func(v float64) string { return fmt.Sprintf("%g", v) }),
			orDash(l.District, func(v string) string { return v }),
			orDash(l.CommuteTimeMin, func(v float64) string { return fmt.Sprintf("%.1f", v) }),
			orDash(l.MinTenancyMonths, func(v int) string { return fmt.Sprintf("%d", v) }),
			l.URL,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func orDash[T any](v *T, format func(T) string) string {
	if v == nil {
		return "?"
	}
	return format(*v)
}

// internal/quote/ids.go
package quote

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewQuoteID builds a human-sortable quote reference: date prefix plus a
// short random suffix, e.g. "Q-20260829-1A2B3C4D".
func NewQuoteID() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("Q-%s-%s", time.Now().UTC().Format("20060102"), suffix)
}

// QuoteDate formats the quote issue date.
func QuoteDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ValidUntil returns the quote expiry date, validDays after issue.
func ValidUntil(issued time.Time, validDays int) string {
	if validDays <= 0 {
		validDays = DefaultValidDays
	}
	return issued.UTC().AddDate(0, 0, validDays).Format("2006-01-02")
}

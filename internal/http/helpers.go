package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// dateRange resolves the filter controls into [from, to] day bounds.
// Presets: this-month, last-month and last-3-months; otherwise from/to
// are read as YYYY-MM-DD whenever present, so direct links like
// /export/csv?from=...&to=... filter without a range param. A nil
// bound is open.
func dateRange(r *http.Request) (from, to *time.Time) {
	q := r.URL.Query()
	now := time.Now().UTC()

	switch q.Get("range") {
	case "this-month":
		f := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return &f, nil
	case "last-month":
		f := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		t := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
		return &f, &t
	case "last-3-months":
		f := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -2, 0)
		return &f, nil
	}
	return parseDay(q.Get("from")), parseDay(q.Get("to"))
}

func parseDay(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &day
}

// rangeKey is the cache key suffix for a date range.
func rangeKey(from, to *time.Time) string {
	var b strings.Builder
	if from != nil {
		b.WriteString(from.Format("2006-01-02"))
	}
	b.WriteByte(':')
	if to != nil {
		b.WriteString(to.Format("2006-01-02"))
	}
	return b.String()
}

// rangeQuery rebuilds the filter query string so export links and
// partial refreshes keep the active filter.
func rangeQuery(r *http.Request) string {
	q := r.URL.Query()
	out := make([]string, 0, 3)
	if v := q.Get("range"); v != "" {
		out = append(out, "range="+v)
	}
	if v := q.Get("from"); v != "" {
		out = append(out, "from="+v)
	}
	if v := q.Get("to"); v != "" {
		out = append(out, "to="+v)
	}
	return strings.Join(out, "&")
}

func parseExpenseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// formatDollars renders cents as a currency string, e.g. "$12.34".
func formatDollars(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("$%d.%02d", cents/100, cents%100)
	if neg {
		return "-" + s
	}
	return s
}

func percentLabel(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

package http

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestDateRange(t *testing.T) {
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return d
	}

	t.Run("bare from/to without range param", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ui/expenses?from=2020-01-01&to=2020-01-31", nil)
		from, to := dateRange(r)
		if from == nil || !from.Equal(day("2020-01-01")) {
			t.Errorf("from = %v, want 2020-01-01", from)
		}
		if to == nil || !to.Equal(day("2020-01-31")) {
			t.Errorf("to = %v, want 2020-01-31", to)
		}
	})

	t.Run("custom range", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?range=custom&from=2024-03-01&to=2024-03-31", nil)
		from, to := dateRange(r)
		if from == nil || !from.Equal(day("2024-03-01")) {
			t.Errorf("from = %v, want 2024-03-01", from)
		}
		if to == nil || !to.Equal(day("2024-03-31")) {
			t.Errorf("to = %v, want 2024-03-31", to)
		}
	})

	t.Run("open bounds", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?from=2024-03-01", nil)
		from, to := dateRange(r)
		if from == nil || to != nil {
			t.Errorf("got (%v, %v), want (2024-03-01, nil)", from, to)
		}
	})

	t.Run("no filter", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		if from, to := dateRange(r); from != nil || to != nil {
			t.Errorf("got (%v, %v), want open range", from, to)
		}
	})

	t.Run("invalid dates ignored", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/?from=yesterday&to=03/31/2024", nil)
		if from, to := dateRange(r); from != nil || to != nil {
			t.Errorf("got (%v, %v), want open range", from, to)
		}
	})

	t.Run("presets anchor to UTC month start", func(t *testing.T) {
		for _, preset := range []string{"this-month", "last-month", "last-3-months"} {
			r := httptest.NewRequest("GET", "/?range="+preset, nil)
			from, _ := dateRange(r)
			if from == nil {
				t.Errorf("%s: from is open", preset)
				continue
			}
			if from.Day() != 1 || from.Location() != time.UTC {
				t.Errorf("%s: from = %v, want first of a month in UTC", preset, from)
			}
		}
	})
}

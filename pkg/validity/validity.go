package validity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Package validity parses human validity expressions like "1 month",
// "2 weeks" or "10 days" and applies them with calendar semantics:
// months and years shift via time.AddDate so "1 month" from Jan 1 lands
// on Feb 1 regardless of month length.

type Duration struct {
	Years  int
	Months int
	Days   int
	Hours  int
}

// Parse accepts expressions of the form "<n> <unit>", with an optional
// plural "s" on the unit and multiple space-separated terms
// ("1 year 6 months"). Supported units: year, month, week, day, hour.
func Parse(expr string) (Duration, error) {
	var d Duration
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(expr)))
	if len(fields) == 0 || len(fields)%2 != 0 {
		return d, fmt.Errorf("invalid validity expression %q", expr)
	}
	for i := 0; i < len(fields); i += 2 {
		n, err := strconv.Atoi(fields[i])
		if err != nil || n < 0 {
			return Duration{}, fmt.Errorf("invalid validity amount %q", fields[i])
		}
		switch strings.TrimSuffix(fields[i+1], "s") {
		case "year":
			d.Years += n
		case "month":
			d.Months += n
		case "week":
			d.Days += 7 * n
		case "day":
			d.Days += n
		case "hour":
			d.Hours += n
		default:
			return Duration{}, fmt.Errorf("invalid validity unit %q", fields[i+1])
		}
	}
	return d, nil
}

// AddTo shifts t by the duration.
func (d Duration) AddTo(t time.Time) time.Time {
	return t.AddDate(d.Years, d.Months, d.Days).Add(time.Duration(d.Hours) * time.Hour)
}

// Extend parses expr and applies it to t.
func Extend(t time.Time, expr string) (time.Time, error) {
	d, err := Parse(expr)
	if err != nil {
		return time.Time{}, err
	}
	return d.AddTo(t), nil
}

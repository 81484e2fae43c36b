package validity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		want    Duration
		wantErr bool
	}{
		{name: "one month", expr: "1 month", want: Duration{Months: 1}},
		{name: "plural months", expr: "6 months", want: Duration{Months: 6}},
		{name: "weeks fold into days", expr: "2 weeks", want: Duration{Days: 14}},
		{name: "compound", expr: "1 year 6 months", want: Duration{Years: 1, Months: 6}},
		{name: "hours", expr: "36 hours", want: Duration{Hours: 36}},
		{name: "case and spacing", expr: "  1  Month ", want: Duration{Months: 1}},
		{name: "empty", expr: "", wantErr: true},
		{name: "missing amount", expr: "month", wantErr: true},
		{name: "negative", expr: "-1 month", wantErr: true},
		{name: "unknown unit", expr: "3 fortnights", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExtendCalendarSemantics(t *testing.T) {
	jan1 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := Extend(jan1, "1 month")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), got)

	// February is short; AddDate normalizes Jan 31 + 1 month to Mar 3.
	jan31 := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	got, err = Extend(jan31, "1 month")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), got)

	got, err = Extend(jan1, "1 year")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), got)
}

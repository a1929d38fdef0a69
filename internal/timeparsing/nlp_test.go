package timeparsing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, January 15, 2025, 10:00 local.
var refNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.Local)

type dayCase struct {
	input string
	month time.Month
	day   int
	hour  int // -1 means don't check hour
}

func checkDay(t *testing.T, got time.Time, tc dayCase) {
	t.Helper()
	assert.Equal(t, 2025, got.Year(), tc.input)
	assert.Equal(t, tc.month, got.Month(), tc.input)
	assert.Equal(t, tc.day, got.Day(), tc.input)
	if tc.hour >= 0 {
		assert.Equal(t, tc.hour, got.Hour(), tc.input)
	}
}

func TestParseNaturalLanguage(t *testing.T) {
	cases := []dayCase{
		{"tomorrow", time.January, 16, -1},
		{"yesterday", time.January, 14, -1},
		{"next monday", time.January, 20, -1},
		{"tomorrow at 9am", time.January, 16, 9},
		{"next monday at 2pm", time.January, 20, 14},
		{"in 3 days", time.January, 18, -1},
		{"in 1 week", time.January, 22, -1},
		{"3 days ago", time.January, 12, -1},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseNaturalLanguage(tc.input, refNow)
			require.NoError(t, err)
			checkDay(t, got, tc)
		})
	}

	for _, bad := range []string{"", "   ", "not a date at all"} {
		_, err := ParseNaturalLanguage(bad, refNow)
		assert.Error(t, err, "%q", bad)
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2h", refNow.Add(-2 * time.Hour)},
		{"90m", refNow.Add(-90 * time.Minute)},
		{"-30s", refNow.Add(-30 * time.Second)},
		{"1d", refNow.AddDate(0, 0, -1)},
		{"2w", refNow.AddDate(0, 0, -14)},
		{"-1d", refNow.AddDate(0, 0, -1)},
		{"3m", refNow.Add(-3 * time.Minute)},
		{"1mo", time.Date(2024, 12, 15, 10, 0, 0, 0, time.Local)},
		{"2025-01-01", time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)},
		{"2025-01-14 08:30", time.Date(2025, 1, 14, 8, 30, 0, 0, time.Local)},
		{"2025-01-14T07:00:00Z", time.Date(2025, 1, 14, 7, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSince(tt.input, refNow)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	got, err := ParseSince("yesterday", refNow)
	require.NoError(t, err)
	assert.Equal(t, 14, got.Day())

	got, err = ParseSince("2 hours ago", refNow)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	for _, bad := range []string{"", "whenever", "+1d", "3x"} {
		_, err = ParseSince(bad, refNow)
		assert.Error(t, err, "%q", bad)
	}
}

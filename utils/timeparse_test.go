package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-01-15 10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15T10:30:00", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-01-15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"2024/01/15", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"01/15/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"03/04/2024", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{" 2024-01-15 10:30 ", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTimestamp_KeepsOffset(t *testing.T) {
	got, err := ParseTimestamp("2024-01-15T23:30:00-05:00")
	require.NoError(t, err)

	_, offset := got.Zone()
	assert.Equal(t, -5*3600, offset)
	assert.Equal(t, 15, got.Day())
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, input := range []string{"", "not-a-date", "2024-13-45", "yesterday", "13/04/2024"} {
		_, err := ParseTimestamp(input)
		assert.Error(t, err, input)
	}
}

func TestParseDateBoundary(t *testing.T) {
	_, dateOnly, err := ParseDateBoundary("2024-01-31")
	require.NoError(t, err)
	assert.True(t, dateOnly)

	_, dateOnly, err = ParseDateBoundary("2024-01-31T12:00:00Z")
	require.NoError(t, err)
	assert.False(t, dateOnly)

	_, _, err = ParseDateBoundary("garbage")
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	end := EndOfDay(start)

	assert.Equal(t, 31, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.True(t, end.Add(time.Nanosecond).Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

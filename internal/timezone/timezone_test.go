package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocation_FallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, Location(""))
	assert.Equal(t, time.UTC, Location("Mars/Olympus"))
	assert.Equal(t, "America/Chicago", Location("America/Chicago").String())
}

func TestMonthWindow(t *testing.T) {
	loc := Location("America/Chicago")

	start, end := MonthWindow(2026, 12, loc)
	assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, loc), end)

	start, end = MonthWindow(2028, 2, time.UTC)
	assert.Equal(t, 29, int(end.Sub(start).Hours()/24))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-05-04", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC), *d)

	d, err = ParseDate("", time.UTC)
	assert.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("04/05/2026", time.UTC)
	assert.Error(t, err)
}

package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), r.To, "date-only upper bound covers the day")

	r, err = ParseDateRange("2024-01-01T10:00:00+02:00", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, 9999, r.To.Year())

	r, err = ParseDateRange("", "")
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = ParseDateRange("yesterday", "")
	assertValidationError(t, err)

	_, err = ParseDateRange("2024-02-01", "2024-01-01")
	assertValidationError(t, err)
}

func TestParseDateRangeParam(t *testing.T) {
	r, err := ParseDateRangeParam("2024-01-01,2024-01-02")
	require.NoError(t, err)
	assert.Equal(t, 2, r.To.Day())

	_, err = ParseDateRangeParam("2024-01-01")
	assertValidationError(t, err)

	r, err = ParseDateRangeParam("")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParseCategories(t *testing.T) {
	assert.Equal(t, []string{"go", "sql"}, ParseCategories(" go, ,sql,go "))
	assert.Nil(t, ParseCategories("  "))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Empty(t, d)

	_, err = ParseDirection("up")
	assertValidationError(t, err)
}

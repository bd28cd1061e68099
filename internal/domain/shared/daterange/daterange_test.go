package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewNormalizesToMidnight(t *testing.T) {
	start := time.Date(2024, 6, 10, 15, 30, 0, 0, time.FixedZone("BRT", -3*3600))
	end := time.Date(2024, 6, 12, 11, 0, 0, 0, time.UTC)

	dr, err := New(start, end)
	require.NoError(t, err)

	assert.Equal(t, time.UTC, dr.Start.Location())
	assert.Zero(t, dr.Start.Hour())
	assert.Zero(t, dr.End.Hour())
}

func TestNewRejectsReversedRange(t *testing.T) {
	_, err := New(day("2024-06-12"), day("2024-06-10"))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestParse(t *testing.T) {
	dr, err := Parse("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	assert.Equal(t, day("2024-06-10"), dr.Start)
	assert.Equal(t, day("2024-06-12"), dr.End)

	_, err = Parse("10/06/2024", "2024-06-12")
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestDaysAndNights(t *testing.T) {
	dr, err := Parse("2024-06-10", "2024-06-12")
	require.NoError(t, err)
	assert.Equal(t, 3, dr.Days())
	assert.Equal(t, 2, dr.Nights())

	single, err := Parse("2024-06-10", "2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, 1, single.Days())
	assert.Equal(t, 0, single.Nights())
}

func TestEachDayVisitsEndpoints(t *testing.T) {
	dr, err := Parse("2024-06-10", "2024-06-13")
	require.NoError(t, err)

	var visited []string
	dr.EachDay(func(d time.Time) {
		visited = append(visited, Key(d))
	})
	assert.Equal(t, []string{"2024-06-10", "2024-06-11", "2024-06-12", "2024-06-13"}, visited)
}

func TestContainsAndOverlaps(t *testing.T) {
	outer, _ := Parse("2024-06-01", "2024-06-30")
	inner, _ := Parse("2024-06-10", "2024-06-12")
	disjoint, _ := Parse("2024-07-01", "2024-07-05")
	touching, _ := Parse("2024-06-30", "2024-07-02")

	assert.True(t, outer.Contains(inner))
	assert.False(t, inner.Contains(outer))
	assert.True(t, outer.Overlaps(touching))
	assert.False(t, outer.Overlaps(disjoint))
	assert.True(t, outer.ContainsDay(day("2024-06-30")))
	assert.False(t, outer.ContainsDay(day("2024-07-01")))
}

func TestKeyTruncatesTimeOfDay(t *testing.T) {
	ts := time.Date(2024, 6, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "2024-06-10", Key(ts))
}

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d, h, m int) time.Time {
	return time.Date(2025, time.March, d, h, m, 0, 0, time.UTC)
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in     string
		h, m   int
		wantOK bool
	}{
		{"09:00", 9, 0, true},
		{"23:59", 23, 59, true},
		{"0:5", 0, 5, true},
		{" 7:30", 7, 30, true},
		{"24:00", 0, 0, false},
		{"12:60", 0, 0, false},
		{"-1:00", 0, 0, false},
		{"09:00:00", 0, 0, false},
		{"0900", 0, 0, false},
		{"ab:cd", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			h, m, ok := ParseTimeOfDay(tc.in)
			require.Equal(t, tc.wantOK, ok)
			if ok {
				assert.Equal(t, tc.h, h)
				assert.Equal(t, tc.m, m)
			}
		})
	}
}

func TestDecodeTimes(t *testing.T) {
	assert.Equal(t, []string{"09:00", "21:00"}, DecodeTimes(`["09:00","21:00"]`))
	assert.Equal(t, []string{"08:00"}, DecodeTimes(`["08:00", 5, null, {"a":1}]`))
	assert.Empty(t, DecodeTimes(`not json`))
	assert.Empty(t, DecodeTimes(`{"times":["09:00"]}`))
	assert.Empty(t, DecodeTimes(`"09:00"`))
	assert.Empty(t, DecodeTimes(``))
}

func TestEncodeTimes(t *testing.T) {
	assert.Equal(t, `["09:00","21:00"]`, EncodeTimes([]string{"09:00", "21:00"}))
	assert.Equal(t, `[]`, EncodeTimes(nil))
	assert.Equal(t, []string{"09:00"}, DecodeTimes(EncodeTimes([]string{"09:00"})))
}

func TestValidTimes(t *testing.T) {
	assert.Equal(t, []string{"21:00", "09:00"}, ValidTimes([]string{"21:00", "bad", "09:00", "25:00"}))
	assert.Empty(t, ValidTimes(nil))
}

func TestExpand_WholeDays(t *testing.T) {
	times := []string{"09:00", "21:00"}
	got := Expand(times, day(1, 0, 0), day(3, 23, 59))

	require.Len(t, got, 3*len(times))
	assert.Equal(t, day(1, 9, 0), got[0])
	assert.Equal(t, day(3, 21, 0), got[len(got)-1])
}

func TestExpand_EndInstantExcludesLaterSlots(t *testing.T) {
	got := Expand([]string{"09:00", "21:00"}, day(1, 0, 0), day(3, 12, 0))

	assert.Equal(t, []time.Time{
		day(1, 9, 0), day(1, 21, 0),
		day(2, 9, 0), day(2, 21, 0),
		day(3, 9, 0),
	}, got)
}

func TestExpand_EndExactlyOnSlotIsIncluded(t *testing.T) {
	got := Expand([]string{"09:00"}, day(1, 0, 0), day(1, 9, 0))
	assert.Equal(t, []time.Time{day(1, 9, 0)}, got)
}

func TestExpand_StartUsesDayGranularity(t *testing.T) {
	// A medicine starting mid-afternoon still counts that morning's dose.
	got := Expand([]string{"09:00"}, day(1, 15, 30), day(1, 23, 0))
	assert.Equal(t, []time.Time{day(1, 9, 0)}, got)
}

func TestExpand_KeepsInputOrderWithinDay(t *testing.T) {
	got := Expand([]string{"21:00", "09:00"}, day(1, 0, 0), day(2, 23, 0))

	assert.Equal(t, []time.Time{
		day(1, 21, 0), day(1, 9, 0),
		day(2, 21, 0), day(2, 9, 0),
	}, got)
}

func TestExpand_SkipsMalformedEntries(t *testing.T) {
	got := Expand([]string{"nope", "08:15", "99:99"}, day(1, 0, 0), day(2, 23, 0))
	assert.Equal(t, []time.Time{day(1, 8, 15), day(2, 8, 15)}, got)
}

func TestExpand_EmptyWhenEndBeforeStart(t *testing.T) {
	assert.Empty(t, Expand([]string{"09:00"}, day(5, 0, 0), day(4, 23, 0)))
	assert.Empty(t, Expand(nil, day(1, 0, 0), day(9, 0, 0)))
}

func TestExpand_NeverOutsideBounds(t *testing.T) {
	start := day(2, 18, 45)
	end := day(6, 7, 10)
	times := []string{"00:00", "07:10", "07:11", "18:44", "23:59"}

	got := Expand(times, start, end)
	require.NotEmpty(t, got)
	for _, occ := range got {
		assert.False(t, occ.Before(Midnight(start)), "occurrence %s before start midnight", occ)
		assert.False(t, occ.After(end), "occurrence %s after end", occ)
	}
	// 4 full days (2..5) of 5 slots plus 00:00 and 07:10 on day 6.
	assert.Len(t, got, 4*5+2)
}

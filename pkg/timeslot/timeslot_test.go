package timeslot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := Parse("9:30-11:30")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 570, End: 690}, r)

	r, err = Parse(" 09:00 - 10:15 ")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 540, End: 615}, r)
}

func TestParseAcceptsHoursPastMidnightStructurally(t *testing.T) {
	r, err := Parse("25:00-26:00")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 1500, End: 1560}, r)

	r, err = Parse("9998:00-9999:59")
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 9998 * 60, End: 9999*60 + 59}, r)
}

func TestParseRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"9:30",
		"9:30-",
		"9-10",
		"9:30-10:30-11:30",
		"a:30-10:30",
		"9:3x-10:30",
		"+9:30-10:30",
		"9:60-10:30",
		"11:30-9:30",
		"10:00-10:00",
		"23:00-1:00",
		"10000:00-10001:00",
		"999999999999999999:00-999999999999999999:30",
		"9:00-99999999999999999999:00",
	}
	for _, tc := range cases {
		_, err := Parse(tc)
		require.Error(t, err, tc)
		assert.True(t, errors.Is(err, ErrInvalidFormat), tc)
	}
}

func TestOverlaps(t *testing.T) {
	assert.False(t, Overlaps(TimeRange{0, 60}, TimeRange{60, 120}), "touching ranges")
	assert.True(t, Overlaps(TimeRange{0, 120}, TimeRange{30, 60}), "nested")
	assert.True(t, Overlaps(TimeRange{0, 60}, TimeRange{30, 90}), "crossing")
	assert.False(t, Overlaps(TimeRange{0, 30}, TimeRange{60, 90}), "disjoint")
	assert.True(t, Overlaps(TimeRange{10, 20}, TimeRange{10, 20}), "identical")
}

func TestOverlapsIsSymmetric(t *testing.T) {
	ranges := []TimeRange{{0, 60}, {60, 120}, {30, 90}, {0, 120}, {45, 50}, {120, 180}, {570, 690}}
	for _, a := range ranges {
		for _, b := range ranges {
			assert.Equal(t, Overlaps(a, b), Overlaps(b, a), "%v vs %v", a, b)
			assert.Equal(t, Overlaps(a, b), a.Overlaps(b))
		}
	}
}

func TestTimeRangeString(t *testing.T) {
	assert.Equal(t, "9:05-10:30", TimeRange{Start: 545, End: 630}.String())
	assert.Equal(t, 85, TimeRange{Start: 545, End: 630}.Minutes())
	assert.True(t, MustParse("8:00-9:00").Valid())
}

func TestNormalizeDay(t *testing.T) {
	for _, raw := range []string{"monday", "MON", " Monday "} {
		day, err := NormalizeDay(raw)
		require.NoError(t, err)
		assert.Equal(t, "Monday", day)
	}
	_, err := NormalizeDay("Funday")
	assert.True(t, errors.Is(err, ErrInvalidDay))

	assert.Equal(t, 4, DayIndex("fri"))
	assert.Equal(t, -1, DayIndex("nope"))
	assert.True(t, SameDay("tue", "Tuesday"))
	assert.False(t, SameDay("Tuesday", "Wednesday"))
}

package timegrid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slotPattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

func TestSlotsShapeAndOrdering(t *testing.T) {
	all := Slots()
	require.Len(t, all, 61)
	assert.Equal(t, Slot("07:00"), all[0])
	assert.Equal(t, Slot("22:00"), all[len(all)-1])

	for i, s := range all {
		assert.Regexp(t, slotPattern, string(s))
		if i > 0 {
			assert.True(t, all[i-1].Before(s), "%s should precede %s", all[i-1], s)
			assert.Equal(t, StepMinutes, s.Minutes()-all[i-1].Minutes())
		}
	}
}

func TestSlotsReturnsCopy(t *testing.T) {
	all := Slots()
	all[0] = "00:00"
	assert.Equal(t, Slot("07:00"), First())
}

func TestNextClampsAtLastSlot(t *testing.T) {
	assert.Equal(t, Slot("09:15"), Next("09:00"))
	assert.Equal(t, Slot("22:00"), Next("21:45"))
	assert.Equal(t, Last(), Next(Last()))
	assert.Equal(t, Slot("09:07"), Next("09:07"))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("07:00"))
	assert.True(t, IsValid("22:00"))
	assert.False(t, IsValid("22:15"))
	assert.False(t, IsValid("06:45"))
	assert.False(t, IsValid("09:10"))
	assert.False(t, IsValid("9:00"))
	assert.False(t, IsValid(""))
}

func TestCoerceFallsBackToFirstSlot(t *testing.T) {
	assert.Equal(t, Slot("10:30"), Coerce("10:30"))
	assert.Equal(t, First(), Coerce("10:31"))
	assert.Equal(t, First(), Coerce("23:00"))
	assert.Equal(t, First(), Coerce(""))
}

func TestIndexAndAt(t *testing.T) {
	assert.Equal(t, 0, Index("07:00"))
	assert.Equal(t, 8, Index("09:00"))
	assert.Equal(t, -1, Index("09:01"))

	s, ok := At(8)
	assert.True(t, ok)
	assert.Equal(t, Slot("09:00"), s)

	_, ok = At(Len())
	assert.False(t, ok)
	_, ok = At(-1)
	assert.False(t, ok)
}

func TestEndOptionsExcludeStartAndEarlier(t *testing.T) {
	opts := EndOptions("21:30")
	assert.Equal(t, []Slot{"21:45", "22:00"}, opts)
	assert.Empty(t, EndOptions(Last()))
	assert.Len(t, EndOptions("nope"), Len()-1)
}

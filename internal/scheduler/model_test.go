package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]Weekday{
		"monday": Monday,
		"TUE":    Tuesday,
		" Fri ":  Friday,
		"7":      Sunday,
	}
	for raw, want := range cases {
		got, err := ParseWeekday(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseWeekday("8")
	assert.Error(t, err)
	_, err = ParseWeekday("someday")
	assert.Error(t, err)
}

func TestNewTimeSlotDerivesCanonicalID(t *testing.T) {
	slot, err := NewTimeSlot(Wednesday, "14:00", "15:30")
	require.NoError(t, err)
	assert.Equal(t, "WED-1400", slot.ID)
	assert.Equal(t, 90, slot.Duration())
	assert.Equal(t, "WEDNESDAY 14:00-15:30", slot.Label())

	_, err = NewTimeSlot(Monday, "10:00", "09:00")
	assert.Error(t, err)
	_, err = NewTimeSlot(Weekday(9), "10:00", "11:00")
	assert.Error(t, err)
	_, err = NewTimeSlot(Monday, "25:00", "26:00")
	assert.Error(t, err)
}

func TestSubjectRequiredSessionsRoundsUp(t *testing.T) {
	assert.Equal(t, 3, Subject{HoursPerWeek: 3}.RequiredSessions(60))
	assert.Equal(t, 2, Subject{HoursPerWeek: 3}.RequiredSessions(90))
	assert.Equal(t, 4, Subject{HoursPerWeek: 3}.RequiredSessions(50))
	assert.Equal(t, 0, Subject{HoursPerWeek: 0}.RequiredSessions(60))
}

func TestDefaultGridHasLunchGap(t *testing.T) {
	grid := DefaultGrid()
	assert.Equal(t, 40, grid.Len())
	assert.Equal(t, []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}, grid.Days())

	_, ok := grid.Position("MON-1300")
	assert.False(t, ok)
	p, ok := grid.Position("MON-1400")
	require.True(t, ok)
	assert.Equal(t, 4, p)
	assert.Equal(t, "TUE-0900", grid.Slot(8).ID)
}

func TestNewGridRejectsOverlapAndDuplicates(t *testing.T) {
	_, err := NewGrid([]TimeSlot{
		{ID: "a", Day: Monday, Start: 540, End: 600},
		{ID: "b", Day: Monday, Start: 570, End: 630},
		{ID: "a", Day: Tuesday, Start: 540, End: 600},
	})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Len(t, inputErr.Problems, 2)
}

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexIsFree(t *testing.T) {
	grid := DefaultGrid()
	idx := NewIndex(
		[]Faculty{
			{ID: "always"},
			{ID: "tuesday", Availability: Availability{Tuesday: {"TUE-0900", "TUE-1400"}, Monday: {"TUE-1000"}}},
		},
		[]Classroom{{ID: "hall", Availability: Availability{}}},
		grid,
	)

	assert.True(t, idx.IsFree(EntityFaculty, "always", "FRI-1700"))
	assert.True(t, idx.IsFree(EntityFaculty, "tuesday", "TUE-1400"))
	assert.False(t, idx.IsFree(EntityFaculty, "tuesday", "TUE-1000"), "slot listed under the wrong day")
	assert.False(t, idx.IsFree(EntityFaculty, "tuesday", "MON-0900"))
	assert.False(t, idx.IsFree(EntityClassroom, "hall", "MON-0900"), "empty availability means never free")
	assert.False(t, idx.IsFree(EntityFaculty, "nobody", "MON-0900"))
	assert.False(t, idx.IsFree(EntityFaculty, "always", "SAT-0900"))
	assert.Equal(t, 40, idx.FreeCount(EntityFaculty, "always"))
	assert.Equal(t, 2, idx.FreeCount(EntityFaculty, "tuesday"))
}

func TestIndexCandidateSlotsIntersectsInGridOrder(t *testing.T) {
	grid := DefaultGrid()
	idx := NewIndex(
		[]Faculty{{ID: "f1", Availability: Availability{
			Wednesday: {"WED-1000"},
			Monday:    {"MON-1500", "MON-0900"},
		}}},
		[]Classroom{
			{ID: "r1"},
			{ID: "r2", Availability: Availability{Monday: {"MON-1500"}}},
		},
		grid,
	)

	cursor := idx.CandidateSlots("f1", "r1")
	assert.Equal(t, 3, cursor.Len())
	var got []string
	for slot, ok := cursor.Next(); ok; slot, ok = cursor.Next() {
		got = append(got, slot.ID)
	}
	assert.Equal(t, []string{"MON-0900", "MON-1500", "WED-1000"}, got)

	_, ok := cursor.Next()
	assert.False(t, ok)
	cursor.Reset()
	first, ok := cursor.Next()
	require.True(t, ok)
	assert.Equal(t, "MON-0900", first.ID)

	narrow := idx.CandidateSlots("f1", "r2")
	slot, ok := narrow.Next()
	require.True(t, ok)
	assert.Equal(t, "MON-1500", slot.ID)
	_, ok = narrow.Next()
	assert.False(t, ok)

	_, ok = idx.CandidateSlots("f1", "missing").Next()
	assert.False(t, ok)
}

func TestPlacementTracksOwnersAndLoads(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	p := NewPlacement(snap)

	require.True(t, p.Place(0, SessionAssignment{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"}))
	require.True(t, p.Place(1, SessionAssignment{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-0900"}))
	assert.False(t, p.Place(2, SessionAssignment{SubjectID: "art", FacultyID: "f1", ClassroomID: "r1", SlotID: "SUN-0900"}))

	assert.Equal(t, []int{0, 1}, p.FacultyOwners("f1", "MON-0900"))
	assert.Equal(t, []int{1}, p.ClassroomOwners("r2", "MON-0900"))
	assert.Equal(t, 2, p.FacultyDayLoad("f1", "MON-1200"))
	assert.Equal(t, 1, p.SubjectDayLoad("art", "MON-1000"))

	require.True(t, p.Place(1, SessionAssignment{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-1000"}))
	assert.Equal(t, []int{0}, p.FacultyOwners("f1", "MON-0900"))
	assert.Equal(t, 2, p.Len())

	assert.True(t, p.Remove(0))
	assert.False(t, p.Remove(0))
	assert.Empty(t, p.FacultyOwners("f1", "MON-0900"))
	assert.Equal(t, 1, p.FacultyDayLoad("f1", "MON-0900"))
	assert.Empty(t, p.SubjectSessions("art"))
}

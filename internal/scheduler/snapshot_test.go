package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshotUsesDefaultGridWhenSlotsMissing(t *testing.T) {
	snap := mustSnapshot(t, Roster{
		Faculty:    []Faculty{{ID: "f1"}},
		Subjects:   []Subject{{ID: "s1", HoursPerWeek: 2, QualifiedFaculty: []string{"f1"}, Enrollment: 10}},
		Classrooms: []Classroom{{ID: "r1", Capacity: 10}},
	})
	assert.Equal(t, 40, snap.Grid().Len())
	assert.Equal(t, DefaultSessionMinutes, snap.SessionMinutes())
	assert.Equal(t, 2, snap.RequiredSessions("s1"))
	assert.Equal(t, 2, snap.TotalSessions())
}

func TestNewSnapshotCollectsInputProblems(t *testing.T) {
	_, err := NewSnapshot(Roster{
		Slots: mondaySlots(2),
		Faculty: []Faculty{
			{ID: "f1", Availability: only(Monday, "TUE-0900")},
			{ID: "f1"},
		},
		Subjects: []Subject{
			{ID: "s1", HoursPerWeek: 1, QualifiedFaculty: []string{"ghost"}},
			{ID: "s2", HoursPerWeek: 3, QualifiedFaculty: []string{"f1"}},
		},
		Classrooms: []Classroom{{ID: "r1", Capacity: 0}},
	})

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	fields := make([]string, 0, len(inputErr.Problems))
	for _, p := range inputErr.Problems {
		fields = append(fields, p.Entity+"."+p.Field)
	}
	assert.ElementsMatch(t, []string{
		"faculty.availability",
		"faculty.id",
		"classroom.capacity",
		"subject.qualifiedFaculty",
		"subject.hoursPerWeek",
	}, fields)
	assert.Contains(t, err.Error(), "invalid roster")
}

func TestNewSnapshotRejectsSlotLengthMismatch(t *testing.T) {
	_, err := NewSnapshot(Roster{
		Slots:          mondaySlots(3),
		SessionMinutes: 90,
		Faculty:        []Faculty{{ID: "f1"}},
		Subjects:       []Subject{{ID: "s1", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}}},
		Classrooms:     []Classroom{{ID: "r1", Capacity: 10}},
	})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Len(t, inputErr.Problems, 3)
}

func TestNewSnapshotResolvesExpertiseFallback(t *testing.T) {
	snap := mustSnapshot(t, Roster{
		Slots: mondaySlots(3),
		Faculty: []Faculty{
			{ID: "f2", Expertise: []string{"Physics"}},
			{ID: "f1", Expertise: []string{"physics", "math"}},
			{ID: "f3", Expertise: []string{"history"}},
		},
		Subjects: []Subject{
			{ID: "mechanics", HoursPerWeek: 1, Expertise: "physics", Enrollment: 5},
			{ID: "calculus", HoursPerWeek: 1, QualifiedFaculty: []string{"f3"}, Expertise: "math", Enrollment: 5},
			{ID: "latin", HoursPerWeek: 1, Enrollment: 5},
		},
		Classrooms: []Classroom{{ID: "r1", Capacity: 10}},
	})

	assert.Equal(t, []string{"f1", "f2"}, snap.QualifiedFaculty("mechanics"))
	assert.Equal(t, []string{"f3"}, snap.QualifiedFaculty("calculus"))
	assert.Empty(t, snap.QualifiedFaculty("latin"))
	assert.True(t, snap.Qualified("mechanics", "f2"))
	assert.False(t, snap.Qualified("calculus", "f1"))
}

func TestNewSnapshotDoesNotMutateRoster(t *testing.T) {
	roster := scenarioARoster()
	roster.Faculty[0], roster.Faculty[2] = roster.Faculty[2], roster.Faculty[0]
	before := roster.Faculty[0].ID

	snap := mustSnapshot(t, roster)
	assert.Equal(t, before, roster.Faculty[0].ID)
	assert.Equal(t, "f1", snap.Faculty()[0].ID)

	roster.Faculty[1].Availability[Monday][0] = "MON-1200"
	assert.True(t, snap.Index().IsFree(EntityFaculty, "f2", "MON-0900"))
}

func TestValidateTimetableReportsDanglingReferences(t *testing.T) {
	snap := mustSnapshot(t, scenarioARoster())
	err := snap.ValidateTimetable(Timetable{Assignments: []SessionAssignment{
		{SubjectID: "algebra", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "geometry", Session: 1, FacultyID: "f9", ClassroomID: "r1", SlotID: "SUN-0900"},
	}})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Len(t, inputErr.Problems, 3)
}

func TestNewSnapshotReportsAvailabilityProblemsInDayOrder(t *testing.T) {
	roster := Roster{
		Faculty: []Faculty{{ID: "f1", Availability: Availability{
			Friday:  {"MON-0900"},
			Tuesday: {"TUE-9999"},
			Monday:  {"MON-9999"},
		}}},
		Subjects:   []Subject{{ID: "s1", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10}},
		Classrooms: []Classroom{{ID: "r1", Capacity: 10}},
	}

	var first []InputProblem
	for i := 0; i < 20; i++ {
		_, err := NewSnapshot(roster)
		var inputErr *InputError
		require.ErrorAs(t, err, &inputErr)
		require.Len(t, inputErr.Problems, 3)
		if first == nil {
			first = inputErr.Problems
			assert.Contains(t, first[0].Message, "MON-9999")
			assert.Contains(t, first[1].Message, "TUE-9999")
			assert.Contains(t, first[2].Message, "MON-0900")
			continue
		}
		assert.Equal(t, first, inputErr.Problems)
	}
}

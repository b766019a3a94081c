package scheduler

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// mondaySlots returns n hourly Monday slots starting at 09:00.
func mondaySlots(n int) []TimeSlot {
	slots := make([]TimeSlot, n)
	for i := 0; i < n; i++ {
		start := (9 + i) * 60
		slots[i] = TimeSlot{ID: SlotID(Monday, start), Day: Monday, Start: start, End: start + 60}
	}
	return slots
}

func only(day Weekday, slotIDs ...string) Availability {
	return Availability{day: slotIDs}
}

func mustSnapshot(t *testing.T, roster Roster) *Snapshot {
	t.Helper()
	snap, err := NewSnapshot(roster)
	require.NoError(t, err)
	return snap
}

// scenarioARoster has three faculty, each qualified for one subject and free in one slot.
func scenarioARoster() Roster {
	return Roster{
		Slots: mondaySlots(5),
		Faculty: []Faculty{
			{ID: "f1", Availability: only(Monday, "MON-0900")},
			{ID: "f2", Availability: only(Monday, "MON-0900")},
			{ID: "f3", Availability: only(Monday, "MON-1000")},
		},
		Subjects: []Subject{
			{ID: "algebra", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 20},
			{ID: "biology", HoursPerWeek: 1, QualifiedFaculty: []string{"f2"}, Enrollment: 20},
			{ID: "chemistry", HoursPerWeek: 1, QualifiedFaculty: []string{"f3"}, Enrollment: 20},
		},
		Classrooms: []Classroom{
			{ID: "r1", Capacity: 30},
			{ID: "r2", Capacity: 30},
			{ID: "r3", Capacity: 30},
		},
	}
}

// scenarioBRoster has a two-session subject whose only faculty member is free once.
func scenarioBRoster() Roster {
	return Roster{
		Slots: mondaySlots(5),
		Faculty: []Faculty{
			{ID: "f1", Availability: only(Monday, "MON-1100")},
			{ID: "f2"},
		},
		Subjects: []Subject{
			{ID: "history", HoursPerWeek: 2, QualifiedFaculty: []string{"f1"}, Enrollment: 25},
			{ID: "music", HoursPerWeek: 1, QualifiedFaculty: []string{"f2"}, Enrollment: 25},
		},
		Classrooms: []Classroom{
			{ID: "r1", Capacity: 30},
			{ID: "r2", Capacity: 30},
		},
	}
}

// sharedFacultyRoster has one faculty member teaching two single-session subjects.
func sharedFacultyRoster() Roster {
	return Roster{
		Slots:   mondaySlots(5),
		Faculty: []Faculty{{ID: "f1"}},
		Subjects: []Subject{
			{ID: "art", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10},
			{ID: "drama", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10},
		},
		Classrooms: []Classroom{
			{ID: "r1", Capacity: 20},
			{ID: "r2", Capacity: 20},
		},
	}
}

// randomFeasibleRoster builds a roster with plenty of slack: every subject is taught by a
// dedicated faculty member who is free for most of the week, and rooms outnumber subjects.
func randomFeasibleRoster(rng *rand.Rand) Roster {
	grid := DefaultSlots()
	subjects := 3 + rng.Intn(6)
	roster := Roster{Slots: grid}
	for i := 0; i < subjects; i++ {
		fid := fmt.Sprintf("f%02d", i)
		availability := Availability{}
		for _, slot := range grid {
			if rng.Intn(4) == 0 {
				continue
			}
			availability[slot.Day] = append(availability[slot.Day], slot.ID)
		}
		roster.Faculty = append(roster.Faculty, Faculty{ID: fid, Availability: availability})
		qualified := []string{fid}
		if i > 0 && rng.Intn(2) == 0 {
			qualified = append(qualified, fmt.Sprintf("f%02d", rng.Intn(i)))
		}
		roster.Subjects = append(roster.Subjects, Subject{
			ID:               fmt.Sprintf("s%02d", i),
			HoursPerWeek:     1 + rng.Intn(3),
			QualifiedFaculty: qualified,
			Enrollment:       10 + rng.Intn(80),
		})
	}
	for i := 0; i < subjects+2; i++ {
		roster.Classrooms = append(roster.Classrooms, Classroom{ID: fmt.Sprintf("r%02d", i), Capacity: 100})
	}
	return roster
}

func hardOnly(violations []Violation) []Violation {
	hard, _, _ := SplitViolations(violations)
	return hard
}

package scheduler

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnforceScenarioCMovesOneAssignment(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	edited := Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-0900"},
	}}
	original := edited.Clone()

	res, err := NewRepairer(Options{}).Enforce(context.Background(), snap, edited)
	require.NoError(t, err)
	assert.Equal(t, original, edited, "input must not be modified")

	require.Len(t, res.Detected, 1)
	assert.Equal(t, ConstraintFacultyDoubleBooking, res.Detected[0].ConstraintID)
	assert.Equal(t, []int{0, 1}, res.Detected[0].Positions)
	assert.Len(t, res.Detected[0].Assignments, 2)

	assert.Equal(t, RepairRepaired, res.Outcome)
	require.Len(t, res.Changes, 1)
	change := res.Changes[0]
	assert.Equal(t, ChangeMoved, change.Kind)
	assert.Equal(t, 1, change.Position)
	assert.Equal(t, ConstraintFacultyDoubleBooking, change.ConstraintID)
	require.NotNil(t, change.After)
	assert.Equal(t, SessionAssignment{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-1000"}, *change.After)

	assert.Empty(t, res.Unresolved)
	assert.Equal(t, original.Assignments[0], res.Timetable.Assignments[0])
	assert.Equal(t, *change.After, res.Timetable.Assignments[1])
}

func TestEnforceReportsUnresolvableConflict(t *testing.T) {
	roster := sharedFacultyRoster()
	roster.Faculty[0].Availability = only(Monday, "MON-0900")
	snap := mustSnapshot(t, roster)

	res, err := NewRepairer(Options{}).Enforce(context.Background(), snap, Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-0900"},
	}})
	require.NoError(t, err)
	assert.Equal(t, RepairPartial, res.Outcome)
	assert.Empty(t, res.Changes)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, ConstraintFacultyDoubleBooking, res.Unresolved[0].ConstraintID)
	assert.Equal(t, 1, res.Iterations)
}

func TestEnforceIsIdempotentOnValidTimetable(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 10; round++ {
		snap := mustSnapshot(t, randomFeasibleRoster(rng))
		solved, err := NewSolver(Options{}).Solve(context.Background(), snap)
		require.NoError(t, err)
		require.Equal(t, OutcomeFeasible, solved.Outcome)

		res, err := NewRepairer(Options{}).Enforce(context.Background(), snap, solved.Timetable)
		require.NoError(t, err)
		assert.Equal(t, RepairValid, res.Outcome)
		assert.Equal(t, solved.Timetable, res.Timetable)
		assert.Empty(t, res.Detected)
		assert.Empty(t, res.Changes)
		assert.Empty(t, res.Unresolved)
		assert.Zero(t, res.Iterations)
		assert.InDelta(t, solved.Penalty, res.Penalty, 1e-9)
	}
}

func TestEnforceNeverIntroducesNewHardViolations(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	set := DefaultConstraintSet(DefaultSoftWeights())
	for round := 0; round < 15; round++ {
		snap := mustSnapshot(t, randomFeasibleRoster(rng))
		solved, err := NewSolver(Options{}).Solve(context.Background(), snap)
		require.NoError(t, err)
		require.Equal(t, OutcomeFeasible, solved.Outcome)

		// copy another session's faculty and slot onto the victim
		edited := solved.Timetable.Clone()
		victim := rng.Intn(len(edited.Assignments))
		other := (victim + 1 + rng.Intn(len(edited.Assignments)-1)) % len(edited.Assignments)
		edited.Assignments[victim].FacultyID = edited.Assignments[other].FacultyID
		edited.Assignments[victim].SlotID = edited.Assignments[other].SlotID
		before := hardKeys(hardOnly(set.EvaluateAll(snap, edited)), edited)
		require.NotEmpty(t, before)

		res, err := NewRepairer(Options{}).Enforce(context.Background(), snap, edited)
		require.NoError(t, err)
		after := hardKeys(res.Unresolved, res.Timetable)
		for key := range after {
			assert.Contains(t, before, key, "round %d introduced %s", round, key)
		}
		if len(res.Unresolved) == 0 {
			assert.Equal(t, RepairRepaired, res.Outcome)
			assert.NotEmpty(t, res.Changes)
		}
	}
}

// hardKeys identifies violations by constraint and the offending assignments, which survive
// relocation of unrelated sessions.
func hardKeys(violations []Violation, tt Timetable) map[string]struct{} {
	out := make(map[string]struct{})
	for _, v := range violations {
		key := v.ConstraintID + "|" + v.SubjectID
		for _, p := range v.Positions {
			key += "|" + tt.Assignments[p].String()
		}
		out[key] = struct{}{}
	}
	return out
}

func TestEnforceRemovesSurplusAndAddsMissingSessions(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	res, err := NewRepairer(Options{}).Enforce(context.Background(), snap, Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "art", Session: 2, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-1000"},
	}})
	require.NoError(t, err)
	assert.Equal(t, RepairRepaired, res.Outcome)
	assert.Empty(t, res.Unresolved)

	kinds := make([]ChangeKind, 0, len(res.Changes))
	for _, c := range res.Changes {
		kinds = append(kinds, c.Kind)
	}
	// the missing subject sorts first since it has no positions
	assert.Equal(t, []ChangeKind{ChangeAdded, ChangeRemoved}, kinds)
	assert.Equal(t, 2, res.Changes[0].Position)
	assert.Equal(t, 1, res.Changes[1].Position)

	require.Len(t, res.Timetable.Assignments, 2)
	assert.Equal(t, "art", res.Timetable.Assignments[0].SubjectID)
	added := res.Timetable.Assignments[1]
	assert.Equal(t, "drama", added.SubjectID)
	assert.Equal(t, 1, added.Session)
	assert.Equal(t, "MON-1100", added.SlotID)
}

func TestEnforceRejectsDanglingReferences(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	_, err := NewRepairer(Options{}).Enforce(context.Background(), snap, Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "ghost", ClassroomID: "r1", SlotID: "MON-0900"},
	}})
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "facultyId", inputErr.Problems[0].Field)
}

func TestEnforceStopsAtRepairBudget(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	res, err := NewRepairer(Options{RepairBudget: 1}).Enforce(context.Background(), snap, Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "drama", Session: 2, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-1100"},
	}})
	require.NoError(t, err)
	assert.Equal(t, RepairBudgetExceeded, res.Outcome)
	assert.Equal(t, 1, res.Iterations)
	assert.Len(t, res.Changes, 1)
	assert.NotEmpty(t, res.Unresolved)
}

func TestEnforceHonoursCancellation(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewRepairer(Options{}).Enforce(ctx, snap, Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-0900"},
	}})
	require.NoError(t, err)
	assert.Equal(t, RepairCancelled, res.Outcome)
	assert.Empty(t, res.Changes)
	require.Len(t, res.Unresolved, 2)
	assert.Equal(t, ConstraintFacultyDoubleBooking, res.Unresolved[0].ConstraintID)
	cancelled := res.Unresolved[1]
	assert.Equal(t, ConstraintSearchCancelled, cancelled.ConstraintID)
	assert.Equal(t, SeverityHard, cancelled.Severity)
	assert.Equal(t, "cancelled, incomplete", cancelled.Reason)
}

func TestEnforceWithoutViolationsIgnoresCancellation(t *testing.T) {
	snap := mustSnapshot(t, sharedFacultyRoster())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewRepairer(Options{}).Enforce(ctx, snap, Timetable{Assignments: []SessionAssignment{
		{SubjectID: "art", Session: 1, FacultyID: "f1", ClassroomID: "r1", SlotID: "MON-0900"},
		{SubjectID: "drama", Session: 1, FacultyID: "f1", ClassroomID: "r2", SlotID: "MON-1000"},
	}})
	require.NoError(t, err)
	assert.Equal(t, RepairValid, res.Outcome)
	assert.Empty(t, res.Unresolved)
}

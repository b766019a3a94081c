package scheduler

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolverScenarioACompleteTimetable(t *testing.T) {
	snap := mustSnapshot(t, scenarioARoster())

	res, err := NewSolver(Options{}).Solve(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFeasible, res.Outcome)
	require.Len(t, res.Timetable.Assignments, 3)
	assert.Empty(t, res.Violations)
	assert.Empty(t, res.Unplaced)
	assert.Zero(t, res.Penalty)

	set := DefaultConstraintSet(DefaultSoftWeights())
	assert.Empty(t, set.EvaluateAll(snap, res.Timetable))

	bySubject := make(map[string]SessionAssignment)
	for _, a := range res.Timetable.Assignments {
		bySubject[a.SubjectID] = a
	}
	assert.Equal(t, "MON-0900", bySubject["algebra"].SlotID)
	assert.Equal(t, "MON-0900", bySubject["biology"].SlotID)
	assert.Equal(t, "MON-1000", bySubject["chemistry"].SlotID)
	assert.NotEqual(t, bySubject["algebra"].ClassroomID, bySubject["biology"].ClassroomID)
}

func TestSolverScenarioBReportsUnplaceableSession(t *testing.T) {
	snap := mustSnapshot(t, scenarioBRoster())

	res, err := NewSolver(Options{}).Solve(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInfeasible, res.Outcome)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, UnplacedSession{
		SubjectID: "history",
		Session:   2,
		Code:      ReasonNoQualifiedFaculty,
		Reason:    "no qualified faculty available",
	}, res.Unplaced[0])

	require.Len(t, res.Timetable.Assignments, 2)
	set := DefaultConstraintSet(DefaultSoftWeights())
	for _, v := range hardOnly(set.EvaluateAll(snap, res.Timetable)) {
		assert.Equal(t, ConstraintSessionCount, v.ConstraintID, v.Reason)
	}
}

func TestSolverReportsStaticReasons(t *testing.T) {
	snap := mustSnapshot(t, Roster{
		Slots: mondaySlots(3),
		Faculty: []Faculty{
			{ID: "f1", Availability: only(Monday, "MON-0900")},
			{ID: "f2"},
		},
		Subjects: []Subject{
			{ID: "crowded", HoursPerWeek: 1, QualifiedFaculty: []string{"f2"}, Enrollment: 500},
			{ID: "orphan", HoursPerWeek: 1, Enrollment: 10},
			{ID: "stranded", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10},
			{ID: "fine", HoursPerWeek: 1, QualifiedFaculty: []string{"f2"}, Enrollment: 10},
		},
		Classrooms: []Classroom{{ID: "r1", Capacity: 50, Availability: only(Monday, "MON-1000")}},
	})

	res, err := NewSolver(Options{}).Solve(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInfeasible, res.Outcome)
	codes := make(map[string]string)
	for _, u := range res.Unplaced {
		codes[u.SubjectID] = u.Code
	}
	assert.Equal(t, map[string]string{
		"crowded":  ReasonNoClassroomCapacity,
		"orphan":   ReasonNoQualifiedFaculty,
		"stranded": ReasonNoCommonAvailability,
	}, codes)
	require.Len(t, res.Timetable.Assignments, 1)
	assert.Equal(t, "fine", res.Timetable.Assignments[0].SubjectID)
}

func TestSolverBackjumpsOutOfDeadEnd(t *testing.T) {
	// "a" takes the first slot by default, which leaves "b" without a classroom until the
	// search jumps back and moves "a".
	snap := mustSnapshot(t, Roster{
		Slots: mondaySlots(2),
		Faculty: []Faculty{
			{ID: "f1"},
			{ID: "f2", Availability: only(Monday, "MON-0900")},
			{ID: "f3", Availability: only(Monday, "MON-0900")},
		},
		Subjects: []Subject{
			{ID: "a", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 30},
			{ID: "b", HoursPerWeek: 1, QualifiedFaculty: []string{"f2", "f3"}, Enrollment: 30},
		},
		Classrooms: []Classroom{{ID: "r1", Capacity: 30}},
	})

	res, err := NewSolver(Options{}).Solve(context.Background(), snap)
	require.NoError(t, err)
	require.Equal(t, OutcomeFeasible, res.Outcome, "%+v", res.Unplaced)
	assert.GreaterOrEqual(t, res.Stats.Backjumps, 1)
	assert.Equal(t, 2, res.Stats.MaxDepth)

	slots := make(map[string]string)
	for _, a := range res.Timetable.Assignments {
		slots[a.SubjectID] = a.SlotID
	}
	assert.Equal(t, map[string]string{"a": "MON-1000", "b": "MON-0900"}, slots)
}

func TestSolverInfeasibleWhenSlotsRunOut(t *testing.T) {
	snap := mustSnapshot(t, Roster{
		Slots:   mondaySlots(2),
		Faculty: []Faculty{{ID: "f1"}},
		Subjects: []Subject{
			{ID: "a", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10},
			{ID: "b", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10},
			{ID: "c", HoursPerWeek: 1, QualifiedFaculty: []string{"f1"}, Enrollment: 10},
		},
		Classrooms: []Classroom{{ID: "r1", Capacity: 20}, {ID: "r2", Capacity: 20}},
	})

	res, err := NewSolver(Options{}).Solve(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInfeasible, res.Outcome)
	assert.Len(t, res.Timetable.Assignments, 2)
	require.Len(t, res.Unplaced, 1)
	assert.Equal(t, "c", res.Unplaced[0].SubjectID)
	assert.Equal(t, ReasonNoQualifiedFaculty, res.Unplaced[0].Code)
}

func TestSolverGeneratedTimetablesSatisfyHardConstraints(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	set := DefaultConstraintSet(DefaultSoftWeights())
	for round := 0; round < 25; round++ {
		snap := mustSnapshot(t, randomFeasibleRoster(rng))
		res, err := NewSolver(Options{}).Solve(context.Background(), snap)
		require.NoError(t, err)
		require.Equal(t, OutcomeFeasible, res.Outcome, "round %d: %+v", round, res.Unplaced)
		assert.Len(t, res.Timetable.Assignments, snap.TotalSessions())
		assert.Empty(t, hardOnly(set.EvaluateAll(snap, res.Timetable)), "round %d", round)
	}
}

func TestSolverIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	roster := randomFeasibleRoster(rng)

	encode := func() []byte {
		snap := mustSnapshot(t, roster)
		res, err := NewSolver(Options{}).Solve(context.Background(), snap)
		require.NoError(t, err)
		raw, err := json.Marshal(res)
		require.NoError(t, err)
		return raw
	}
	assert.Equal(t, string(encode()), string(encode()))
}

func TestSolverParallelMatchesSequentialTimetable(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for round := 0; round < 5; round++ {
		snap := mustSnapshot(t, randomFeasibleRoster(rng))
		seq, err := NewSolver(Options{}).Solve(context.Background(), snap)
		require.NoError(t, err)
		par, err := NewSolver(Options{Workers: 4}).Solve(context.Background(), snap)
		require.NoError(t, err)

		assert.Equal(t, seq.Outcome, par.Outcome)
		assert.Equal(t, seq.Timetable, par.Timetable, "round %d", round)
		assert.InDelta(t, seq.Penalty, par.Penalty, 1e-9)
		assert.GreaterOrEqual(t, par.Stats.Branches, 1)

		again, err := NewSolver(Options{Workers: 4}).Solve(context.Background(), snap)
		require.NoError(t, err)
		assert.Equal(t, par, again)
	}
}

func TestSolverBudgetExceededIsNotInfeasible(t *testing.T) {
	snap := mustSnapshot(t, randomFeasibleRoster(rand.New(rand.NewSource(3))))

	res, err := NewSolver(Options{NodeBudget: 1}).Solve(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeBudgetExceeded, res.Outcome)
	assert.Equal(t, 1, res.Stats.NodesVisited)
	require.NotEmpty(t, res.Unplaced)
	for _, u := range res.Unplaced {
		assert.Equal(t, ReasonBudgetExhausted, u.Code)
	}
	assert.Len(t, res.Timetable.Assignments, 1)
	assert.Equal(t, snap.TotalSessions(), len(res.Timetable.Assignments)+len(res.Unplaced))
}

func TestSolverHonoursCancellation(t *testing.T) {
	snap := mustSnapshot(t, scenarioARoster())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSolver(Options{}).Solve(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCancelled, res.Outcome)
	assert.Empty(t, res.Timetable.Assignments)
	require.Len(t, res.Unplaced, 3)
	assert.Equal(t, ReasonCancelled, res.Unplaced[0].Code)
	require.NotEmpty(t, res.Violations)
	last := res.Violations[len(res.Violations)-1]
	assert.Equal(t, ConstraintSearchCancelled, last.ConstraintID)
	assert.Equal(t, "cancelled, incomplete", last.Reason)
}

func TestSolverEmptyRoster(t *testing.T) {
	snap := mustSnapshot(t, Roster{})
	res, err := NewSolver(Options{Workers: 3}).Solve(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFeasible, res.Outcome)
	assert.Empty(t, res.Timetable.Assignments)
}

func TestSolverPrefersMorningForLargeClasses(t *testing.T) {
	snap := mustSnapshot(t, Roster{
		Faculty:    []Faculty{{ID: "f1"}},
		Subjects:   []Subject{{ID: "lecture", HoursPerWeek: 3, QualifiedFaculty: []string{"f1"}, Enrollment: 120}},
		Classrooms: []Classroom{{ID: "aula", Capacity: 150}},
	})

	res, err := NewSolver(Options{}).Solve(context.Background(), snap)
	require.NoError(t, err)
	require.Equal(t, OutcomeFeasible, res.Outcome)
	assert.Zero(t, res.Penalty)
	days := make(map[Weekday]bool)
	for _, a := range res.Timetable.Assignments {
		slot, ok := snap.Grid().Lookup(a.SlotID)
		require.True(t, ok)
		assert.Less(t, slot.Start, 12*60)
		assert.False(t, days[slot.Day], "sessions should spread across days")
		days[slot.Day] = true
	}
}

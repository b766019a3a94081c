package scheduler

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
)

// RepairOutcome classifies an enforcement run.
type RepairOutcome string

const (
	RepairValid          RepairOutcome = "VALID"
	RepairRepaired       RepairOutcome = "REPAIRED"
	RepairPartial        RepairOutcome = "PARTIAL"
	RepairBudgetExceeded RepairOutcome = "BUDGET_EXCEEDED"
	RepairCancelled      RepairOutcome = "CANCELLED"
)

// ChangeKind describes how repair touched an assignment.
type ChangeKind string

const (
	ChangeMoved   ChangeKind = "moved"
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
)

// Change records one repair step. Position is the assignment's index in the input timetable;
// added assignments are numbered after the last input position.
type Change struct {
	Kind         ChangeKind         `json:"kind"`
	Position     int                `json:"position"`
	Before       *SessionAssignment `json:"before,omitempty"`
	After        *SessionAssignment `json:"after,omitempty"`
	ConstraintID string             `json:"constraintId"`
}

// RepairResult is the outcome of Enforce. The input timetable is never modified.
type RepairResult struct {
	Outcome   RepairOutcome `json:"outcome"`
	Timetable Timetable     `json:"timetable"`
	// Detected lists the hard violations present in the input timetable.
	Detected   []Violation `json:"detected,omitempty"`
	Changes    []Change    `json:"changes,omitempty"`
	Unresolved []Violation `json:"unresolved,omitempty"`
	Advisories []Violation `json:"advisories,omitempty"`
	Penalty    float64     `json:"penalty"`
	Iterations int         `json:"iterations"`
}

// Repairer re-establishes hard constraints on an edited timetable with as few changes as it can.
type Repairer struct {
	opts Options
}

// NewRepairer returns a repairer with the given options.
func NewRepairer(opts Options) *Repairer {
	return &Repairer{opts: opts.withDefaults()}
}

type repairEntry struct {
	assignment SessionAssignment
	alive      bool
}

type repairRun struct {
	snap    *Snapshot
	set     *ConstraintSet
	entries []repairEntry
	static  map[string][]SessionAssignment
}

// Enforce evaluates the timetable and repairs hard violations one at a time, relocating the
// offending assignment while every other assignment stays put. Soft violations are reported as
// advisories and never trigger changes. A timetable that is already valid comes back unchanged.
func (r *Repairer) Enforce(ctx context.Context, snap *Snapshot, tt Timetable) (*RepairResult, error) {
	if snap == nil {
		return nil, errors.New("scheduler: nil snapshot")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := snap.ValidateTimetable(tt); err != nil {
		return nil, err
	}

	run := &repairRun{
		snap:    snap,
		set:     r.opts.Constraints,
		entries: make([]repairEntry, len(tt.Assignments)),
		static:  make(map[string][]SessionAssignment),
	}
	for i, a := range tt.Assignments {
		run.entries[i] = repairEntry{assignment: a, alive: true}
	}

	var (
		changes    []Change
		detected   []Violation
		outcome    RepairOutcome
		iterations int
	)
	skip := make(map[string]struct{})
	for first := true; ; first = false {
		view, mapping := run.compact()
		hard, _, _ := SplitViolations(run.set.EvaluateAll(snap, view))
		if first {
			detected = hard
		}
		var (
			target Violation
			key    string
			found  bool
		)
		for _, v := range hard {
			k := violationKey(v, mapping)
			if _, skipped := skip[k]; skipped {
				continue
			}
			target, key, found = v, k, true
			break
		}
		if !found {
			break
		}
		if ctx.Err() != nil {
			outcome = RepairCancelled
			break
		}
		if iterations >= r.opts.RepairBudget {
			outcome = RepairBudgetExceeded
			break
		}
		iterations++
		applied := run.resolve(target, mapping)
		if len(applied) == 0 {
			skip[key] = struct{}{}
			continue
		}
		changes = append(changes, applied...)
	}

	view, _ := run.compact()
	unresolved, advisories, penalty := SplitViolations(run.set.EvaluateAll(snap, view))
	if outcome == RepairCancelled {
		unresolved = append(unresolved, Violation{
			ConstraintID: ConstraintSearchCancelled,
			Severity:     SeverityHard,
			Reason:       "cancelled, incomplete",
		})
	}
	if outcome == "" {
		switch {
		case len(unresolved) > 0:
			outcome = RepairPartial
		case len(changes) > 0:
			outcome = RepairRepaired
		default:
			outcome = RepairValid
		}
	}
	return &RepairResult{
		Outcome:    outcome,
		Timetable:  view,
		Detected:   detected,
		Changes:    changes,
		Unresolved: unresolved,
		Advisories: advisories,
		Penalty:    penalty,
		Iterations: iterations,
	}, nil
}

// compact returns the live assignments in entry order and, for each of their positions, the
// entry index they came from.
func (run *repairRun) compact() (Timetable, []int) {
	out := Timetable{Assignments: make([]SessionAssignment, 0, len(run.entries))}
	mapping := make([]int, 0, len(run.entries))
	for i, e := range run.entries {
		if !e.alive {
			continue
		}
		out.Assignments = append(out.Assignments, e.assignment)
		mapping = append(mapping, i)
	}
	return out, mapping
}

func violationKey(v Violation, mapping []int) string {
	var b strings.Builder
	b.WriteString(v.ConstraintID)
	b.WriteString("|")
	b.WriteString(v.SubjectID)
	entries := make([]int, len(v.Positions))
	for i, p := range v.Positions {
		entries[i] = mapping[p]
	}
	sort.Ints(entries)
	for _, e := range entries {
		b.WriteString("|")
		b.WriteString(strconv.Itoa(e))
	}
	return b.String()
}

// placementWithout places every live entry except the excluded one. Owners are entry indexes.
func (run *repairRun) placementWithout(excluded int) *Placement {
	p := NewPlacement(run.snap)
	for i, e := range run.entries {
		if e.alive && i != excluded {
			p.Place(i, e.assignment)
		}
	}
	return p
}

func (run *repairRun) candidates(subjectID string) []SessionAssignment {
	if cands, ok := run.static[subjectID]; ok {
		return cands
	}
	sp, ok := run.snap.subjectPos[subjectID]
	if !ok {
		return nil
	}
	cands, _, _ := subjectCandidates(run.snap, run.set, NewPlacement(run.snap), sp)
	run.static[subjectID] = cands
	return cands
}

// resolve attempts one repair step for the violation and returns the changes it applied.
func (run *repairRun) resolve(v Violation, mapping []int) []Change {
	if v.ConstraintID == ConstraintSessionCount {
		return run.fixSessionCount(v, mapping)
	}
	for k := len(v.Positions) - 1; k >= 0; k-- {
		e := mapping[v.Positions[k]]
		if change, ok := run.relocate(e, v.ConstraintID); ok {
			return []Change{change}
		}
	}
	return nil
}

// relocate moves one entry to the admissible candidate with the fewest changed fields, then the
// lowest soft penalty, then the earliest candidate.
func (run *repairRun) relocate(e int, constraintID string) (Change, bool) {
	orig := run.entries[e].assignment
	placement := run.placementWithout(e)
	var (
		best      SessionAssignment
		bestCost  int
		bestScore float64
		found     bool
	)
	for _, c := range run.candidates(orig.SubjectID) {
		c.Session = orig.Session
		cost := changeCost(orig, c)
		if cost == 0 || (found && cost > bestCost) {
			continue
		}
		if !run.set.Admissible(placement, c) {
			continue
		}
		score := run.set.Penalty(placement, c)
		if !found || cost < bestCost || score < bestScore {
			best, bestCost, bestScore, found = c, cost, score, true
		}
	}
	if !found {
		return Change{}, false
	}
	run.entries[e].assignment = best
	before, after := orig, best
	return Change{Kind: ChangeMoved, Position: e, Before: &before, After: &after, ConstraintID: constraintID}, true
}

// changeCost ranks relocations: a new slot is cheapest, then a new classroom, then a new
// faculty member.
func changeCost(from, to SessionAssignment) int {
	cost := 0
	if from.SlotID != to.SlotID {
		cost++
	}
	if from.ClassroomID != to.ClassroomID {
		cost += 2
	}
	if from.FacultyID != to.FacultyID {
		cost += 4
	}
	return cost
}

// fixSessionCount drops surplus sessions, latest first, or places one missing session.
func (run *repairRun) fixSessionCount(v Violation, mapping []int) []Change {
	required := run.snap.RequiredSessions(v.SubjectID)
	entries := make([]int, len(v.Positions))
	for i, p := range v.Positions {
		entries[i] = mapping[p]
	}
	sort.Ints(entries)

	if len(entries) > required {
		var changes []Change
		for _, e := range entries[required:] {
			before := run.entries[e].assignment
			run.entries[e].alive = false
			changes = append(changes, Change{Kind: ChangeRemoved, Position: e, Before: &before, ConstraintID: v.ConstraintID})
		}
		return changes
	}

	session := 1
	for _, e := range entries {
		session = max(session, run.entries[e].assignment.Session+1)
	}
	placement := run.placementWithout(-1)
	var (
		best      SessionAssignment
		bestScore float64
		found     bool
	)
	for _, c := range run.candidates(v.SubjectID) {
		c.Session = session
		if !run.set.Admissible(placement, c) {
			continue
		}
		score := run.set.Penalty(placement, c)
		if !found || score < bestScore {
			best, bestScore, found = c, score, true
		}
	}
	if !found {
		return nil
	}
	position := len(run.entries)
	run.entries = append(run.entries, repairEntry{assignment: best, alive: true})
	after := best
	return []Change{{Kind: ChangeAdded, Position: position, After: &after, ConstraintID: v.ConstraintID}}
}

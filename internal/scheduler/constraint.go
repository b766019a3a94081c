package scheduler

import (
	"fmt"
	"sort"
)

// Built-in constraint identifiers.
const (
	ConstraintFacultyDoubleBooking   = "faculty-double-booking"
	ConstraintClassroomDoubleBooking = "classroom-double-booking"
	ConstraintAvailability           = "availability"
	ConstraintSessionCount           = "session-count"
	ConstraintQualifiedFaculty       = "qualified-faculty"
	ConstraintClassroomCapacity      = "classroom-capacity"
	ConstraintSubjectSlotOverlap     = "subject-slot-overlap"

	ConstraintMorningLargeEnrollment = "morning-large-enrollment"
	ConstraintFacultyLoadBalance     = "faculty-load-balance"
	ConstraintSubjectDailySpread     = "subject-daily-spread"

	// ConstraintSearchCancelled is a diagnostic attached to cancelled solves and repairs.
	ConstraintSearchCancelled = "search-cancelled"
)

// Constraint is a named predicate over a (partial) timetable.
//
// Check evaluates a candidate assignment against the assignments already in the placement and
// returns nil when the candidate raises no violation. For hard constraints the returned
// violation lists the owners of the placed assignments it conflicts with. For soft constraints
// Penalty holds the incremental cost of adding the candidate.
//
// Evaluate inspects a complete timetable and reports every violation with timetable positions.
type Constraint interface {
	ID() string
	Severity() Severity
	Check(p *Placement, candidate SessionAssignment) *Violation
	Evaluate(snap *Snapshot, tt Timetable) []Violation
}

// ConstraintSet is an ordered collection of constraints with unique IDs.
type ConstraintSet struct {
	hard []Constraint
	soft []Constraint
}

// NewConstraintSet validates and groups the constraints. Hard constraints always run before
// soft ones; relative order within a severity is preserved.
func NewConstraintSet(constraints ...Constraint) (*ConstraintSet, error) {
	set := &ConstraintSet{}
	seen := make(map[string]struct{}, len(constraints))
	for _, c := range constraints {
		if c == nil {
			return nil, fmt.Errorf("nil constraint")
		}
		if _, dup := seen[c.ID()]; dup {
			return nil, fmt.Errorf("duplicate constraint %q", c.ID())
		}
		seen[c.ID()] = struct{}{}
		switch c.Severity() {
		case SeverityHard:
			set.hard = append(set.hard, c)
		case SeveritySoft:
			set.soft = append(set.soft, c)
		default:
			return nil, fmt.Errorf("constraint %q has unknown severity %q", c.ID(), c.Severity())
		}
	}
	return set, nil
}

// SoftWeights tunes the built-in soft constraints.
type SoftWeights struct {
	MorningCutoff     int
	LargeEnrollment   int
	MorningWeight     float64
	LoadBalanceWeight float64
	OverloadWeight    float64
	DailySpreadWeight float64
	// SlotOverlapWeight enables SubjectSlotOverlap when positive.
	SlotOverlapWeight float64
}

// DefaultSoftWeights returns the weights used when none are configured.
func DefaultSoftWeights() SoftWeights {
	return SoftWeights{
		MorningCutoff:     12 * 60,
		LargeEnrollment:   60,
		MorningWeight:     1,
		LoadBalanceWeight: 0.5,
		OverloadWeight:    5,
		DailySpreadWeight: 2,
	}
}

// HardConstraints returns the built-in hard constraints in evaluation order.
func HardConstraints() []Constraint {
	return []Constraint{
		QualifiedFaculty{},
		ClassroomCapacity{},
		AvailabilityWindow{},
		FacultyDoubleBooking{},
		ClassroomDoubleBooking{},
		SessionCount{},
	}
}

// DefaultConstraintSet returns the six hard constraints and the soft constraints enabled by w.
func DefaultConstraintSet(w SoftWeights) *ConstraintSet {
	constraints := append(HardConstraints(),
		MorningLargeEnrollment{Cutoff: w.MorningCutoff, Threshold: w.LargeEnrollment, Weight: w.MorningWeight},
		FacultyLoadBalance{Weight: w.LoadBalanceWeight, OverloadWeight: w.OverloadWeight},
		SubjectDailySpread{Weight: w.DailySpreadWeight},
	)
	if w.SlotOverlapWeight > 0 {
		constraints = append(constraints, SubjectSlotOverlap{Weight: w.SlotOverlapWeight})
	}
	set, err := NewConstraintSet(constraints...)
	if err != nil {
		panic(err)
	}
	return set
}

// Constraints returns every constraint, hard first.
func (s *ConstraintSet) Constraints() []Constraint {
	out := make([]Constraint, 0, len(s.hard)+len(s.soft))
	out = append(out, s.hard...)
	return append(out, s.soft...)
}

// IDs returns the constraint identifiers, hard first.
func (s *ConstraintSet) IDs() []string {
	out := make([]string, 0, len(s.hard)+len(s.soft))
	for _, c := range s.Constraints() {
		out = append(out, c.ID())
	}
	return out
}

// CheckHard returns every hard violation the candidate would raise against the placement.
func (s *ConstraintSet) CheckHard(p *Placement, candidate SessionAssignment) []Violation {
	var out []Violation
	for _, c := range s.hard {
		if v := c.Check(p, candidate); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Admissible reports whether the candidate raises no hard violation.
func (s *ConstraintSet) Admissible(p *Placement, candidate SessionAssignment) bool {
	for _, c := range s.hard {
		if c.Check(p, candidate) != nil {
			return false
		}
	}
	return true
}

// Penalty sums the incremental soft penalties of adding the candidate.
func (s *ConstraintSet) Penalty(p *Placement, candidate SessionAssignment) float64 {
	var total float64
	for _, c := range s.soft {
		if v := c.Check(p, candidate); v != nil {
			total += v.Penalty
		}
	}
	return total
}

// EvaluateAll runs every constraint over the timetable. Hard violations come first, then
// constraint order, then the first offending position.
func (s *ConstraintSet) EvaluateAll(snap *Snapshot, tt Timetable) []Violation {
	var out []Violation
	for _, group := range [][]Constraint{s.hard, s.soft} {
		for _, c := range group {
			found := c.Evaluate(snap, tt)
			sort.SliceStable(found, func(i, j int) bool {
				return firstPosition(found[i]) < firstPosition(found[j])
			})
			out = append(out, found...)
		}
	}
	return out
}

// SplitViolations separates hard violations from soft ones and sums the soft penalty.
func SplitViolations(violations []Violation) (hard, soft []Violation, penalty float64) {
	for _, v := range violations {
		if v.Severity == SeverityHard {
			hard = append(hard, v)
			continue
		}
		soft = append(soft, v)
		penalty += v.Penalty
	}
	return hard, soft, penalty
}

func firstPosition(v Violation) int {
	if len(v.Positions) == 0 {
		return -1
	}
	lowest := v.Positions[0]
	for _, p := range v.Positions[1:] {
		if p < lowest {
			lowest = p
		}
	}
	return lowest
}

// clashes groups timetable positions sharing the same key at the same slot and reports every
// group with more than one member.
func clashes(tt Timetable, id string, key func(SessionAssignment) string, describe func(key, slot string, n int) string) []Violation {
	type cell struct{ key, slot string }
	groups := make(map[cell][]int)
	var order []cell
	for i, a := range tt.Assignments {
		c := cell{key: key(a), slot: a.SlotID}
		if _, ok := groups[c]; !ok {
			order = append(order, c)
		}
		groups[c] = append(groups[c], i)
	}
	var out []Violation
	for _, c := range order {
		positions := groups[c]
		if len(positions) < 2 {
			continue
		}
		out = append(out, Violation{
			ConstraintID: id,
			Severity:     SeverityHard,
			Assignments:  pick(tt, positions),
			Positions:    positions,
			Reason:       describe(c.key, c.slot, len(positions)),
		})
	}
	return out
}

func pick(tt Timetable, positions []int) []SessionAssignment {
	out := make([]SessionAssignment, len(positions))
	for i, p := range positions {
		out[i] = tt.Assignments[p]
	}
	return out
}

func owned(p *Placement, owners []int) []SessionAssignment {
	out := make([]SessionAssignment, 0, len(owners))
	for _, o := range owners {
		if a, ok := p.Assignment(o); ok {
			out = append(out, a)
		}
	}
	return out
}

func hardViolation(id string, p *Placement, owners []int, reason string) *Violation {
	return &Violation{
		ConstraintID: id,
		Severity:     SeverityHard,
		Assignments:  owned(p, owners),
		Positions:    append([]int(nil), owners...),
		Reason:       reason,
	}
}

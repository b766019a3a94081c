package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Default search limits.
const (
	DefaultNodeBudget   = 200000
	DefaultRepairBudget = 64
)

// Options configures the solver and the repair engine. Zero values fall back to defaults.
type Options struct {
	// NodeBudget bounds the candidate assignments examined by one search run.
	NodeBudget int
	// RepairBudget bounds the repair iterations of one enforcement.
	RepairBudget int
	// Workers > 1 explores the first session's candidates in parallel branches.
	Workers     int
	Constraints *ConstraintSet
}

func (o Options) withDefaults() Options {
	if o.NodeBudget <= 0 {
		o.NodeBudget = DefaultNodeBudget
	}
	if o.RepairBudget <= 0 {
		o.RepairBudget = DefaultRepairBudget
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Constraints == nil {
		o.Constraints = DefaultConstraintSet(DefaultSoftWeights())
	}
	return o
}

// Outcome classifies a solve.
type Outcome string

const (
	OutcomeFeasible       Outcome = "FEASIBLE"
	OutcomeInfeasible     Outcome = "INFEASIBLE"
	OutcomeBudgetExceeded Outcome = "BUDGET_EXCEEDED"
	OutcomeCancelled      Outcome = "CANCELLED"
)

// Reason codes for sessions the solver could not place.
const (
	ReasonNoQualifiedFaculty   = "NO_QUALIFIED_FACULTY"
	ReasonNoClassroomCapacity  = "NO_CLASSROOM_CAPACITY"
	ReasonNoCommonAvailability = "NO_COMMON_AVAILABILITY"
	ReasonNoClassroomAvailable = "NO_CLASSROOM_AVAILABLE"
	ReasonResourcesExhausted   = "RESOURCES_EXHAUSTED"
	ReasonBudgetExhausted      = "BUDGET_EXHAUSTED"
	ReasonCancelled            = "CANCELLED"
)

// UnplacedSession explains why a required session is missing from the timetable.
type UnplacedSession struct {
	SubjectID string `json:"subjectId"`
	Session   int    `json:"session"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

// Stats reports search effort.
type Stats struct {
	NodesVisited int `json:"nodesVisited"`
	Backjumps    int `json:"backjumps"`
	MaxDepth     int `json:"maxDepth"`
	Branches     int `json:"branches"`
}

func (s *Stats) add(o Stats) {
	s.NodesVisited += o.NodesVisited
	s.Backjumps += o.Backjumps
	s.MaxDepth = max(s.MaxDepth, o.MaxDepth)
	s.Branches += o.Branches
}

// Result is the outcome of a solve. The timetable is in canonical order.
type Result struct {
	Outcome    Outcome           `json:"outcome"`
	Timetable  Timetable         `json:"timetable"`
	Penalty    float64           `json:"penalty"`
	Violations []Violation       `json:"violations,omitempty"`
	Unplaced   []UnplacedSession `json:"unplaced,omitempty"`
	Stats      Stats             `json:"stats"`
}

// Feasible reports whether every required session was placed.
func (r *Result) Feasible() bool {
	return r != nil && r.Outcome == OutcomeFeasible
}

// Solver builds timetables from snapshots. It holds no state between calls.
type Solver struct {
	opts Options
}

// NewSolver returns a solver with the given options.
func NewSolver(opts Options) *Solver {
	return &Solver{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (s *Solver) Options() Options {
	return s.opts
}

// Solve searches for a timetable satisfying every hard constraint while minimising soft
// penalties. Infeasibility, budget exhaustion and cancellation are reported through the
// result's Outcome, never as errors.
func (s *Solver) Solve(ctx context.Context, snap *Snapshot) (*Result, error) {
	if snap == nil {
		return nil, errors.New("scheduler: nil snapshot")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	vars, blocked := buildVariables(snap, s.opts.Constraints)
	if s.opts.Workers > 1 && len(vars) > 0 {
		return s.solveParallel(ctx, snap, vars, blocked), nil
	}
	srch := newSearch(snap, s.opts.Constraints, vars, s.opts.NodeBudget, -1)
	stop := srch.run(ctx)
	res := s.finish(snap, srch, stop, blocked)
	res.Stats.Branches = 1
	return res, nil
}

// --- Variables ---

type blockedSession struct {
	subject int
	session int
	code    string
	reason  string
}

// buildVariables enumerates each subject's static candidates and returns one variable per
// required session, most constrained first. Sessions without any candidate are returned
// separately since no search can place them.
func buildVariables(snap *Snapshot, set *ConstraintSet) ([]variable, []blockedSession) {
	empty := NewPlacement(snap)
	var vars []variable
	var blocked []blockedSession
	for sp := range snap.subjects {
		cands, code, reason := subjectCandidates(snap, set, empty, sp)
		for k := 1; k <= snap.required[sp]; k++ {
			if len(cands) == 0 {
				blocked = append(blocked, blockedSession{subject: sp, session: k, code: code, reason: reason})
				continue
			}
			vars = append(vars, variable{subject: sp, session: k, cands: cands})
		}
	}
	sort.SliceStable(vars, func(i, j int) bool {
		if len(vars[i].cands) != len(vars[j].cands) {
			return len(vars[i].cands) < len(vars[j].cands)
		}
		if vars[i].subject != vars[j].subject {
			return vars[i].subject < vars[j].subject
		}
		return vars[i].session < vars[j].session
	})
	return vars, blocked
}

// subjectCandidates lists qualified faculty × large enough classrooms × shared free slots that
// pass every hard constraint on an empty placement, in (slot, faculty, classroom) order. When the
// list is empty it also returns the reason.
func subjectCandidates(snap *Snapshot, set *ConstraintSet, empty *Placement, sp int) ([]SessionAssignment, string, string) {
	subject := snap.subjects[sp]
	qualified := snap.qualified[sp]
	if len(qualified) == 0 {
		return nil, ReasonNoQualifiedFaculty, "no qualified faculty available"
	}
	var rooms []int
	for cp, room := range snap.classrooms {
		if room.Capacity >= subject.Enrollment {
			rooms = append(rooms, cp)
		}
	}
	if len(rooms) == 0 {
		return nil, ReasonNoClassroomCapacity, fmt.Sprintf("no classroom seats %d students", subject.Enrollment)
	}

	type ranked struct {
		slot int
		cand SessionAssignment
	}
	var found []ranked
	for _, fp := range qualified {
		facultyID := snap.faculty[fp].ID
		for _, cp := range rooms {
			classroomID := snap.classrooms[cp].ID
			cursor := snap.index.CandidateSlots(facultyID, classroomID)
			for slot, ok := cursor.nextPosition(); ok; slot, ok = cursor.nextPosition() {
				cand := SessionAssignment{
					SubjectID:   subject.ID,
					Session:     1,
					FacultyID:   facultyID,
					ClassroomID: classroomID,
					SlotID:      snap.grid.Slot(slot).ID,
				}
				if !set.Admissible(empty, cand) {
					continue
				}
				found = append(found, ranked{slot: slot, cand: cand})
			}
		}
	}
	if len(found) == 0 {
		return nil, ReasonNoCommonAvailability, "no slot where a qualified faculty member and a large enough classroom are both available"
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].slot < found[j].slot })
	out := make([]SessionAssignment, len(found))
	for i, r := range found {
		out[i] = r.cand
	}
	return out, "", ""
}

// --- Results ---

// finish turns a finished search into a Result: the best prefix is kept, completed greedily
// after exhaustion, and every missing session is explained.
func (s *Solver) finish(snap *Snapshot, srch *search, stop stopReason, blocked []blockedSession) *Result {
	set := s.opts.Constraints
	placement := NewPlacement(snap)
	var assignments []SessionAssignment
	depth := max(srch.bestDepth, 0)
	for i := 0; i < depth; i++ {
		c := srch.candidate(i, srch.best[i])
		placement.Place(i, c)
		assignments = append(assignments, c)
	}

	var unplaced []UnplacedSession
	for i := depth; i < len(srch.vars); i++ {
		v := srch.vars[i]
		subjectID := snap.subjects[v.subject].ID
		switch stop {
		case stopBudget:
			unplaced = append(unplaced, UnplacedSession{SubjectID: subjectID, Session: v.session, Code: ReasonBudgetExhausted,
				Reason: "search budget exhausted before this session was placed"})
			continue
		case stopCancelled:
			unplaced = append(unplaced, UnplacedSession{SubjectID: subjectID, Session: v.session, Code: ReasonCancelled,
				Reason: "search cancelled before this session was placed"})
			continue
		}
		if c, ok := greedyPlace(set, placement, srch, i); ok {
			placement.Place(i, c)
			assignments = append(assignments, c)
			continue
		}
		code, reason := diagnose(set, placement, srch, i)
		unplaced = append(unplaced, UnplacedSession{SubjectID: subjectID, Session: v.session, Code: code, Reason: reason})
	}
	for _, b := range blocked {
		unplaced = append(unplaced, UnplacedSession{SubjectID: snap.subjects[b.subject].ID, Session: b.session, Code: b.code, Reason: b.reason})
	}
	sort.SliceStable(unplaced, func(i, j int) bool {
		if unplaced[i].SubjectID != unplaced[j].SubjectID {
			return unplaced[i].SubjectID < unplaced[j].SubjectID
		}
		return unplaced[i].Session < unplaced[j].Session
	})

	tt := snap.CanonicalOrder(Timetable{Assignments: assignments})
	_, soft, penalty := SplitViolations(set.EvaluateAll(snap, tt))
	res := &Result{
		Timetable:  tt,
		Penalty:    penalty,
		Violations: soft,
		Unplaced:   unplaced,
		Stats: Stats{
			NodesVisited: srch.nodes,
			Backjumps:    srch.backjumps,
			MaxDepth:     srch.maxDepth,
		},
	}
	switch {
	case stop == stopCancelled:
		res.Outcome = OutcomeCancelled
		res.Violations = append(res.Violations, Violation{
			ConstraintID: ConstraintSearchCancelled,
			Severity:     SeverityHard,
			Reason:       "cancelled, incomplete",
		})
	case stop == stopBudget:
		res.Outcome = OutcomeBudgetExceeded
	case len(unplaced) == 0:
		res.Outcome = OutcomeFeasible
	default:
		res.Outcome = OutcomeInfeasible
	}
	return res
}

// greedyPlace picks the cheapest admissible candidate for variable i.
func greedyPlace(set *ConstraintSet, placement *Placement, srch *search, i int) (SessionAssignment, bool) {
	var (
		best      SessionAssignment
		bestScore float64
		found     bool
	)
	for ci := range srch.vars[i].cands {
		c := srch.candidate(i, ci)
		if !set.Admissible(placement, c) {
			continue
		}
		score := set.Penalty(placement, c)
		if !found || score < bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

// diagnose names the resource that blocks every candidate of variable i.
func diagnose(set *ConstraintSet, placement *Placement, srch *search, i int) (string, string) {
	allFaculty, allClassroom := true, true
	for ci := range srch.vars[i].cands {
		var faculty, classroom bool
		for _, v := range set.CheckHard(placement, srch.candidate(i, ci)) {
			switch v.ConstraintID {
			case ConstraintFacultyDoubleBooking:
				faculty = true
			case ConstraintClassroomDoubleBooking:
				classroom = true
			}
		}
		allFaculty = allFaculty && faculty
		allClassroom = allClassroom && classroom
	}
	switch {
	case allFaculty:
		return ReasonNoQualifiedFaculty, "no qualified faculty available"
	case allClassroom:
		return ReasonNoClassroomAvailable, "every suitable classroom is taken in the remaining slots"
	}
	return ReasonResourcesExhausted, "every remaining slot conflicts with sessions already placed"
}

// --- Parallel branches ---

type branchRun struct {
	search *search
	stop   stopReason
}

// solveParallel pins the first variable to each of its candidates and searches the branches
// concurrently. The lowest-indexed feasible branch wins, which is the branch a sequential run
// would have found first.
func (s *Solver) solveParallel(ctx context.Context, snap *Snapshot, vars []variable, blocked []blockedSession) *Result {
	set := s.opts.Constraints
	scout := newSearch(snap, set, vars, s.opts.NodeBudget, -1)
	scout.orderCandidates(0)
	roots := scout.order[0]

	runs := make([]*branchRun, len(roots))
	ctxs := make([]context.Context, len(roots))
	cancels := make([]context.CancelFunc, len(roots))
	for b := range roots {
		ctxs[b], cancels[b] = context.WithCancel(ctx)
	}
	defer func() {
		for _, cancel := range cancels {
			cancel()
		}
	}()

	var (
		mu     sync.Mutex
		lowest = len(roots)
		g      errgroup.Group
	)
	g.SetLimit(s.opts.Workers)
	for b := range roots {
		b := b
		g.Go(func() error {
			mu.Lock()
			skip := b > lowest
			mu.Unlock()
			if skip {
				return nil
			}
			srch := newSearch(snap, set, vars, s.opts.NodeBudget, roots[b])
			stop := srch.run(ctxs[b])
			mu.Lock()
			defer mu.Unlock()
			runs[b] = &branchRun{search: srch, stop: stop}
			if stop == stopComplete && b < lowest {
				lowest = b
				for k := b + 1; k < len(roots); k++ {
					cancels[k]()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if lowest < len(roots) {
		res := s.finish(snap, runs[lowest].search, stopComplete, blocked)
		res.Stats = Stats{}
		for b := 0; b <= lowest; b++ {
			res.Stats.add(branchStats(runs[b]))
		}
		return res
	}

	var (
		best     *Result
		total    Stats
		budgeted bool
	)
	for _, run := range runs {
		if run == nil {
			continue
		}
		total.add(branchStats(run))
		if run.stop == stopBudget {
			budgeted = true
		}
		res := s.finish(snap, run.search, run.stop, blocked)
		if best == nil || betterPartial(res, best) {
			best = res
		}
	}
	if best == nil {
		srch := newSearch(snap, set, vars, s.opts.NodeBudget, -1)
		best = s.finish(snap, srch, stopCancelled, blocked)
	}
	switch {
	case ctx.Err() != nil && best.Outcome != OutcomeCancelled:
		best.Outcome = OutcomeCancelled
		best.Violations = append(best.Violations, Violation{
			ConstraintID: ConstraintSearchCancelled,
			Severity:     SeverityHard,
			Reason:       "cancelled, incomplete",
		})
	case ctx.Err() == nil && budgeted:
		best.Outcome = OutcomeBudgetExceeded
	}
	best.Stats = total
	return best
}

func branchStats(run *branchRun) Stats {
	if run == nil {
		return Stats{}
	}
	return Stats{
		NodesVisited: run.search.nodes,
		Backjumps:    run.search.backjumps,
		MaxDepth:     run.search.maxDepth,
		Branches:     1,
	}
}

// betterPartial orders partial results by fewest unplaced sessions, then lowest penalty. Ties
// keep the earlier branch.
func betterPartial(a, b *Result) bool {
	if len(a.Unplaced) != len(b.Unplaced) {
		return len(a.Unplaced) < len(b.Unplaced)
	}
	return a.Penalty < b.Penalty
}

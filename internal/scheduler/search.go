package scheduler

import (
	"context"
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// variable is one session still to be placed. Candidates are shared by every session of the
// same subject; the session number is stamped on when a candidate is used.
type variable struct {
	subject int
	session int
	cands   []SessionAssignment
}

type stopReason int

const (
	stopComplete stopReason = iota
	stopExhausted
	stopBudget
	stopCancelled
)

// search is one conflict-directed backjumping run over an ordered list of variables. Owners in
// the placement are variable indexes, so hard violations name their culprits directly.
type search struct {
	set    *ConstraintSet
	vars   []variable
	budget int
	root   int

	placement *Placement
	order     [][]int
	scores    [][]float64
	pos       []int
	chosen    []int
	penalty   []float64
	conflict  []*bitset.BitSet

	nodes     int
	backjumps int
	maxDepth  int

	bestDepth   int
	bestPenalty float64
	best        []int
}

// newSearch prepares a run. A non-negative root pins the first variable to that candidate.
func newSearch(snap *Snapshot, set *ConstraintSet, vars []variable, budget, root int) *search {
	n := len(vars)
	s := &search{
		set:       set,
		vars:      vars,
		budget:    budget,
		root:      root,
		placement: NewPlacement(snap),
		order:     make([][]int, n),
		scores:    make([][]float64, n),
		pos:       make([]int, n),
		chosen:    make([]int, n),
		penalty:   make([]float64, n),
		conflict:  make([]*bitset.BitSet, n),
		bestDepth: -1,
	}
	for i := range vars {
		s.chosen[i] = -1
		s.conflict[i] = bitset.New(uint(n))
	}
	return s
}

func (s *search) candidate(i, ci int) SessionAssignment {
	c := s.vars[i].cands[ci]
	c.Session = s.vars[i].session
	return c
}

// orderCandidates sorts the variable's candidates by the soft penalty they would add to the
// current placement. The sort is stable, so ties keep index order.
func (s *search) orderCandidates(i int) {
	n := len(s.vars[i].cands)
	scores := make([]float64, n)
	for ci := 0; ci < n; ci++ {
		scores[ci] = s.set.Penalty(s.placement, s.candidate(i, ci))
	}
	s.scores[i] = scores
	if i == 0 && s.root >= 0 {
		s.order[i] = []int{s.root}
		return
	}
	order := make([]int, n)
	for ci := range order {
		order[ci] = ci
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})
	s.order[i] = order
}

func (s *search) place(i, ci int) {
	s.placement.Place(i, s.candidate(i, ci))
	s.chosen[i] = ci
	s.penalty[i] = s.scores[i][ci]
}

func (s *search) unplace(i int) {
	s.placement.Remove(i)
	s.chosen[i] = -1
	s.penalty[i] = 0
}

func (s *search) reset(i int) {
	s.pos[i] = 0
	s.order[i] = nil
	s.scores[i] = nil
	s.conflict[i].ClearAll()
}

// recordBest remembers the placed prefix when it is deeper, or as deep and cheaper, than the
// best seen so far.
func (s *search) recordBest(depth int) {
	var total float64
	for _, p := range s.penalty[:depth] {
		total += p
	}
	if depth < s.bestDepth || (depth == s.bestDepth && total >= s.bestPenalty) {
		return
	}
	s.bestDepth = depth
	s.bestPenalty = total
	s.best = append(s.best[:0], s.chosen[:depth]...)
}

func deepest(b *bitset.BitSet) int {
	h := -1
	for j, ok := b.NextSet(0); ok; j, ok = b.NextSet(j + 1) {
		h = int(j)
	}
	return h
}

// run explores the variables in order. Every candidate examined counts against the budget.
func (s *search) run(ctx context.Context) stopReason {
	n := len(s.vars)
	i := 0
	for i < n {
		if s.order[i] == nil {
			s.orderCandidates(i)
		}
		placed := false
		for s.pos[i] < len(s.order[i]) {
			if ctx.Err() != nil {
				s.recordBest(i)
				return stopCancelled
			}
			if s.nodes >= s.budget {
				s.recordBest(i)
				return stopBudget
			}
			s.nodes++
			ci := s.order[i][s.pos[i]]
			s.pos[i]++
			violations := s.set.CheckHard(s.placement, s.candidate(i, ci))
			if len(violations) == 0 {
				s.place(i, ci)
				placed = true
				break
			}
			for _, v := range violations {
				for _, owner := range v.Positions {
					if owner >= 0 && owner < i {
						s.conflict[i].Set(uint(owner))
					}
				}
			}
		}
		if placed {
			i++
			if i > s.maxDepth {
				s.maxDepth = i
			}
			continue
		}

		s.recordBest(i)
		h := deepest(s.conflict[i])
		if h < 0 {
			return stopExhausted
		}
		s.backjumps++
		s.conflict[h].InPlaceUnion(s.conflict[i])
		s.conflict[h].Clear(uint(h))
		for j := i; j > h; j-- {
			if s.chosen[j] >= 0 {
				s.unplace(j)
			}
			s.reset(j)
		}
		s.unplace(h)
		i = h
	}
	s.recordBest(n)
	return stopComplete
}

package scheduler

import (
	"fmt"
)

// MorningLargeEnrollment penalises large classes that start at or after the cutoff.
type MorningLargeEnrollment struct {
	// Cutoff is in minutes from midnight.
	Cutoff    int
	Threshold int
	Weight    float64
}

func (MorningLargeEnrollment) ID() string         { return ConstraintMorningLargeEnrollment }
func (MorningLargeEnrollment) Severity() Severity { return SeveritySoft }

func (m MorningLargeEnrollment) Check(p *Placement, c SessionAssignment) *Violation {
	if !m.applies(p.Snapshot(), c) {
		return nil
	}
	return &Violation{
		ConstraintID: ConstraintMorningLargeEnrollment,
		Severity:     SeveritySoft,
		SubjectID:    c.SubjectID,
		Reason:       m.reason(c),
		Penalty:      m.Weight,
	}
}

func (m MorningLargeEnrollment) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	var out []Violation
	for i, a := range tt.Assignments {
		if !m.applies(snap, a) {
			continue
		}
		out = append(out, Violation{
			ConstraintID: ConstraintMorningLargeEnrollment,
			Severity:     SeveritySoft,
			SubjectID:    a.SubjectID,
			Assignments:  []SessionAssignment{a},
			Positions:    []int{i},
			Reason:       m.reason(a),
			Penalty:      m.Weight,
		})
	}
	return out
}

func (m MorningLargeEnrollment) applies(snap *Snapshot, a SessionAssignment) bool {
	if m.Weight <= 0 || m.Threshold <= 0 {
		return false
	}
	subject, ok := snap.SubjectByID(a.SubjectID)
	if !ok || subject.Enrollment < m.Threshold {
		return false
	}
	slot, ok := snap.Grid().Lookup(a.SlotID)
	return ok && slot.Start >= m.Cutoff
}

func (m MorningLargeEnrollment) reason(a SessionAssignment) string {
	return fmt.Sprintf("large class %s scheduled at %s, after %s", a.SubjectID, a.SlotID, FormatClock(m.Cutoff))
}

// FacultyLoadBalance penalises sessions of one faculty member stacking on the same day. Every
// session beyond the first on a day costs Weight times the sessions already there, and every
// session beyond MaxSessionsPerDay costs OverloadWeight.
type FacultyLoadBalance struct {
	Weight         float64
	OverloadWeight float64
}

func (FacultyLoadBalance) ID() string         { return ConstraintFacultyLoadBalance }
func (FacultyLoadBalance) Severity() Severity { return SeveritySoft }

func (f FacultyLoadBalance) Check(p *Placement, c SessionAssignment) *Violation {
	load := p.FacultyDayLoad(c.FacultyID, c.SlotID)
	penalty := f.Weight * float64(load)
	faculty, _ := p.Snapshot().FacultyByID(c.FacultyID)
	if faculty.MaxSessionsPerDay > 0 && load+1 > faculty.MaxSessionsPerDay {
		penalty += f.OverloadWeight
	}
	if penalty <= 0 {
		return nil
	}
	return &Violation{
		ConstraintID: ConstraintFacultyLoadBalance,
		Severity:     SeveritySoft,
		Reason:       fmt.Sprintf("faculty %s would teach %d sessions on the day of %s", c.FacultyID, load+1, c.SlotID),
		Penalty:      penalty,
	}
}

func (f FacultyLoadBalance) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	var out []Violation
	for _, g := range groupByDay(snap, tt, func(a SessionAssignment) string { return a.FacultyID }) {
		n := len(g.positions)
		penalty := f.Weight * float64(n*(n-1)/2)
		faculty, _ := snap.FacultyByID(g.key)
		if faculty.MaxSessionsPerDay > 0 && n > faculty.MaxSessionsPerDay {
			penalty += f.OverloadWeight * float64(n-faculty.MaxSessionsPerDay)
		}
		if penalty <= 0 {
			continue
		}
		out = append(out, Violation{
			ConstraintID: ConstraintFacultyLoadBalance,
			Severity:     SeveritySoft,
			Assignments:  pick(tt, g.positions),
			Positions:    g.positions,
			Reason:       fmt.Sprintf("faculty %s teaches %d sessions on %s", g.key, n, g.day),
			Penalty:      penalty,
		})
	}
	return out
}

// SubjectDailySpread penalises two sessions of one subject on the same day.
type SubjectDailySpread struct {
	Weight float64
}

func (SubjectDailySpread) ID() string         { return ConstraintSubjectDailySpread }
func (SubjectDailySpread) Severity() Severity { return SeveritySoft }

func (s SubjectDailySpread) Check(p *Placement, c SessionAssignment) *Violation {
	load := p.SubjectDayLoad(c.SubjectID, c.SlotID)
	if load == 0 || s.Weight <= 0 {
		return nil
	}
	return &Violation{
		ConstraintID: ConstraintSubjectDailySpread,
		Severity:     SeveritySoft,
		SubjectID:    c.SubjectID,
		Reason:       fmt.Sprintf("subject %s already meets on the day of %s", c.SubjectID, c.SlotID),
		Penalty:      s.Weight * float64(load),
	}
}

func (s SubjectDailySpread) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	if s.Weight <= 0 {
		return nil
	}
	var out []Violation
	for _, g := range groupByDay(snap, tt, func(a SessionAssignment) string { return a.SubjectID }) {
		n := len(g.positions)
		if n < 2 {
			continue
		}
		out = append(out, Violation{
			ConstraintID: ConstraintSubjectDailySpread,
			Severity:     SeveritySoft,
			SubjectID:    g.key,
			Assignments:  pick(tt, g.positions),
			Positions:    g.positions,
			Reason:       fmt.Sprintf("subject %s meets %d times on %s", g.key, n, g.day),
			Penalty:      s.Weight * float64(n*(n-1)/2),
		})
	}
	return out
}

// SubjectSlotOverlap penalises two sessions of one subject in the same slot. It is opt-in:
// parallel sections of a subject are legal, so the default set leaves it out.
type SubjectSlotOverlap struct {
	Weight float64
}

func (SubjectSlotOverlap) ID() string         { return ConstraintSubjectSlotOverlap }
func (SubjectSlotOverlap) Severity() Severity { return SeveritySoft }

func (o SubjectSlotOverlap) Check(p *Placement, c SessionAssignment) *Violation {
	owners := p.SubjectOwners(c.SubjectID, c.SlotID)
	if len(owners) == 0 || o.Weight <= 0 {
		return nil
	}
	return &Violation{
		ConstraintID: ConstraintSubjectSlotOverlap,
		Severity:     SeveritySoft,
		SubjectID:    c.SubjectID,
		Assignments:  owned(p, owners),
		Positions:    append([]int(nil), owners...),
		Reason:       fmt.Sprintf("subject %s already has a session at %s", c.SubjectID, c.SlotID),
		Penalty:      o.Weight * float64(len(owners)),
	}
}

func (o SubjectSlotOverlap) Evaluate(_ *Snapshot, tt Timetable) []Violation {
	if o.Weight <= 0 {
		return nil
	}
	out := clashes(tt, ConstraintSubjectSlotOverlap,
		func(a SessionAssignment) string { return a.SubjectID },
		func(key, slot string, n int) string {
			return fmt.Sprintf("subject %s has %d sessions at %s", key, n, slot)
		})
	for i := range out {
		n := len(out[i].Positions)
		out[i].Severity = SeveritySoft
		out[i].SubjectID = out[i].Assignments[0].SubjectID
		out[i].Penalty = o.Weight * float64(n*(n-1)/2)
	}
	return out
}

type dayGroup struct {
	key       string
	day       Weekday
	positions []int
}

// groupByDay buckets timetable positions by (key, weekday) in order of first appearance.
func groupByDay(snap *Snapshot, tt Timetable, key func(SessionAssignment) string) []dayGroup {
	type cell struct {
		key string
		day Weekday
	}
	index := make(map[cell]int)
	var groups []dayGroup
	for i, a := range tt.Assignments {
		slot, ok := snap.Grid().Lookup(a.SlotID)
		if !ok {
			continue
		}
		c := cell{key: key(a), day: slot.Day}
		g, ok := index[c]
		if !ok {
			g = len(groups)
			index[c] = g
			groups = append(groups, dayGroup{key: c.key, day: c.day})
		}
		groups[g].positions = append(groups[g].positions, i)
	}
	return groups
}

package scheduler

import (
	"fmt"
)

// FacultyDoubleBooking forbids a faculty member from teaching two sessions in one slot.
type FacultyDoubleBooking struct{}

func (FacultyDoubleBooking) ID() string         { return ConstraintFacultyDoubleBooking }
func (FacultyDoubleBooking) Severity() Severity { return SeverityHard }

func (FacultyDoubleBooking) Check(p *Placement, c SessionAssignment) *Violation {
	owners := p.FacultyOwners(c.FacultyID, c.SlotID)
	if len(owners) == 0 {
		return nil
	}
	return hardViolation(ConstraintFacultyDoubleBooking, p, owners,
		fmt.Sprintf("faculty %s already teaches at %s", c.FacultyID, c.SlotID))
}

func (FacultyDoubleBooking) Evaluate(_ *Snapshot, tt Timetable) []Violation {
	return clashes(tt, ConstraintFacultyDoubleBooking,
		func(a SessionAssignment) string { return a.FacultyID },
		func(key, slot string, n int) string {
			return fmt.Sprintf("faculty %s is booked %d times at %s", key, n, slot)
		})
}

// ClassroomDoubleBooking forbids two sessions sharing a classroom in one slot.
type ClassroomDoubleBooking struct{}

func (ClassroomDoubleBooking) ID() string         { return ConstraintClassroomDoubleBooking }
func (ClassroomDoubleBooking) Severity() Severity { return SeverityHard }

func (ClassroomDoubleBooking) Check(p *Placement, c SessionAssignment) *Violation {
	owners := p.ClassroomOwners(c.ClassroomID, c.SlotID)
	if len(owners) == 0 {
		return nil
	}
	return hardViolation(ConstraintClassroomDoubleBooking, p, owners,
		fmt.Sprintf("classroom %s is already used at %s", c.ClassroomID, c.SlotID))
}

func (ClassroomDoubleBooking) Evaluate(_ *Snapshot, tt Timetable) []Violation {
	return clashes(tt, ConstraintClassroomDoubleBooking,
		func(a SessionAssignment) string { return a.ClassroomID },
		func(key, slot string, n int) string {
			return fmt.Sprintf("classroom %s is booked %d times at %s", key, n, slot)
		})
}

// AvailabilityWindow requires the slot to lie within both the faculty member's and the
// classroom's declared availability.
type AvailabilityWindow struct{}

func (AvailabilityWindow) ID() string         { return ConstraintAvailability }
func (AvailabilityWindow) Severity() Severity { return SeverityHard }

func (AvailabilityWindow) Check(p *Placement, c SessionAssignment) *Violation {
	reason := availabilityReason(p.Snapshot().Index(), c)
	if reason == "" {
		return nil
	}
	return &Violation{ConstraintID: ConstraintAvailability, Severity: SeverityHard, Reason: reason}
}

func (AvailabilityWindow) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	var out []Violation
	for i, a := range tt.Assignments {
		if reason := availabilityReason(snap.Index(), a); reason != "" {
			out = append(out, Violation{
				ConstraintID: ConstraintAvailability,
				Severity:     SeverityHard,
				Assignments:  []SessionAssignment{a},
				Positions:    []int{i},
				Reason:       reason,
			})
		}
	}
	return out
}

func availabilityReason(idx *Index, a SessionAssignment) string {
	facultyFree := idx.IsFree(EntityFaculty, a.FacultyID, a.SlotID)
	classroomFree := idx.IsFree(EntityClassroom, a.ClassroomID, a.SlotID)
	switch {
	case !facultyFree && !classroomFree:
		return fmt.Sprintf("faculty %s and classroom %s are unavailable at %s", a.FacultyID, a.ClassroomID, a.SlotID)
	case !facultyFree:
		return fmt.Sprintf("faculty %s is unavailable at %s", a.FacultyID, a.SlotID)
	case !classroomFree:
		return fmt.Sprintf("classroom %s is unavailable at %s", a.ClassroomID, a.SlotID)
	}
	return ""
}

// QualifiedFaculty requires the assigned faculty member to be qualified for the subject.
type QualifiedFaculty struct{}

func (QualifiedFaculty) ID() string         { return ConstraintQualifiedFaculty }
func (QualifiedFaculty) Severity() Severity { return SeverityHard }

func (QualifiedFaculty) Check(p *Placement, c SessionAssignment) *Violation {
	if p.Snapshot().Qualified(c.SubjectID, c.FacultyID) {
		return nil
	}
	return &Violation{
		ConstraintID: ConstraintQualifiedFaculty,
		Severity:     SeverityHard,
		SubjectID:    c.SubjectID,
		Reason:       fmt.Sprintf("faculty %s is not qualified for %s", c.FacultyID, c.SubjectID),
	}
}

func (QualifiedFaculty) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	var out []Violation
	for i, a := range tt.Assignments {
		if snap.Qualified(a.SubjectID, a.FacultyID) {
			continue
		}
		out = append(out, Violation{
			ConstraintID: ConstraintQualifiedFaculty,
			Severity:     SeverityHard,
			SubjectID:    a.SubjectID,
			Assignments:  []SessionAssignment{a},
			Positions:    []int{i},
			Reason:       fmt.Sprintf("faculty %s is not qualified for %s", a.FacultyID, a.SubjectID),
		})
	}
	return out
}

// ClassroomCapacity requires the classroom to seat the subject's enrollment.
type ClassroomCapacity struct{}

func (ClassroomCapacity) ID() string         { return ConstraintClassroomCapacity }
func (ClassroomCapacity) Severity() Severity { return SeverityHard }

func (ClassroomCapacity) Check(p *Placement, c SessionAssignment) *Violation {
	reason := capacityReason(p.Snapshot(), c)
	if reason == "" {
		return nil
	}
	return &Violation{ConstraintID: ConstraintClassroomCapacity, Severity: SeverityHard, SubjectID: c.SubjectID, Reason: reason}
}

func (ClassroomCapacity) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	var out []Violation
	for i, a := range tt.Assignments {
		if reason := capacityReason(snap, a); reason != "" {
			out = append(out, Violation{
				ConstraintID: ConstraintClassroomCapacity,
				Severity:     SeverityHard,
				SubjectID:    a.SubjectID,
				Assignments:  []SessionAssignment{a},
				Positions:    []int{i},
				Reason:       reason,
			})
		}
	}
	return out
}

func capacityReason(snap *Snapshot, a SessionAssignment) string {
	subject, ok := snap.SubjectByID(a.SubjectID)
	if !ok {
		return fmt.Sprintf("unknown subject %s", a.SubjectID)
	}
	room, ok := snap.ClassroomByID(a.ClassroomID)
	if !ok {
		return fmt.Sprintf("unknown classroom %s", a.ClassroomID)
	}
	if room.Capacity >= subject.Enrollment {
		return ""
	}
	return fmt.Sprintf("classroom %s seats %d, %s enrolls %d", room.ID, room.Capacity, subject.ID, subject.Enrollment)
}

// SessionCount requires every subject to have exactly its required number of sessions.
type SessionCount struct{}

func (SessionCount) ID() string         { return ConstraintSessionCount }
func (SessionCount) Severity() Severity { return SeverityHard }

func (SessionCount) Check(p *Placement, c SessionAssignment) *Violation {
	owners := p.SubjectSessions(c.SubjectID)
	required := p.Snapshot().RequiredSessions(c.SubjectID)
	if len(owners) < required {
		return nil
	}
	v := hardViolation(ConstraintSessionCount, p, owners,
		fmt.Sprintf("subject %s already has its %d sessions", c.SubjectID, required))
	v.SubjectID = c.SubjectID
	return v
}

func (SessionCount) Evaluate(snap *Snapshot, tt Timetable) []Violation {
	bySubject := make(map[string][]int, len(snap.subjects))
	for i, a := range tt.Assignments {
		bySubject[a.SubjectID] = append(bySubject[a.SubjectID], i)
	}
	var out []Violation
	for i, subject := range snap.subjects {
		positions := bySubject[subject.ID]
		required := snap.required[i]
		if len(positions) == required {
			continue
		}
		out = append(out, Violation{
			ConstraintID: ConstraintSessionCount,
			Severity:     SeverityHard,
			SubjectID:    subject.ID,
			Assignments:  pick(tt, positions),
			Positions:    positions,
			Reason:       fmt.Sprintf("subject %s has %d sessions, requires %d", subject.ID, len(positions), required),
		})
	}
	return out
}

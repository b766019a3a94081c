package scheduler

// Placement tracks dynamic occupancy on top of a Snapshot while assignments are being placed or
// relocated. Every placed assignment has an integer owner chosen by the caller: the solver uses
// variable indexes, the repair engine uses timetable positions. Owner slices returned by the
// lookup methods are shared and must not be modified.
type Placement struct {
	snap  *Snapshot
	slots int
	days  int

	faculty     [][]int
	classroom   [][]int
	subjectSlot [][]int
	subjectAll  [][]int
	facultyDay  []int
	subjectDay  []int
	placed      map[int]placedEntry
}

type placedEntry struct {
	assignment SessionAssignment
	faculty    int
	classroom  int
	subject    int
	slot       int
	day        int
}

// NewPlacement returns an empty placement for the snapshot.
func NewPlacement(snap *Snapshot) *Placement {
	slots := snap.grid.Len()
	days := len(snap.grid.days)
	return &Placement{
		snap:        snap,
		slots:       slots,
		days:        days,
		faculty:     make([][]int, len(snap.faculty)*slots),
		classroom:   make([][]int, len(snap.classrooms)*slots),
		subjectSlot: make([][]int, len(snap.subjects)*slots),
		subjectAll:  make([][]int, len(snap.subjects)),
		facultyDay:  make([]int, len(snap.faculty)*days),
		subjectDay:  make([]int, len(snap.subjects)*days),
		placed:      make(map[int]placedEntry),
	}
}

// Snapshot returns the snapshot the placement is bound to.
func (p *Placement) Snapshot() *Snapshot {
	return p.snap
}

// Len returns the number of placed assignments.
func (p *Placement) Len() int {
	return len(p.placed)
}

func (p *Placement) resolve(a SessionAssignment) (placedEntry, bool) {
	fp, ok := p.snap.facultyPos[a.FacultyID]
	if !ok {
		return placedEntry{}, false
	}
	cp, ok := p.snap.classroomPos[a.ClassroomID]
	if !ok {
		return placedEntry{}, false
	}
	sp, ok := p.snap.subjectPos[a.SubjectID]
	if !ok {
		return placedEntry{}, false
	}
	slot, ok := p.snap.grid.Position(a.SlotID)
	if !ok {
		return placedEntry{}, false
	}
	return placedEntry{
		assignment: a,
		faculty:    fp,
		classroom:  cp,
		subject:    sp,
		slot:       slot,
		day:        p.snap.grid.dayIndex(slot),
	}, true
}

// Place records the assignment under owner, replacing any assignment the owner held. It returns
// false when the assignment references unknown entities or slots.
func (p *Placement) Place(owner int, a SessionAssignment) bool {
	e, ok := p.resolve(a)
	if !ok {
		return false
	}
	p.Remove(owner)
	p.faculty[e.faculty*p.slots+e.slot] = append(p.faculty[e.faculty*p.slots+e.slot], owner)
	p.classroom[e.classroom*p.slots+e.slot] = append(p.classroom[e.classroom*p.slots+e.slot], owner)
	p.subjectSlot[e.subject*p.slots+e.slot] = append(p.subjectSlot[e.subject*p.slots+e.slot], owner)
	p.subjectAll[e.subject] = append(p.subjectAll[e.subject], owner)
	p.facultyDay[e.faculty*p.days+e.day]++
	p.subjectDay[e.subject*p.days+e.day]++
	p.placed[owner] = e
	return true
}

// Remove releases whatever assignment the owner holds.
func (p *Placement) Remove(owner int) bool {
	e, ok := p.placed[owner]
	if !ok {
		return false
	}
	p.faculty[e.faculty*p.slots+e.slot] = without(p.faculty[e.faculty*p.slots+e.slot], owner)
	p.classroom[e.classroom*p.slots+e.slot] = without(p.classroom[e.classroom*p.slots+e.slot], owner)
	p.subjectSlot[e.subject*p.slots+e.slot] = without(p.subjectSlot[e.subject*p.slots+e.slot], owner)
	p.subjectAll[e.subject] = without(p.subjectAll[e.subject], owner)
	p.facultyDay[e.faculty*p.days+e.day]--
	p.subjectDay[e.subject*p.days+e.day]--
	delete(p.placed, owner)
	return true
}

func without(owners []int, owner int) []int {
	for i, o := range owners {
		if o == owner {
			return append(owners[:i], owners[i+1:]...)
		}
	}
	return owners
}

// Assignment returns the assignment held by owner.
func (p *Placement) Assignment(owner int) (SessionAssignment, bool) {
	e, ok := p.placed[owner]
	return e.assignment, ok
}

// FacultyOwners lists the owners booking the faculty member at the slot.
func (p *Placement) FacultyOwners(facultyID, slotID string) []int {
	fp, ok := p.snap.facultyPos[facultyID]
	if !ok {
		return nil
	}
	slot, ok := p.snap.grid.Position(slotID)
	if !ok {
		return nil
	}
	return p.faculty[fp*p.slots+slot]
}

// ClassroomOwners lists the owners booking the classroom at the slot.
func (p *Placement) ClassroomOwners(classroomID, slotID string) []int {
	cp, ok := p.snap.classroomPos[classroomID]
	if !ok {
		return nil
	}
	slot, ok := p.snap.grid.Position(slotID)
	if !ok {
		return nil
	}
	return p.classroom[cp*p.slots+slot]
}

// SubjectOwners lists the owners holding a session of the subject at the slot.
func (p *Placement) SubjectOwners(subjectID, slotID string) []int {
	sp, ok := p.snap.subjectPos[subjectID]
	if !ok {
		return nil
	}
	slot, ok := p.snap.grid.Position(slotID)
	if !ok {
		return nil
	}
	return p.subjectSlot[sp*p.slots+slot]
}

// SubjectSessions lists every owner holding a session of the subject.
func (p *Placement) SubjectSessions(subjectID string) []int {
	sp, ok := p.snap.subjectPos[subjectID]
	if !ok {
		return nil
	}
	return p.subjectAll[sp]
}

// FacultyDayLoad counts the faculty member's sessions on the day of the given slot.
func (p *Placement) FacultyDayLoad(facultyID, slotID string) int {
	fp, ok := p.snap.facultyPos[facultyID]
	if !ok {
		return 0
	}
	slot, ok := p.snap.grid.Position(slotID)
	if !ok {
		return 0
	}
	return p.facultyDay[fp*p.days+p.snap.grid.dayIndex(slot)]
}

// SubjectDayLoad counts the subject's sessions on the day of the given slot.
func (p *Placement) SubjectDayLoad(subjectID, slotID string) int {
	sp, ok := p.snap.subjectPos[subjectID]
	if !ok {
		return 0
	}
	slot, ok := p.snap.grid.Position(slotID)
	if !ok {
		return 0
	}
	return p.subjectDay[sp*p.days+p.snap.grid.dayIndex(slot)]
}

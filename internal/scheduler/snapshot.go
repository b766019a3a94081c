package scheduler

import (
	"sort"

	"github.com/samber/lo"
)

// DefaultSessionMinutes is the session-length unit used when a roster leaves it unset.
const DefaultSessionMinutes = 60

// Snapshot is a validated, indexed and immutable view of a roster. It is safe to share across
// goroutines.
type Snapshot struct {
	grid           Grid
	sessionMinutes int

	faculty    []Faculty
	subjects   []Subject
	classrooms []Classroom

	facultyPos   map[string]int
	subjectPos   map[string]int
	classroomPos map[string]int

	required  []int
	qualified [][]int
	qualSet   []map[int]struct{}

	index *Index
}

// NewSnapshot validates the roster and builds the lookup structures used by the solver and the
// repair engine. Entities are copied and sorted by ID; the caller's slices are never touched.
func NewSnapshot(roster Roster) (*Snapshot, error) {
	problems := &InputError{}

	minutes := roster.SessionMinutes
	if minutes == 0 {
		minutes = DefaultSessionMinutes
	}
	if minutes < 0 {
		problems.add("roster", "", "sessionMinutes", "session length must be positive")
		return nil, problems
	}

	var grid Grid
	if len(roster.Slots) == 0 {
		grid = DefaultGrid()
	} else {
		g, err := NewGrid(roster.Slots)
		if err != nil {
			return nil, err
		}
		grid = g
	}
	for _, slot := range grid.slots {
		if slot.Duration() != minutes {
			problems.add("slot", slot.ID, "end", "slot lasts %d minutes, session length is %d", slot.Duration(), minutes)
		}
	}

	s := &Snapshot{
		grid:           grid,
		sessionMinutes: minutes,
		faculty:        make([]Faculty, 0, len(roster.Faculty)),
		subjects:       make([]Subject, 0, len(roster.Subjects)),
		classrooms:     make([]Classroom, 0, len(roster.Classrooms)),
		facultyPos:     make(map[string]int, len(roster.Faculty)),
		subjectPos:     make(map[string]int, len(roster.Subjects)),
		classroomPos:   make(map[string]int, len(roster.Classrooms)),
	}

	seen := make(map[string]struct{}, len(roster.Faculty))
	for _, f := range roster.Faculty {
		if f.ID == "" {
			problems.add("faculty", "", "id", "faculty id is required")
			continue
		}
		if _, dup := seen[f.ID]; dup {
			problems.add("faculty", f.ID, "id", "duplicate faculty id")
			continue
		}
		seen[f.ID] = struct{}{}
		if f.MaxSessionsPerDay < 0 {
			problems.add("faculty", f.ID, "maxSessionsPerDay", "must not be negative")
		}
		validateAvailability(problems, "faculty", f.ID, f.Availability, grid)
		copied := f
		copied.Expertise = append([]string(nil), f.Expertise...)
		copied.Availability = f.Availability.clone()
		s.faculty = append(s.faculty, copied)
	}

	seen = make(map[string]struct{}, len(roster.Classrooms))
	for _, c := range roster.Classrooms {
		if c.ID == "" {
			problems.add("classroom", "", "id", "classroom id is required")
			continue
		}
		if _, dup := seen[c.ID]; dup {
			problems.add("classroom", c.ID, "id", "duplicate classroom id")
			continue
		}
		seen[c.ID] = struct{}{}
		if c.Capacity <= 0 {
			problems.add("classroom", c.ID, "capacity", "capacity must be positive")
		}
		validateAvailability(problems, "classroom", c.ID, c.Availability, grid)
		copied := c
		copied.Availability = c.Availability.clone()
		s.classrooms = append(s.classrooms, copied)
	}

	sort.Slice(s.faculty, func(i, j int) bool { return s.faculty[i].ID < s.faculty[j].ID })
	sort.Slice(s.classrooms, func(i, j int) bool { return s.classrooms[i].ID < s.classrooms[j].ID })
	for i, f := range s.faculty {
		s.facultyPos[f.ID] = i
	}
	for i, c := range s.classrooms {
		s.classroomPos[c.ID] = i
	}

	seen = make(map[string]struct{}, len(roster.Subjects))
	for _, subj := range roster.Subjects {
		if subj.ID == "" {
			problems.add("subject", "", "id", "subject id is required")
			continue
		}
		if _, dup := seen[subj.ID]; dup {
			problems.add("subject", subj.ID, "id", "duplicate subject id")
			continue
		}
		seen[subj.ID] = struct{}{}
		if subj.HoursPerWeek <= 0 {
			problems.add("subject", subj.ID, "hoursPerWeek", "weekly hours must be positive")
		}
		if subj.Enrollment < 0 {
			problems.add("subject", subj.ID, "enrollment", "enrollment must not be negative")
		}
		for _, fid := range subj.QualifiedFaculty {
			if _, ok := s.facultyPos[fid]; !ok {
				problems.add("subject", subj.ID, "qualifiedFaculty", "unknown faculty %q", fid)
			}
		}
		copied := subj
		copied.QualifiedFaculty = lo.Uniq(subj.QualifiedFaculty)
		// Each session needs its own (faculty, slot) pair.
		pairs := grid.Len() * max(1, s.poolSize(copied))
		if n := subj.RequiredSessions(minutes); n > pairs {
			problems.add("subject", subj.ID, "hoursPerWeek", "needs %d sessions but only %d faculty-slot pairs exist", n, pairs)
		}
		s.subjects = append(s.subjects, copied)
	}

	if err := problems.orNil(); err != nil {
		return nil, err
	}

	sort.Slice(s.subjects, func(i, j int) bool { return s.subjects[i].ID < s.subjects[j].ID })
	s.required = make([]int, len(s.subjects))
	s.qualified = make([][]int, len(s.subjects))
	s.qualSet = make([]map[int]struct{}, len(s.subjects))
	for i, subj := range s.subjects {
		s.subjectPos[subj.ID] = i
		s.required[i] = subj.RequiredSessions(minutes)
		s.qualified[i] = s.resolveQualified(subj)
		s.qualSet[i] = make(map[int]struct{}, len(s.qualified[i]))
		for _, fp := range s.qualified[i] {
			s.qualSet[i][fp] = struct{}{}
		}
	}

	s.index = NewIndex(s.faculty, s.classrooms, grid)
	return s, nil
}

func (s *Snapshot) poolSize(subj Subject) int {
	if len(subj.QualifiedFaculty) > 0 {
		return len(subj.QualifiedFaculty)
	}
	if subj.Expertise == "" {
		return 0
	}
	return lo.CountBy(s.faculty, func(f Faculty) bool { return f.HasExpertise(subj.Expertise) })
}

func (s *Snapshot) resolveQualified(subj Subject) []int {
	var out []int
	if len(subj.QualifiedFaculty) > 0 {
		out = lo.Map(subj.QualifiedFaculty, func(id string, _ int) int { return s.facultyPos[id] })
	} else if subj.Expertise != "" {
		for i, f := range s.faculty {
			if f.HasExpertise(subj.Expertise) {
				out = append(out, i)
			}
		}
	}
	sort.Ints(out)
	return out
}

func validateAvailability(problems *InputError, entity, id string, a Availability, grid Grid) {
	days := lo.Keys(a)
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	for _, day := range days {
		slots := a[day]
		if !day.Valid() {
			problems.add(entity, id, "availability", "invalid weekday %d", int(day))
			continue
		}
		for _, slotID := range slots {
			slot, ok := grid.Lookup(slotID)
			if !ok {
				problems.add(entity, id, "availability", "unknown slot %q", slotID)
				continue
			}
			if slot.Day != day {
				problems.add(entity, id, "availability", "slot %q is not on %s", slotID, day)
			}
		}
	}
}

// Grid returns the weekly grid.
func (s *Snapshot) Grid() Grid { return s.grid }

// Index returns the availability index.
func (s *Snapshot) Index() *Index { return s.index }

// SessionMinutes returns the session-length unit.
func (s *Snapshot) SessionMinutes() int { return s.sessionMinutes }

// Faculty returns every faculty member ordered by ID.
func (s *Snapshot) Faculty() []Faculty {
	return append([]Faculty(nil), s.faculty...)
}

// Subjects returns every subject ordered by ID.
func (s *Snapshot) Subjects() []Subject {
	return append([]Subject(nil), s.subjects...)
}

// Classrooms returns every classroom ordered by ID.
func (s *Snapshot) Classrooms() []Classroom {
	return append([]Classroom(nil), s.classrooms...)
}

// FacultyByID looks up a faculty member.
func (s *Snapshot) FacultyByID(id string) (Faculty, bool) {
	p, ok := s.facultyPos[id]
	if !ok {
		return Faculty{}, false
	}
	return s.faculty[p], true
}

// SubjectByID looks up a subject.
func (s *Snapshot) SubjectByID(id string) (Subject, bool) {
	p, ok := s.subjectPos[id]
	if !ok {
		return Subject{}, false
	}
	return s.subjects[p], true
}

// ClassroomByID looks up a classroom.
func (s *Snapshot) ClassroomByID(id string) (Classroom, bool) {
	p, ok := s.classroomPos[id]
	if !ok {
		return Classroom{}, false
	}
	return s.classrooms[p], true
}

// RequiredSessions returns the weekly session count of a subject, or 0 when unknown.
func (s *Snapshot) RequiredSessions(subjectID string) int {
	p, ok := s.subjectPos[subjectID]
	if !ok {
		return 0
	}
	return s.required[p]
}

// TotalSessions sums the required sessions of every subject.
func (s *Snapshot) TotalSessions() int {
	return lo.Sum(s.required)
}

// Qualified reports whether the faculty member may teach the subject.
func (s *Snapshot) Qualified(subjectID, facultyID string) bool {
	sp, ok := s.subjectPos[subjectID]
	if !ok {
		return false
	}
	fp, ok := s.facultyPos[facultyID]
	if !ok {
		return false
	}
	_, ok = s.qualSet[sp][fp]
	return ok
}

// QualifiedFaculty returns the IDs of faculty qualified for the subject, ordered by ID.
func (s *Snapshot) QualifiedFaculty(subjectID string) []string {
	sp, ok := s.subjectPos[subjectID]
	if !ok {
		return nil
	}
	return lo.Map(s.qualified[sp], func(fp int, _ int) string { return s.faculty[fp].ID })
}

// ValidateTimetable checks that every assignment references known entities and slots.
func (s *Snapshot) ValidateTimetable(tt Timetable) error {
	problems := &InputError{}
	for i, a := range tt.Assignments {
		id := a.String()
		if _, ok := s.subjectPos[a.SubjectID]; !ok {
			problems.add("assignment", id, "subjectId", "position %d references unknown subject %q", i, a.SubjectID)
		}
		if _, ok := s.facultyPos[a.FacultyID]; !ok {
			problems.add("assignment", id, "facultyId", "position %d references unknown faculty %q", i, a.FacultyID)
		}
		if _, ok := s.classroomPos[a.ClassroomID]; !ok {
			problems.add("assignment", id, "classroomId", "position %d references unknown classroom %q", i, a.ClassroomID)
		}
		if _, ok := s.grid.Position(a.SlotID); !ok {
			problems.add("assignment", id, "slotId", "position %d references unknown slot %q", i, a.SlotID)
		}
	}
	return problems.orNil()
}

// CanonicalOrder sorts assignments by slot position, classroom, subject and session.
func (s *Snapshot) CanonicalOrder(tt Timetable) Timetable {
	out := tt.Clone()
	sort.SliceStable(out.Assignments, func(i, j int) bool {
		a, b := out.Assignments[i], out.Assignments[j]
		pa, _ := s.grid.Position(a.SlotID)
		pb, _ := s.grid.Position(b.SlotID)
		if pa != pb {
			return pa < pb
		}
		if a.ClassroomID != b.ClassroomID {
			return a.ClassroomID < b.ClassroomID
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.Session < b.Session
	})
	return out
}

// Package scheduler assigns subject sessions to (faculty, classroom, time slot) triples and
// re-enforces the resulting timetable after manual edits.
//
// The engine is pure: every call receives an immutable Snapshot and returns freshly built
// values. It performs no I/O and keeps no state between calls, so independent requests can
// run on separate goroutines without coordination.
package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Weekday numbers days Monday=1 … Sunday=7.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY", "SUNDAY"}

// Valid reports whether d is within Monday..Sunday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "Weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// Abbrev returns the three-letter form used in slot IDs.
func (d Weekday) Abbrev() string {
	if !d.Valid() {
		return "???"
	}
	return weekdayNames[d][:3]
}

// ParseWeekday accepts full names, three-letter abbreviations (any case) and 1..7.
func ParseWeekday(raw string) (Weekday, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(value); err == nil {
		if d := Weekday(n); d.Valid() {
			return d, nil
		}
		return 0, fmt.Errorf("weekday %q out of range", raw)
	}
	for i := Monday; i <= Sunday; i++ {
		if value == weekdayNames[i] || value == weekdayNames[i][:3] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

// TimeSlot is one cell of the weekly grid. Start and End are minutes from midnight.
type TimeSlot struct {
	ID    string  `json:"id"`
	Day   Weekday `json:"day"`
	Start int     `json:"start"`
	End   int     `json:"end"`
}

// NewTimeSlot builds a slot from "HH:MM" clock strings and derives its canonical ID.
func NewTimeSlot(day Weekday, start, end string) (TimeSlot, error) {
	if !day.Valid() {
		return TimeSlot{}, fmt.Errorf("invalid weekday %d", day)
	}
	from, err := ParseClock(start)
	if err != nil {
		return TimeSlot{}, err
	}
	to, err := ParseClock(end)
	if err != nil {
		return TimeSlot{}, err
	}
	if to <= from {
		return TimeSlot{}, fmt.Errorf("slot end %s must be after start %s", end, start)
	}
	return TimeSlot{ID: SlotID(day, from), Day: day, Start: from, End: to}, nil
}

// SlotID formats the canonical identifier, e.g. MON-0900.
func SlotID(day Weekday, start int) string {
	return fmt.Sprintf("%s-%02d%02d", day.Abbrev(), start/60, start%60)
}

// ParseClock converts "HH:MM" into minutes from midnight.
func ParseClock(raw string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", raw)
	}
	if hours < 0 || hours > 24 || minutes < 0 || minutes > 59 || (hours == 24 && minutes != 0) {
		return 0, fmt.Errorf("clock %q out of range", raw)
	}
	return hours*60 + minutes, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Duration returns the slot length in minutes.
func (s TimeSlot) Duration() int {
	return s.End - s.Start
}

// Label renders the slot for reports, e.g. "MONDAY 09:00-10:00".
func (s TimeSlot) Label() string {
	return fmt.Sprintf("%s %s-%s", s.Day, FormatClock(s.Start), FormatClock(s.End))
}

// Availability maps a day to the slot IDs an entity is free in. A nil Availability means the
// entity is always free; a non-nil one lists every free slot explicitly, so an empty map means
// never free. JSON keeps the two apart: nil encodes as null and empty as {}.
type Availability map[Weekday][]string

func (a Availability) clone() Availability {
	if a == nil {
		return nil
	}
	out := make(Availability, len(a))
	for day, slots := range a {
		copied := make([]string, len(slots))
		copy(copied, slots)
		sort.Strings(copied)
		out[day] = copied
	}
	return out
}

// Faculty is an instructor who can be assigned to sessions.
type Faculty struct {
	ID                string       `json:"id"`
	Name              string       `json:"name,omitempty"`
	Expertise         []string     `json:"expertise,omitempty"`
	Availability      Availability `json:"availability"`
	MaxSessionsPerDay int          `json:"maxSessionsPerDay,omitempty"`
}

// HasExpertise reports whether the faculty carries the given capability tag.
func (f Faculty) HasExpertise(tag string) bool {
	for _, item := range f.Expertise {
		if strings.EqualFold(item, tag) {
			return true
		}
	}
	return false
}

// Subject is a course that needs a number of weekly sessions.
type Subject struct {
	ID               string   `json:"id"`
	Name             string   `json:"name,omitempty"`
	HoursPerWeek     int      `json:"hoursPerWeek"`
	QualifiedFaculty []string `json:"qualifiedFaculty,omitempty"`
	Enrollment       int      `json:"enrollment"`
	// Expertise qualifies every faculty carrying this tag when QualifiedFaculty is empty.
	Expertise string `json:"expertise,omitempty"`
}

// RequiredSessions derives the weekly session count from the session-length unit.
func (s Subject) RequiredSessions(sessionMinutes int) int {
	if sessionMinutes <= 0 || s.HoursPerWeek <= 0 {
		return 0
	}
	total := s.HoursPerWeek * 60
	return (total + sessionMinutes - 1) / sessionMinutes
}

// Classroom is a room with a seat capacity.
type Classroom struct {
	ID           string       `json:"id"`
	Name         string       `json:"name,omitempty"`
	Capacity     int          `json:"capacity"`
	Availability Availability `json:"availability"`
}

// SessionAssignment is the atomic unit the solver produces.
type SessionAssignment struct {
	SubjectID   string `json:"subjectId"`
	Session     int    `json:"session,omitempty"`
	FacultyID   string `json:"facultyId"`
	ClassroomID string `json:"classroomId"`
	SlotID      string `json:"slotId"`
}

func (a SessionAssignment) String() string {
	return fmt.Sprintf("%s#%d(%s,%s,%s)", a.SubjectID, a.Session, a.FacultyID, a.ClassroomID, a.SlotID)
}

// Timetable is a set of session assignments. Order carries no meaning except for positions
// reported by evaluation and repair.
type Timetable struct {
	Assignments []SessionAssignment `json:"assignments"`
}

// Len returns the number of assignments.
func (t Timetable) Len() int {
	return len(t.Assignments)
}

// Clone returns a copy that shares nothing with t.
func (t Timetable) Clone() Timetable {
	out := make([]SessionAssignment, len(t.Assignments))
	copy(out, t.Assignments)
	return Timetable{Assignments: out}
}

// Roster is the input snapshot supplied by the persistence layer.
type Roster struct {
	Faculty        []Faculty   `json:"faculty"`
	Subjects       []Subject   `json:"subjects"`
	Classrooms     []Classroom `json:"classrooms"`
	Slots          []TimeSlot  `json:"slots"`
	SessionMinutes int         `json:"sessionMinutes"`
}

// Severity separates inadmissible violations from advisory penalties.
type Severity string

const (
	SeverityHard Severity = "hard"
	SeveritySoft Severity = "soft"
)

// Violation is the output of constraint evaluation. It is never persisted as domain state.
type Violation struct {
	ConstraintID string              `json:"constraintId"`
	Severity     Severity            `json:"severity"`
	SubjectID    string              `json:"subjectId,omitempty"`
	Assignments  []SessionAssignment `json:"assignments,omitempty"`
	// Positions index the offending assignments within the evaluated timetable, or name the
	// owners of already placed assignments for incremental checks.
	Positions []int   `json:"positions,omitempty"`
	Reason    string  `json:"reason"`
	Penalty   float64 `json:"penalty,omitempty"`
}

package dto

import (
	"time"

	"github.com/noah-isme/timetable-engine/internal/scheduler"
)

// TimeSlotRequest describes one teaching period. Start and End use HH:MM.
type TimeSlotRequest struct {
	Day   string `json:"day" validate:"required"`
	Start string `json:"start" validate:"required,len=5"`
	End   string `json:"end" validate:"required,len=5"`
}

// FacultyRequest describes a faculty member. Availability maps a day name to slot IDs;
// omitting it means always available and an empty object means never available.
type FacultyRequest struct {
	ID                string              `json:"id" validate:"required,max=64"`
	Name              string              `json:"name" validate:"omitempty,max=128"`
	Expertise         []string            `json:"expertise" validate:"omitempty,dive,required"`
	Availability      map[string][]string `json:"availability"`
	MaxSessionsPerDay int                 `json:"maxSessionsPerDay" validate:"min=0"`
}

// SubjectRequest describes a subject and its weekly demand.
type SubjectRequest struct {
	ID               string   `json:"id" validate:"required,max=64"`
	Name             string   `json:"name" validate:"omitempty,max=128"`
	HoursPerWeek     int      `json:"hoursPerWeek" validate:"required,min=1"`
	QualifiedFaculty []string `json:"qualifiedFaculty" validate:"omitempty,dive,required"`
	Enrollment       int      `json:"enrollment" validate:"min=0"`
	Expertise        string   `json:"expertise" validate:"omitempty,max=64"`
}

// ClassroomRequest describes a room.
type ClassroomRequest struct {
	ID           string              `json:"id" validate:"required,max=64"`
	Name         string              `json:"name" validate:"omitempty,max=128"`
	Capacity     int                 `json:"capacity" validate:"required,min=1"`
	Availability map[string][]string `json:"availability"`
}

// RosterRequest is the complete solver input. Slots default to the standard weekly grid.
type RosterRequest struct {
	Faculty        []FacultyRequest   `json:"faculty" validate:"dive"`
	Subjects       []SubjectRequest   `json:"subjects" validate:"dive"`
	Classrooms     []ClassroomRequest `json:"classrooms" validate:"dive"`
	Slots          []TimeSlotRequest  `json:"slots" validate:"omitempty,dive"`
	SessionMinutes int                `json:"sessionMinutes" validate:"min=0"`
}

// SolverOptionsRequest overrides configured solver limits for one request.
type SolverOptionsRequest struct {
	NodeBudget   int `json:"nodeBudget" validate:"min=0"`
	RepairBudget int `json:"repairBudget" validate:"min=0"`
	Workers      int `json:"workers" validate:"min=0,max=16"`
}

// GenerateTimetableRequest asks for a timetable for the roster. Fresh bypasses the result cache.
type GenerateTimetableRequest struct {
	Roster  RosterRequest         `json:"roster"`
	Options *SolverOptionsRequest `json:"options"`
	Fresh   bool                  `json:"fresh"`
}

// GenerateVariantsRequest solves the roster once per node budget and keeps the best result.
type GenerateVariantsRequest struct {
	Roster      RosterRequest `json:"roster"`
	NodeBudgets []int         `json:"nodeBudgets" validate:"required,min=1,max=8,dive,min=1"`
}

// AssignmentRequest is one hand-edited session placement.
type AssignmentRequest struct {
	SubjectID   string `json:"subjectId" validate:"required"`
	Session     int    `json:"session" validate:"min=0"`
	FacultyID   string `json:"facultyId" validate:"required"`
	ClassroomID string `json:"classroomId" validate:"required"`
	SlotID      string `json:"slotId" validate:"required"`
}

// UpdateAssignmentsRequest replaces the assignments of a stored timetable.
type UpdateAssignmentsRequest struct {
	Assignments []AssignmentRequest `json:"assignments" validate:"required,dive"`
}

// EnforceTimetableRequest repairs a stored timetable, or the supplied assignments when present.
type EnforceTimetableRequest struct {
	Assignments  []AssignmentRequest `json:"assignments" validate:"omitempty,dive"`
	RepairBudget int                 `json:"repairBudget" validate:"min=0"`
}

// TimetableResponse is a stored timetable version with its diagnostics.
type TimetableResponse struct {
	ID          string                        `json:"id"`
	Fingerprint string                        `json:"fingerprint"`
	Version     int                           `json:"version"`
	Status      string                        `json:"status"`
	Outcome     string                        `json:"outcome"`
	Penalty     float64                       `json:"penalty"`
	Assignments []scheduler.SessionAssignment `json:"assignments"`
	Violations  []scheduler.Violation         `json:"violations,omitempty"`
	Unplaced    []scheduler.UnplacedSession   `json:"unplaced,omitempty"`
	Stats       *scheduler.Stats              `json:"stats,omitempty"`
	Cached      bool                          `json:"cached"`
	CreatedAt   time.Time                     `json:"createdAt"`
}

// VariantSummary reports one speculative solve.
type VariantSummary struct {
	Index        int     `json:"index"`
	NodeBudget   int     `json:"nodeBudget"`
	Outcome      string  `json:"outcome"`
	Penalty      float64 `json:"penalty"`
	Unplaced     int     `json:"unplaced"`
	NodesVisited int     `json:"nodesVisited"`
}

// GenerateVariantsResponse carries the persisted winner and every variant's summary.
type GenerateVariantsResponse struct {
	Selected TimetableResponse `json:"selected"`
	Variants []VariantSummary  `json:"variants"`
}

// RepairReport summarises an enforcement run.
type RepairReport struct {
	Outcome    string                `json:"outcome"`
	Detected   []scheduler.Violation `json:"detected,omitempty"`
	Changes    []scheduler.Change    `json:"changes,omitempty"`
	Unresolved []scheduler.Violation `json:"unresolved,omitempty"`
	Advisories []scheduler.Violation `json:"advisories,omitempty"`
	Iterations int                   `json:"iterations"`
}

// EnforceTimetableResponse returns the new version and what the repair did.
type EnforceTimetableResponse struct {
	Timetable TimetableResponse `json:"timetable"`
	Repair    RepairReport      `json:"repair"`
}

// JobResponse is the status of an asynchronous generation.
type JobResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Attempt     int       `json:"attempt"`
	TimetableID string    `json:"timetableId,omitempty"`
	Error       string    `json:"error,omitempty"`
	EnqueuedAt  time.Time `json:"enqueuedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

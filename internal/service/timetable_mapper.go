package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// timetableReport is the JSON document stored in the report column.
type timetableReport struct {
	Violations []scheduler.Violation       `json:"violations,omitempty"`
	Unplaced   []scheduler.UnplacedSession `json:"unplaced,omitempty"`
	Stats      *scheduler.Stats            `json:"stats,omitempty"`
	Repair     *dto.RepairReport           `json:"repair,omitempty"`
}

// toRoster converts the request payload into an engine roster. Day names and clock strings
// that cannot be parsed are reported as input problems.
func toRoster(req dto.RosterRequest, sessionMinutes int) (scheduler.Roster, error) {
	problems := &scheduler.InputError{}
	report := func(entity, id, field string, err error) {
		problems.Problems = append(problems.Problems, scheduler.InputProblem{Entity: entity, ID: id, Field: field, Message: err.Error()})
	}

	availability := func(entity, id string, raw map[string][]string) scheduler.Availability {
		if raw == nil {
			return nil
		}
		out := make(scheduler.Availability, len(raw))
		days := lo.Keys(raw)
		sort.Strings(days)
		for _, day := range days {
			d, err := scheduler.ParseWeekday(day)
			if err != nil {
				report(entity, id, "availability", err)
				continue
			}
			out[d] = append(out[d], raw[day]...)
		}
		return out
	}

	roster := scheduler.Roster{
		SessionMinutes: req.SessionMinutes,
		Faculty: lo.Map(req.Faculty, func(f dto.FacultyRequest, _ int) scheduler.Faculty {
			return scheduler.Faculty{
				ID:                f.ID,
				Name:              f.Name,
				Expertise:         f.Expertise,
				Availability:      availability("faculty", f.ID, f.Availability),
				MaxSessionsPerDay: f.MaxSessionsPerDay,
			}
		}),
		Subjects: lo.Map(req.Subjects, func(s dto.SubjectRequest, _ int) scheduler.Subject {
			return scheduler.Subject{
				ID:               s.ID,
				Name:             s.Name,
				HoursPerWeek:     s.HoursPerWeek,
				QualifiedFaculty: s.QualifiedFaculty,
				Enrollment:       s.Enrollment,
				Expertise:        s.Expertise,
			}
		}),
		Classrooms: lo.Map(req.Classrooms, func(c dto.ClassroomRequest, _ int) scheduler.Classroom {
			return scheduler.Classroom{
				ID:           c.ID,
				Name:         c.Name,
				Capacity:     c.Capacity,
				Availability: availability("classroom", c.ID, c.Availability),
			}
		}),
	}
	if roster.SessionMinutes == 0 {
		roster.SessionMinutes = sessionMinutes
	}

	for i, raw := range req.Slots {
		label := fmt.Sprintf("#%d", i)
		day, err := scheduler.ParseWeekday(raw.Day)
		if err != nil {
			report("slot", label, "day", err)
			continue
		}
		slot, err := scheduler.NewTimeSlot(day, raw.Start, raw.End)
		if err != nil {
			report("slot", label, "start", err)
			continue
		}
		roster.Slots = append(roster.Slots, slot)
	}

	if len(problems.Problems) > 0 {
		return scheduler.Roster{}, problems
	}
	return roster, nil
}

func toAssignments(items []dto.AssignmentRequest) scheduler.Timetable {
	return scheduler.Timetable{Assignments: lo.Map(items, func(a dto.AssignmentRequest, _ int) scheduler.SessionAssignment {
		return scheduler.SessionAssignment(a)
	})}
}

// mapEngineError converts scheduler input errors into the 422 API error.
func mapEngineError(err error) error {
	if err == nil {
		return nil
	}
	var inputErr *scheduler.InputError
	if errors.As(err, &inputErr) {
		return appErrors.WithDetails(appErrors.Wrap(err, appErrors.ErrInvalidRoster.Code, appErrors.ErrInvalidRoster.Status, inputErr.Error()), inputErr.Problems)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "timetable engine failure")
}

func encodeJSON(label string, v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode "+label)
	}
	return raw, nil
}

// decodeRecord unpacks the JSON columns of a stored timetable.
func decodeRecord(record *models.Timetable) (scheduler.Roster, scheduler.Timetable, timetableReport, error) {
	var (
		roster scheduler.Roster
		tt     scheduler.Timetable
		report timetableReport
	)
	if err := record.Roster.Unmarshal(&roster); err != nil {
		return roster, tt, report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored roster is corrupt")
	}
	if err := record.Assignments.Unmarshal(&tt.Assignments); err != nil {
		return roster, tt, report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored assignments are corrupt")
	}
	if len(record.Report) > 0 {
		if err := record.Report.Unmarshal(&report); err != nil {
			return roster, tt, report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored report is corrupt")
		}
	}
	if tt.Assignments == nil {
		tt.Assignments = []scheduler.SessionAssignment{}
	}
	return roster, tt, report, nil
}

func toResponse(record *models.Timetable, tt scheduler.Timetable, report timetableReport) *dto.TimetableResponse {
	return &dto.TimetableResponse{
		ID:          record.ID,
		Fingerprint: record.Fingerprint,
		Version:     record.Version,
		Status:      string(record.Status),
		Outcome:     record.Outcome,
		Penalty:     record.Penalty,
		Assignments: tt.Assignments,
		Violations:  report.Violations,
		Unplaced:    report.Unplaced,
		Stats:       report.Stats,
		CreatedAt:   record.CreatedAt,
	}
}

func toRepairReport(res *scheduler.RepairResult) *dto.RepairReport {
	return &dto.RepairReport{
		Outcome:    string(res.Outcome),
		Detected:   res.Detected,
		Changes:    res.Changes,
		Unresolved: res.Unresolved,
		Advisories: res.Advisories,
		Iterations: res.Iterations,
	}
}

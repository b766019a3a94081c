package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableStatus records how a stored timetable version came to be.
type TimetableStatus string

const (
	TimetableStatusGenerated TimetableStatus = "GENERATED"
	TimetableStatusEdited    TimetableStatus = "EDITED"
	TimetableStatusRepaired  TimetableStatus = "REPAIRED"
)

// Timetable is one persisted version of a timetable for a roster fingerprint.
// Roster, Assignments and Report hold JSON documents.
type Timetable struct {
	ID          string          `db:"id" json:"id"`
	Fingerprint string          `db:"fingerprint" json:"fingerprint"`
	Version     int             `db:"version" json:"version"`
	Status      TimetableStatus `db:"status" json:"status"`
	Outcome     string          `db:"outcome" json:"outcome"`
	Penalty     float64         `db:"penalty" json:"penalty"`
	Roster      types.JSONText  `db:"roster" json:"roster"`
	Assignments types.JSONText  `db:"assignments" json:"assignments"`
	Report      types.JSONText  `db:"report" json:"report"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updatedAt"`
}

// TimetableVersion is the list view of a stored version.
type TimetableVersion struct {
	ID        string          `db:"id" json:"id"`
	Version   int             `db:"version" json:"version"`
	Status    TimetableStatus `db:"status" json:"status"`
	Outcome   string          `db:"outcome" json:"outcome"`
	Penalty   float64         `db:"penalty" json:"penalty"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/timetable-engine/internal/models"
)

const timetableColumns = `id, fingerprint, version, status, outcome, penalty, roster, assignments, report, created_at, updated_at`

// TimetableRepository persists versioned timetables keyed by roster fingerprint.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// CreateVersioned inserts a timetable assigning the next version for its fingerprint.
// Version computation and insert share a transaction; the unique (fingerprint, version)
// key rejects a concurrent writer that picked the same version.
func (r *TimetableRepository) CreateVersioned(ctx context.Context, tt *models.Timetable) error {
	if tt == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if tt.Fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	if tt.Status == "" {
		tt.Status = models.TimetableStatusGenerated
	}
	if len(tt.Roster) == 0 {
		tt.Roster = types.JSONText(`{}`)
	}
	if len(tt.Assignments) == 0 {
		tt.Assignments = types.JSONText(`[]`)
	}
	if len(tt.Report) == 0 {
		tt.Report = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin timetable insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM timetables WHERE fingerprint = $1`
	if err := sqlx.GetContext(ctx, tx, &tt.Version, nextVersionQuery, tt.Fingerprint); err != nil {
		return fmt.Errorf("compute next timetable version: %w", err)
	}

	const insertQuery = `
INSERT INTO timetables (id, fingerprint, version, status, outcome, penalty, roster, assignments, report, created_at, updated_at)
VALUES (:id, :fingerprint, :version, :status, :outcome, :penalty, :roster, :assignments, :report, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, tx, insertQuery, tt); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timetable insert: %w", err)
	}
	return nil
}

// FindByID loads a timetable by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE id = $1`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// FindLatestByFingerprint loads the newest version for a fingerprint.
func (r *TimetableRepository) FindLatestByFingerprint(ctx context.Context, fingerprint string) (*models.Timetable, error) {
	query := `SELECT ` + timetableColumns + ` FROM timetables WHERE fingerprint = $1 ORDER BY version DESC LIMIT 1`
	var tt models.Timetable
	if err := r.db.GetContext(ctx, &tt, query, fingerprint); err != nil {
		return nil, err
	}
	return &tt, nil
}

// ListByFingerprint returns every version of a fingerprint, newest first.
func (r *TimetableRepository) ListByFingerprint(ctx context.Context, fingerprint string) ([]models.TimetableVersion, error) {
	const query = `SELECT id, version, status, outcome, penalty, created_at
FROM timetables WHERE fingerprint = $1 ORDER BY version DESC`
	var versions []models.TimetableVersion
	if err := r.db.SelectContext(ctx, &versions, query, fingerprint); err != nil {
		return nil, fmt.Errorf("list timetables: %w", err)
	}
	return versions, nil
}

// Delete removes a stored timetable version.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/timetable-engine/internal/dto"
	"github.com/noah-isme/timetable-engine/internal/models"
	"github.com/noah-isme/timetable-engine/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
	"github.com/noah-isme/timetable-engine/pkg/export"
	"github.com/noah-isme/timetable-engine/pkg/jobs"
	"github.com/noah-isme/timetable-engine/pkg/logger"
)

// JobTypeGenerate tags asynchronous generation jobs.
const JobTypeGenerate = "timetable.generate"

type timetableStore interface {
	CreateVersioned(ctx context.Context, tt *models.Timetable) error
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindLatestByFingerprint(ctx context.Context, fingerprint string) (*models.Timetable, error)
	ListByFingerprint(ctx context.Context, fingerprint string) ([]models.TimetableVersion, error)
	Delete(ctx context.Context, id string) error
}

type jobQueue interface {
	Submit(jobType string, payload interface{}) (string, error)
	State(id string) (jobs.State, bool)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// TimetableServiceConfig carries the solver limits and soft weights applied to every request.
type TimetableServiceConfig struct {
	NodeBudget     int
	RepairBudget   int
	Workers        int
	SessionMinutes int
	Timeout        time.Duration
	Weights        scheduler.SoftWeights
}

// ExportFile is a rendered timetable ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// TimetableService hosts the engine: it turns requests into snapshots, runs the solver and the
// repair engine, and persists every result as a new version.
type TimetableService struct {
	repo      timetableStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
	queue     jobQueue
	renderers map[string]datasetRenderer
	inflight  singleflight.Group
}

// NewTimetableService wires the service dependencies.
func NewTimetableService(
	repo timetableStore,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Weights == (scheduler.SoftWeights{}) {
		cfg.Weights = scheduler.DefaultSoftWeights()
	}
	return &TimetableService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		renderers: map[string]datasetRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
	}
}

// AttachQueue enables asynchronous generation.
func (s *TimetableService) AttachQueue(q jobQueue) {
	s.queue = q
}

func (s *TimetableService) options(override *dto.SolverOptionsRequest) scheduler.Options {
	opts := scheduler.Options{
		NodeBudget:   s.cfg.NodeBudget,
		RepairBudget: s.cfg.RepairBudget,
		Workers:      s.cfg.Workers,
		Constraints:  scheduler.DefaultConstraintSet(s.cfg.Weights),
	}
	if override != nil {
		if override.NodeBudget > 0 {
			opts.NodeBudget = override.NodeBudget
		}
		if override.RepairBudget > 0 {
			opts.RepairBudget = override.RepairBudget
		}
		if override.Workers > 0 {
			opts.Workers = override.Workers
		}
	}
	return opts
}

func (s *TimetableService) snapshot(req dto.RosterRequest) (scheduler.Roster, *scheduler.Snapshot, error) {
	roster, err := toRoster(req, s.cfg.SessionMinutes)
	if err != nil {
		return scheduler.Roster{}, nil, mapEngineError(err)
	}
	snap, err := scheduler.NewSnapshot(roster)
	if err != nil {
		return scheduler.Roster{}, nil, mapEngineError(err)
	}
	return roster, snap, nil
}

func (s *TimetableService) validate(req interface{}, message string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

// Generate solves the roster and stores the result as a new version. Identical rosters with
// identical options share one in-flight solve and, when enabled, the cached result.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.TimetableResponse, error) {
	if err := s.validate(req, "invalid timetable generation payload"); err != nil {
		return nil, err
	}
	roster, snap, err := s.snapshot(req.Roster)
	if err != nil {
		return nil, err
	}
	opts := s.options(req.Options)
	fingerprint := snap.Fingerprint(opts)
	log := logger.WithContext(ctx, s.logger).With(zap.String("fingerprint", fingerprint))

	if !req.Fresh {
		var cached dto.TimetableResponse
		if s.cache.Lookup(ctx, fingerprint, &cached) {
			log.Debug("timetable served from cache", zap.String("timetable_id", cached.ID))
			cached.Cached = true
			return &cached, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, requestAborted(err)
	}

	// The shared solve outlives any single caller and is bounded by cfg.Timeout only.
	led := false
	ch := s.inflight.DoChan(fingerprint, func() (interface{}, error) {
		led = true
		return s.solveAndStore(context.WithoutCancel(ctx), log, roster, snap, opts, fingerprint)
	})
	select {
	case <-ctx.Done():
		log.Info("timetable caller left before the solve finished", zap.Error(ctx.Err()))
		return nil, requestAborted(ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared && !led {
			s.metrics.RecordSharedSolve()
		}
		resp := *r.Val.(*dto.TimetableResponse)
		return &resp, nil
	}
}

func requestAborted(err error) error {
	return appErrors.Wrap(err, appErrors.ErrRequestTimeout.Code, appErrors.ErrRequestTimeout.Status, "timetable generation aborted")
}

func (s *TimetableService) solveAndStore(ctx context.Context, log *zap.Logger, roster scheduler.Roster, snap *scheduler.Snapshot, opts scheduler.Options, fingerprint string) (*dto.TimetableResponse, error) {
	solveCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res, err := scheduler.NewSolver(opts).Solve(solveCtx, snap)
	elapsed := time.Since(start)
	if err != nil {
		return nil, mapEngineError(err)
	}
	s.metrics.ObserveSolve(res, elapsed)

	log.Info("timetable solved",
		zap.String("outcome", string(res.Outcome)),
		zap.Int("assignments", res.Timetable.Len()),
		zap.Int("unplaced", len(res.Unplaced)),
		zap.Float64("penalty", res.Penalty),
		zap.Int("nodes", res.Stats.NodesVisited),
		zap.Int("backjumps", res.Stats.Backjumps),
		zap.Duration("elapsed", elapsed),
	)

	stats := res.Stats
	record, err := s.store(ctx, models.TimetableStatusGenerated, fingerprint, string(res.Outcome), res.Penalty, roster, res.Timetable, timetableReport{
		Violations: res.Violations,
		Unplaced:   res.Unplaced,
		Stats:      &stats,
	})
	if err != nil {
		return nil, err
	}

	resp := toResponse(record, res.Timetable, timetableReport{Violations: res.Violations, Unplaced: res.Unplaced, Stats: &stats})
	if res.Outcome != scheduler.OutcomeCancelled {
		s.cache.Store(ctx, fingerprint, resp)
	}
	return resp, nil
}

func (s *TimetableService) store(ctx context.Context, status models.TimetableStatus, fingerprint, outcome string, penalty float64, roster scheduler.Roster, tt scheduler.Timetable, report timetableReport) (*models.Timetable, error) {
	rosterJSON, err := encodeJSON("roster", roster)
	if err != nil {
		return nil, err
	}
	if tt.Assignments == nil {
		tt.Assignments = []scheduler.SessionAssignment{}
	}
	assignmentsJSON, err := encodeJSON("assignments", tt.Assignments)
	if err != nil {
		return nil, err
	}
	reportJSON, err := encodeJSON("report", report)
	if err != nil {
		return nil, err
	}

	record := &models.Timetable{
		Fingerprint: fingerprint,
		Status:      status,
		Outcome:     outcome,
		Penalty:     penalty,
		Roster:      types.JSONText(rosterJSON),
		Assignments: types.JSONText(assignmentsJSON),
		Report:      types.JSONText(reportJSON),
	}
	start := time.Now()
	err = s.repo.CreateVersioned(ctx, record)
	s.metrics.ObserveDBQuery("timetable_create", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}
	return record, nil
}

type variantRun struct {
	budget int
	result *scheduler.Result
}

// GenerateVariants solves the same roster under several node budgets in parallel and persists
// the best variant: feasible first, then fewest unplaced sessions, lowest penalty, lowest index.
func (s *TimetableService) GenerateVariants(ctx context.Context, req dto.GenerateVariantsRequest) (*dto.GenerateVariantsResponse, error) {
	if err := s.validate(req, "invalid timetable variants payload"); err != nil {
		return nil, err
	}
	roster, snap, err := s.snapshot(req.Roster)
	if err != nil {
		return nil, err
	}

	solveCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	runs := make([]variantRun, len(req.NodeBudgets))
	g, gctx := errgroup.WithContext(solveCtx)
	g.SetLimit(max(1, s.cfg.Workers))
	for i, budget := range req.NodeBudgets {
		i, budget := i, budget
		g.Go(func() error {
			opts := s.options(&dto.SolverOptionsRequest{NodeBudget: budget, Workers: 1})
			res, err := scheduler.NewSolver(opts).Solve(gctx, snap)
			if err != nil {
				return err
			}
			runs[i] = variantRun{budget: budget, result: res}
			return nil
		})
	}
	start := time.Now()
	if err := g.Wait(); err != nil {
		return nil, mapEngineError(err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, requestAborted(ctxErr)
	}

	best := 0
	summaries := make([]dto.VariantSummary, len(runs))
	for i, run := range runs {
		s.metrics.ObserveSolve(run.result, time.Since(start))
		summaries[i] = dto.VariantSummary{
			Index:        i,
			NodeBudget:   run.budget,
			Outcome:      string(run.result.Outcome),
			Penalty:      run.result.Penalty,
			Unplaced:     len(run.result.Unplaced),
			NodesVisited: run.result.Stats.NodesVisited,
		}
		if betterVariant(run.result, runs[best].result) {
			best = i
		}
	}

	winner := runs[best]
	opts := s.options(&dto.SolverOptionsRequest{NodeBudget: winner.budget, Workers: 1})
	fingerprint := snap.Fingerprint(opts)
	stats := winner.result.Stats
	report := timetableReport{Violations: winner.result.Violations, Unplaced: winner.result.Unplaced, Stats: &stats}
	record, err := s.store(ctx, models.TimetableStatusGenerated, fingerprint, string(winner.result.Outcome), winner.result.Penalty, roster, winner.result.Timetable, report)
	if err != nil {
		return nil, err
	}
	resp := toResponse(record, winner.result.Timetable, report)
	if winner.result.Outcome != scheduler.OutcomeCancelled {
		s.cache.Store(ctx, fingerprint, resp)
	}

	logger.WithContext(ctx, s.logger).Info("timetable variants solved",
		zap.String("fingerprint", fingerprint),
		zap.Int("variants", len(runs)),
		zap.Int("selected", best),
		zap.String("outcome", string(winner.result.Outcome)),
	)
	return &dto.GenerateVariantsResponse{Selected: *resp, Variants: summaries}, nil
}

// betterVariant reports whether a strictly beats b. Ties keep the earlier variant.
func betterVariant(a, b *scheduler.Result) bool {
	if a.Feasible() != b.Feasible() {
		return a.Feasible()
	}
	if len(a.Unplaced) != len(b.Unplaced) {
		return len(a.Unplaced) < len(b.Unplaced)
	}
	return a.Penalty < b.Penalty
}

// SubmitGenerate validates the roster up front and queues the solve.
func (s *TimetableService) SubmitGenerate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.JobResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "asynchronous generation is disabled")
	}
	if err := s.validate(req, "invalid timetable generation payload"); err != nil {
		return nil, err
	}
	if _, _, err := s.snapshot(req.Roster); err != nil {
		return nil, err
	}
	id, err := s.queue.Submit(JobTypeGenerate, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "generation queue unavailable")
	}
	logger.WithContext(ctx, s.logger).Info("timetable generation queued", zap.String("job_id", id))
	return s.JobStatus(ctx, id)
}

// HandleJob is the queue handler for generation jobs. It returns the stored timetable ID.
func (s *TimetableService) HandleJob(ctx context.Context, job jobs.Job) (string, error) {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		return "", fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	resp, err := s.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// JobStatus reports the progress of an asynchronous generation.
func (s *TimetableService) JobStatus(_ context.Context, id string) (*dto.JobResponse, error) {
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "asynchronous generation is disabled")
	}
	st, ok := s.queue.State(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "job not found")
	}
	return &dto.JobResponse{
		ID:          st.ID,
		Status:      string(st.Status),
		Attempt:     st.Attempt,
		TimetableID: st.ResultRef,
		Error:       st.Error,
		EnqueuedAt:  st.Enqueued,
		UpdatedAt:   st.Updated,
	}, nil
}

func (s *TimetableService) load(ctx context.Context, id string) (*models.Timetable, error) {
	start := time.Now()
	record, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("timetable_find", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return record, nil
}

// Get returns a stored timetable version.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	_, tt, report, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	return toResponse(record, tt, report), nil
}

// Latest returns the newest stored version for a roster fingerprint.
func (s *TimetableService) Latest(ctx context.Context, fingerprint string) (*dto.TimetableResponse, error) {
	if raw, err := hex.DecodeString(fingerprint); err != nil || len(raw) != sha256.Size {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fingerprint must be 64 hex characters")
	}
	start := time.Now()
	record, err := s.repo.FindLatestByFingerprint(ctx, fingerprint)
	s.metrics.ObserveDBQuery("timetable_latest", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no timetable for fingerprint")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	_, tt, report, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	return toResponse(record, tt, report), nil
}

// Versions lists every stored version sharing the timetable's fingerprint.
func (s *TimetableService) Versions(ctx context.Context, id string) ([]models.TimetableVersion, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	versions, err := s.repo.ListByFingerprint(ctx, record.Fingerprint)
	s.metrics.ObserveDBQuery("timetable_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable versions")
	}
	return versions, nil
}

// UpdateAssignments stores hand-edited assignments as a new EDITED version. The edit is
// evaluated but not repaired; violations are reported on the new version.
func (s *TimetableService) UpdateAssignments(ctx context.Context, id string, req dto.UpdateAssignmentsRequest) (*dto.TimetableResponse, error) {
	if err := s.validate(req, "invalid assignments payload"); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, _, _, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	snap, err := scheduler.NewSnapshot(roster)
	if err != nil {
		return nil, mapEngineError(err)
	}

	edited := toAssignments(req.Assignments)
	if err := snap.ValidateTimetable(edited); err != nil {
		return nil, mapEngineError(err)
	}
	edited = snap.CanonicalOrder(edited)

	violations := scheduler.DefaultConstraintSet(s.cfg.Weights).EvaluateAll(snap, edited)
	hard, _, penalty := scheduler.SplitViolations(violations)
	outcome := scheduler.OutcomeFeasible
	if len(hard) > 0 {
		outcome = scheduler.OutcomeInfeasible
	}

	report := timetableReport{Violations: violations}
	updated, err := s.store(ctx, models.TimetableStatusEdited, record.Fingerprint, string(outcome), penalty, roster, edited, report)
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx, s.logger).Info("timetable edited",
		zap.String("timetable_id", updated.ID),
		zap.Int("version", updated.Version),
		zap.Int("hard_violations", len(hard)),
	)
	return toResponse(updated, edited, report), nil
}

// Enforce repairs the stored timetable, or the supplied assignments, and stores the repaired
// timetable as a new REPAIRED version. A valid timetable is returned unchanged without a new
// version.
func (s *TimetableService) Enforce(ctx context.Context, id string, req dto.EnforceTimetableRequest) (*dto.EnforceTimetableResponse, error) {
	if err := s.validate(req, "invalid enforce payload"); err != nil {
		return nil, err
	}
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, tt, report, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	snap, err := scheduler.NewSnapshot(roster)
	if err != nil {
		return nil, mapEngineError(err)
	}
	supplied := len(req.Assignments) > 0
	if supplied {
		tt = toAssignments(req.Assignments)
	}

	opts := s.options(&dto.SolverOptionsRequest{RepairBudget: req.RepairBudget})
	repairCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	res, err := scheduler.NewRepairer(opts).Enforce(repairCtx, snap, tt)
	if err != nil {
		return nil, mapEngineError(err)
	}
	s.metrics.ObserveRepair(res)
	repair := toRepairReport(res)

	log := logger.WithContext(ctx, s.logger).With(zap.String("timetable_id", record.ID))
	if res.Outcome == scheduler.RepairValid && !supplied {
		log.Debug("timetable already valid")
		return &dto.EnforceTimetableResponse{Timetable: *toResponse(record, tt, report), Repair: *repair}, nil
	}

	outcome := scheduler.OutcomeFeasible
	if len(res.Unresolved) > 0 {
		outcome = scheduler.OutcomeInfeasible
	}
	repaired := snap.CanonicalOrder(res.Timetable)
	newReport := timetableReport{
		Violations: append(append([]scheduler.Violation{}, res.Unresolved...), res.Advisories...),
		Repair:     repair,
	}
	updated, err := s.store(ctx, models.TimetableStatusRepaired, record.Fingerprint, string(outcome), res.Penalty, roster, repaired, newReport)
	if err != nil {
		return nil, err
	}
	log.Info("timetable enforced",
		zap.String("repair_outcome", string(res.Outcome)),
		zap.Int("changes", len(res.Changes)),
		zap.Int("unresolved", len(res.Unresolved)),
		zap.Int("version", updated.Version),
	)
	return &dto.EnforceTimetableResponse{Timetable: *toResponse(updated, repaired, newReport), Repair: *repair}, nil
}

// Export renders a stored timetable as csv or pdf.
func (s *TimetableService) Export(ctx context.Context, id, format string) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	roster, tt, report, err := decodeRecord(record)
	if err != nil {
		return nil, err
	}
	snap, err := scheduler.NewSnapshot(roster)
	if err != nil {
		return nil, mapEngineError(err)
	}

	payload, err := renderer.Render(timetableDataset(record, snap.Grid(), tt, report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("timetable-%s-v%d.%s", record.ID, record.Version, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func timetableDataset(record *models.Timetable, grid scheduler.Grid, tt scheduler.Timetable, report timetableReport) export.Dataset {
	headers := []string{"Day", "Time", "Subject", "Session", "Faculty", "Classroom"}
	assignments := append([]scheduler.SessionAssignment(nil), tt.Assignments...)
	sort.SliceStable(assignments, func(i, j int) bool {
		pi, _ := grid.Position(assignments[i].SlotID)
		pj, _ := grid.Position(assignments[j].SlotID)
		return pi < pj
	})

	rows := make([]map[string]string, 0, len(assignments))
	for _, a := range assignments {
		day, clock := a.SlotID, ""
		if slot, ok := grid.Lookup(a.SlotID); ok {
			day = slot.Day.String()
			clock = scheduler.FormatClock(slot.Start) + "-" + scheduler.FormatClock(slot.End)
		}
		rows = append(rows, map[string]string{
			"Day":       day,
			"Time":      clock,
			"Subject":   a.SubjectID,
			"Session":   strconv.Itoa(a.Session),
			"Faculty":   a.FacultyID,
			"Classroom": a.ClassroomID,
		})
	}

	var notes []string
	for _, u := range report.Unplaced {
		notes = append(notes, fmt.Sprintf("UNPLACED %s#%d [%s]: %s", u.SubjectID, u.Session, u.Code, u.Reason))
	}
	for _, v := range report.Violations {
		notes = append(notes, fmt.Sprintf("%s %s: %s", v.Severity, v.ConstraintID, v.Reason))
	}

	return export.Dataset{
		Title:   fmt.Sprintf("Timetable %s v%d (%s, %s)", record.ID, record.Version, record.Status, record.Outcome),
		Headers: headers,
		Rows:    rows,
		Notes:   notes,
	}
}

// Delete removes a stored version and drops the cached result for its fingerprint.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	record, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.cache.Invalidate(ctx, record.Fingerprint)
	return nil
}

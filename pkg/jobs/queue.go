package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the lifecycle phase of a job.
type Status string

const (
	StatusQueued  Status = "QUEUED"
	StatusRunning Status = "RUNNING"
	StatusDone    Status = "DONE"
	StatusFailed  Status = "FAILED"
)

// Job represents a queued background task.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// State is the externally visible progress of a job.
type State struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    Status    `json:"status"`
	Attempt   int       `json:"attempt"`
	ResultRef string    `json:"resultRef,omitempty"`
	Error     string    `json:"error,omitempty"`
	Enqueued  time.Time `json:"enqueuedAt"`
	Updated   time.Time `json:"updatedAt"`
}

// Finished reports whether the job reached a terminal status.
func (s State) Finished() bool {
	return s.Status == StatusDone || s.Status == StatusFailed
}

// Handler processes a job and returns a reference to what it produced.
type Handler func(context.Context, Job) (string, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// StateTTL is how long finished job states remain queryable.
	StateTTL time.Duration
	Logger   *zap.Logger
}

// Queue is a lightweight in-memory job dispatcher backed by goroutines.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	stateTTL   time.Duration
	logger     *zap.Logger

	jobs    chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	states  map[string]*State
	now     func() time.Time
}

// NewQueue builds a new queue with the provided handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		stateTTL:   cfg.StateTTL,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
		states:     make(map[string]*State),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Submit enqueues a new job under a generated ID and returns that ID.
func (q *Queue) Submit(jobType string, payload interface{}) (string, error) {
	job := Job{ID: uuid.NewString(), Type: jobType, Payload: payload}
	if err := q.Enqueue(job); err != nil {
		return "", err
	}
	return job.ID, nil
}

// Enqueue pushes a job onto the queue.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = q.now()
	}
	q.track(job, StatusQueued, "", "")

	select {
	case <-ctx.Done():
		q.track(job, StatusFailed, "", ctx.Err().Error())
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return nil
	default:
		q.forget(job.ID)
		return fmt.Errorf("queue %s is full", q.name)
	}
}

// State returns the last known state of a job.
func (q *Queue) State(id string) (State, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

func (q *Queue) track(job Job, status Status, resultRef, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	st, ok := q.states[job.ID]
	if !ok {
		q.prune(now)
		st = &State{ID: job.ID, Type: job.Type, Enqueued: job.Enqueued}
		q.states[job.ID] = st
	}
	st.Status = status
	st.Attempt = job.Attempt
	st.ResultRef = resultRef
	st.Error = errMsg
	st.Updated = now
}

func (q *Queue) forget(id string) {
	q.mu.Lock()
	delete(q.states, id)
	q.mu.Unlock()
}

// prune drops finished states past their TTL. Callers hold q.mu.
func (q *Queue) prune(now time.Time) {
	for id, st := range q.states {
		if st.Finished() && now.Sub(st.Updated) > q.stateTTL {
			delete(q.states, id)
		}
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.track(job, StatusRunning, "", "")
			ref, err := q.handler(q.ctx, job)
			if err != nil {
				q.handleFailure(job, err)
				continue
			}
			q.track(job, StatusDone, ref, "")
			q.logger.Sugar().Debugw("job done", "queue", q.name, "worker", workerID, "job_id", job.ID, "type", job.Type)
		}
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.track(job, StatusFailed, "", err.Error())
		q.logger.Sugar().Errorw("job exceeded retries", "queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		return
	}
	q.track(job, StatusQueued, "", err.Error())
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.track(j, StatusFailed, "", err.Error())
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}

package audit

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raysh454/acesso/internal/interfaces"
	"github.com/raysh454/acesso/internal/model"
)

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	Processed int `json:"processed,omitempty"`
	Total     int `json:"total,omitempty"`

	AuditID string `json:"audit_id,omitempty"`
}

type Job struct {
	ID        string        `json:"id"`
	Site      string        `json:"site"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	AuditID   string        `json:"audit_id,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at,omitempty"`
	Events    chan JobEvent `json:"-"`
}

// RunnerFactory builds a fresh Runner (with its own browser session) for one
// job. The returned cleanup runs when the job ends, whatever its outcome.
type RunnerFactory func(ctx context.Context, req model.AuditRequest) (*Runner, func(), error)

// Orchestrator owns audit jobs: starting, tracking, canceling and streaming
// their events. One browser session exists per job, never shared.
type Orchestrator struct {
	logger    interfaces.Logger
	newRunner RunnerFactory

	jobsMu     sync.Mutex
	jobs       map[string]*Job
	jobCancels map[string]context.CancelFunc
}

func NewOrchestrator(newRunner RunnerFactory, logger interfaces.Logger) *Orchestrator {
	return &Orchestrator{
		logger:     logger,
		newRunner:  newRunner,
		jobs:       make(map[string]*Job),
		jobCancels: make(map[string]context.CancelFunc),
	}
}

func (o *Orchestrator) emit(jobID string, ev JobEvent) {
	o.jobsMu.Lock()
	job, ok := o.jobs[jobID]
	o.jobsMu.Unlock()
	if !ok || job.Events == nil {
		return
	}
	// Non-blocking send; drop if nobody is draining the buffer.
	select {
	case job.Events <- ev:
	default:
	}
}

// StartAudit registers a job and runs the audit in the background.
func (o *Orchestrator) StartAudit(ctx context.Context, req model.AuditRequest) (*Job, error) {
	if req.Site == "" {
		return nil, errors.New("audit request needs a site")
	}

	job := &Job{
		ID:        uuid.New().String(),
		Site:      req.Site,
		Status:    JobPending,
		StartedAt: time.Now().UTC(),
		Events:    make(chan JobEvent, 16),
	}

	// The job outlives the request that started it; keep the caller's values
	// but not its cancellation.
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	o.jobsMu.Lock()
	o.jobs[job.ID] = job
	o.jobCancels[job.ID] = cancel
	o.jobsMu.Unlock()

	o.emit(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})

	go o.runJob(jobCtx, job.ID, req)
	return job, nil
}

func (o *Orchestrator) runJob(ctx context.Context, jobID string, req model.AuditRequest) {
	defer func() {
		o.jobsMu.Lock()
		job := o.jobs[jobID]
		if job != nil {
			job.EndedAt = time.Now().UTC()
		}
		delete(o.jobCancels, jobID)
		o.jobsMu.Unlock()
		if job != nil && job.Events != nil {
			close(job.Events)
		}
	}()

	o.setStatus(jobID, JobRunning, "")
	o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobRunning})

	runner, cleanup, err := o.newRunner(ctx, req)
	if err != nil {
		o.finish(ctx, jobID, "", err)
		return
	}
	defer cleanup()

	runner.Progress = func(processed, total int) {
		o.emit(jobID, JobEvent{
			JobID:     jobID,
			Type:      JobEventProgress,
			Processed: processed,
			Total:     total,
		})
	}

	audit, _, err := runner.Run(ctx, req)
	auditID := ""
	if audit != nil {
		auditID = audit.ID
	}
	o.finish(ctx, jobID, auditID, err)
}

// finish records the terminal state, distinguishing cancellation from
// failure the way the job's context reports it.
func (o *Orchestrator) finish(ctx context.Context, jobID, auditID string, err error) {
	switch {
	case ctx.Err() != nil:
		o.setStatus(jobID, JobCanceled, ctx.Err().Error())
		o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobCanceled, Error: ctx.Err().Error()})
	case err != nil:
		o.setStatus(jobID, JobFailed, err.Error())
		o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventStatus, Status: JobFailed, Error: err.Error()})
	default:
		o.jobsMu.Lock()
		if job := o.jobs[jobID]; job != nil {
			job.Status = JobDone
			job.AuditID = auditID
		}
		o.jobsMu.Unlock()
		o.emit(jobID, JobEvent{JobID: jobID, Type: JobEventResult, Status: JobDone, AuditID: auditID})
	}
}

func (o *Orchestrator) setStatus(jobID string, status JobStatus, errMsg string) {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	if job := o.jobs[jobID]; job != nil {
		job.Status = status
		job.Error = errMsg
	}
}

func (o *Orchestrator) GetJob(jobID string) *Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	return o.jobs[jobID]
}

// ListJobs returns all known jobs, newest first.
func (o *Orchestrator) ListJobs() []*Job {
	o.jobsMu.Lock()
	defer o.jobsMu.Unlock()
	out := make([]*Job, 0, len(o.jobs))
	for _, j := range o.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartedAt.After(out[k].StartedAt) })
	return out
}

func (o *Orchestrator) CancelJob(jobID string) bool {
	o.jobsMu.Lock()
	cancel, ok := o.jobCancels[jobID]
	o.jobsMu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

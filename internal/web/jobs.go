package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sustainix/sustainix/internal/convert"
)

// JobStatus is the lifecycle state of a conversion job.
type JobStatus string

const (
	StatusPending JobStatus = "pending"
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Job is one uploaded workbook moving through conversion. Result, HTML and
// Err are set only once Status is done or failed.
type Job struct {
	ID         uuid.UUID
	FileName   string
	Status     JobStatus
	CreatedAt  time.Time
	FinishedAt time.Time

	Result *convert.Result
	HTML   []byte
	Err    string
}

// jobView is the poll response shape.
type jobView struct {
	ID        uuid.UUID `json:"id"`
	FileName  string    `json:"fileName"`
	Status    JobStatus `json:"status"`
	FactCount int       `json:"factCount,omitempty"`
	Errors    int       `json:"errors,omitempty"`
	Warnings  int       `json:"warnings,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func (j *Job) view() jobView {
	v := jobView{ID: j.ID, FileName: j.FileName, Status: j.Status, Error: j.Err}
	if j.Result != nil {
		v.FactCount = j.Result.Facts.Len()
		for _, m := range j.Result.Messages {
			switch m.Severity {
			case convert.SeverityError:
				v.Errors++
			case convert.SeverityWarning:
				v.Warnings++
			}
		}
	}
	return v
}

// JobManager tracks in-flight and recently finished conversions in memory.
// Conversions run asynchronously, bounded by a concurrency limit; finished
// jobs are pruned after the retention window.
type JobManager struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]*Job
	sem    chan struct{}
	retain time.Duration
}

func NewJobManager(maxConcurrent int, retain time.Duration) *JobManager {
	return &JobManager{
		jobs:   make(map[uuid.UUID]*Job),
		sem:    make(chan struct{}, maxConcurrent),
		retain: retain,
	}
}

// Start registers a job and runs work on its own goroutine once a
// conversion slot frees up. work is handed the job to fill in.
func (m *JobManager) Start(ctx context.Context, fileName string, work func(*Job)) *Job {
	job := &Job{
		ID:        uuid.New(),
		FileName:  fileName,
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go func() {
		select {
		case m.sem <- struct{}{}:
		case <-ctx.Done():
			m.finish(job, StatusFailed, ctx.Err().Error())
			return
		}
		defer func() { <-m.sem }()

		m.setStatus(job, StatusRunning)
		work(job)
		if job.Status == StatusRunning {
			m.finish(job, StatusDone, "")
		}
	}()
	return job
}

// Get returns a snapshot of a job by id. The copy is safe to read while
// the conversion goroutine is still mutating the live job.
func (m *JobManager) Get(id uuid.UUID) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

// SetResult attaches the conversion result to a job.
func (m *JobManager) SetResult(job *Job, result *convert.Result) {
	m.mu.Lock()
	job.Result = result
	m.mu.Unlock()
}

// SetHTML attaches the rendered report to a job.
func (m *JobManager) SetHTML(job *Job, html []byte) {
	m.mu.Lock()
	job.HTML = html
	m.mu.Unlock()
}

// Delete removes a job.
func (m *JobManager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return false
	}
	delete(m.jobs, id)
	return true
}

// Fail marks a job failed with a message.
func (m *JobManager) Fail(job *Job, msg string) {
	m.finish(job, StatusFailed, msg)
}

func (m *JobManager) setStatus(job *Job, status JobStatus) {
	m.mu.Lock()
	job.Status = status
	m.mu.Unlock()
}

func (m *JobManager) finish(job *Job, status JobStatus, errMsg string) {
	m.mu.Lock()
	job.Status = status
	job.Err = errMsg
	job.FinishedAt = time.Now()
	m.mu.Unlock()
}

// Prune drops finished jobs older than the retention window. Returns the
// number removed.
func (m *JobManager) Prune() int {
	cutoff := time.Now().Add(-m.retain)
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, job := range m.jobs {
		done := job.Status == StatusDone || job.Status == StatusFailed
		if done && job.FinishedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// PruneLoop runs Prune periodically until the context is canceled.
func (m *JobManager) PruneLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Prune()
		}
	}
}

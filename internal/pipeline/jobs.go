package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/epiclist/internal/awesome"
)

// JobStatus represents the state of a batch extraction job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusPartial   JobStatus = "partial"
)

// Document is one markdown input of a batch.
type Document struct {
	Name     string `json:"name"`
	Markdown string `json:"markdown"`
}

// DocumentResult is the outcome of extracting one document.
type DocumentResult struct {
	Name        string                `json:"name"`
	ContentHash string                `json:"content_hash"`
	LineCount   int                   `json:"line_count"`
	Entries     []awesome.AwesomeLink `json:"entries"`
	Error       string                `json:"error,omitempty"`
}

// Job tracks the state of a single batch.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	docs    []Document
	results []DocumentResult
	errors  []string
}

// Progress tracks processing progress.
type Progress struct {
	TotalDocuments     int      `json:"total_documents"`
	DocumentsProcessed int      `json:"documents_processed"`
	EntriesExtracted   int      `json:"entries_extracted"`
	Errors             []string `json:"errors"`
}

// NewJob creates a queued job for docs.
func NewJob(docs []Document) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Progress:  Progress{TotalDocuments: len(docs)},
		CreatedAt: now,
		UpdatedAt: now,
		docs:      docs,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetResult stores the result for document i and advances progress.
func (j *Job) SetResult(i int, r DocumentResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.results == nil {
		j.results = make([]DocumentResult, len(j.docs))
	}
	j.results[i] = r
	j.Progress.DocumentsProcessed++
	j.Progress.EntriesExtracted += len(r.Entries)
	j.UpdatedAt = time.Now()
}

// Documents returns the batch inputs.
func (j *Job) Documents() []Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.docs
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string           `json:"job_id"`
	Status    JobStatus        `json:"status"`
	Phase     string           `json:"phase"`
	Progress  Progress         `json:"progress"`
	Results   []DocumentResult `json:"results,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state. Results are included
// once the job has finished.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := JobSnapshot{
		ID:     j.ID,
		Status: j.Status,
		Phase:  j.Phase,
		Progress: Progress{
			TotalDocuments:     j.Progress.TotalDocuments,
			DocumentsProcessed: j.Progress.DocumentsProcessed,
			EntriesExtracted:   j.Progress.EntriesExtracted,
			Errors:             append([]string{}, j.Progress.Errors...),
		},
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if j.Status.Done() {
		snap.Results = append([]DocumentResult(nil), j.results...)
	}
	return snap
}

// Done reports whether status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

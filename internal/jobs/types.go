package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeScanReceipt extracts a transaction from an uploaded receipt image.
	JobTypeScanReceipt JobType = "scan_receipt"
	// JobTypeFlagAnomalies writes is_anomaly flags computed by an insights report.
	JobTypeFlagAnomalies JobType = "flag_anomalies"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is being retried.
	JobStatusRetrying JobStatus = "retrying"
)

// ErrJobNotFound is returned by a JobStore for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// Job is a unit of background work owned by a user.
type Job struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	Type   JobType `json:"type"`
	UserID string  `json:"user_id"`

	// Payload is the type-specific input, decoded with DecodePayload.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Result is the type-specific output of a completed job.
	Result json.RawMessage `json:"result,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// NewJob creates a pending job with payload encoded as JSON.
func NewJob(jobType JobType, userID string, payload interface{}) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("NewJob: marshal %s payload: %w", jobType, err)
	}
	return &Job{Type: jobType, UserID: userID, Payload: raw}, nil
}

// DecodePayload unmarshals the job payload into v.
func (j *Job) DecodePayload(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("DecodePayload: %s job %s: %w", j.Type, j.JobID, err)
	}
	return nil
}

// SetResult stores v as the job result.
func (j *Job) SetResult(v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("SetResult: %w", err)
	}
	j.Result = raw
	return nil
}

// ScanReceiptPayload points at a receipt image uploaded to storage.
type ScanReceiptPayload struct {
	ObjectName  string `json:"object_name"`
	ContentType string `json:"content_type"`
	AccountID   string `json:"account_id,omitempty"`
}

// FlagAnomaliesPayload carries the is_anomaly value per transaction id.
type FlagAnomaliesPayload struct {
	Flags map[string]bool `json:"flags"`
}

// Publisher defines the interface for publishing jobs to a queue.
// This abstraction allows for different queue implementations (in-memory, Cloud Tasks, Pub/Sub).
type Publisher interface {
	// Publish enqueues a job, assigning its id, status and timestamps.
	Publish(ctx context.Context, job *Job) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job *Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *Job) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*Job, error)

	// ListJobs retrieves jobs with optional filtering, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*Job, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	UserID string
	Type   JobType
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

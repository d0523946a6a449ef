package models

import "time"

// JobType distinguishes the two kinds of work the queue carries.
type JobType string

const (
	JobTypeMeeting JobType = "meeting"
	JobTypeMatter  JobType = "matter"
)

// JobStatus is the lifecycle state of a queue row.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusDeadLetter JobStatus = "dead_letter"
)

// JobPayload is the typed body of a queue job. Only one job type is active
// per row; the processor switches on Job.JobType to know which branch to
// read.
type JobPayload struct {
	MeetingJob *MeetingJobPayload `json:"meeting_job,omitempty"`
	MatterJob  *MatterJobPayload  `json:"matter_job,omitempty"`
}

// MeetingJobPayload carries everything the processor needs to run the LLM
// pipeline over one meeting without a second round-trip to the store.
type MeetingJobPayload struct {
	MeetingID string `json:"meeting_id"`
	Banana    string `json:"banana"`
}

// MatterJobPayload carries a single matter id for targeted re-summarization
// (e.g. a manual re-trigger of ApplyCanonicalSummary fan-out).
type MatterJobPayload struct {
	MatterID string `json:"matter_id"`
}

// QueueJob is a single row in the priority job queue.
type QueueJob struct {
	ID               int64
	SourceURL        string
	JobType          JobType
	Payload          JobPayload
	MeetingID        *string
	Banana           *string
	Status           JobStatus
	Priority         int
	RetryCount       int
	CreatedAt        time.Time
	StartedAt        *time.Time
	CompletedAt      *time.Time
	FailedAt         *time.Time
	ErrorMessage     *string
	ProcessingMeta   map[string]any
}

// QueueStats summarizes queue health for observability. The HTTP stats
// endpoint itself lives outside this package; this is the repository-level
// data it renders.
type QueueStats struct {
	Pending         int
	Processing      int
	Completed       int
	Failed          int
	DeadLetter      int
	OldestPendingAge *time.Duration
}

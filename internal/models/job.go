package models

import (
	"time"

	"github.com/google/uuid"
)

// Transcoding job statuses. A job is created pending at upload-completion
// time, moved to processing when a worker picks it up, and ends in success,
// failed or cancelled. Cancelled is set externally (admin API); workers
// respect it cooperatively.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusSuccess    = "success"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// PresetInfo holds the user-selected transcode options, echoed from the
// upload request into the job record and the queue descriptor.
type PresetInfo struct {
	PreferDownscaleTo1080 bool `json:"prefer_downscale_to_1080"`
	KeepOriginal          bool `json:"keep_original"`
}

// TranscodingJob is the persisted record tracking one upload through the
// pipeline. ID equals the original upload id.
type TranscodingJob struct {
	ID           uuid.UUID  `json:"id"`
	Status       string     `json:"status"`
	CreatedBy    string     `json:"created_by,omitempty"`
	Preset       PresetInfo `json:"preset_info"`
	LogsText     string     `json:"logs_text"`
	SourceKey    string     `json:"source_key,omitempty"`
	SourceBucket string     `json:"source_bucket,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *TranscodingJob) Terminal() bool {
	switch j.Status {
	case JobStatusSuccess, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

package entity

import (
	"time"

	"github.com/upcastmedia/vodpipe/internal/mediakey"
)

// JobState is the transcoding job state machine as reported by the engine:
// SUBMITTED -> PROGRESSING -> {COMPLETE | ERROR}, with CANCELED reachable via
// an external cancel. True state lives in the engine; this process never
// mutates it locally.
type JobState string

const (
	JobSubmitted   JobState = "SUBMITTED"
	JobProgressing JobState = "PROGRESSING"
	JobComplete    JobState = "COMPLETE"
	JobCanceled    JobState = "CANCELED"
	JobError       JobState = "ERROR"
)

// JobStateFromEngine maps an engine status string onto the closed state
// enumeration. ok is false for anything outside the five defined states.
func JobStateFromEngine(s string) (JobState, bool) {
	switch JobState(s) {
	case JobSubmitted, JobProgressing, JobComplete, JobCanceled, JobError:
		return JobState(s), true
	default:
		return "", false
	}
}

// TranscodeJob is a read-only view of one engine job.
type TranscodeJob struct {
	ID           string
	State        JobState
	Progress     *int64
	ErrorMessage string
	CreatedAt    *time.Time
}

// Output is one requested (format, quality) rendition.
type Output struct {
	Format  mediakey.Format
	Quality mediakey.Quality
}

// RenditionURLs carries signed read capabilities for transcoded renditions,
// keyed by quality tier. A nil map means the format was filtered out.
type RenditionURLs struct {
	MP4 map[mediakey.Quality]*SignedURL
	HLS map[mediakey.Quality]*SignedURL
}

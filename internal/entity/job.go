package entity

import (
	"time"
)

type JobKind string

const (
	KindSingle          JobKind = "single"
	KindSpecificQuality JobKind = "specific_quality"
	KindAudioOnly       JobKind = "audio_only"
	KindPlaylist        JobKind = "playlist"
)

func (k JobKind) Valid() bool {
	switch k {
	case KindSingle, KindSpecificQuality, KindAudioOnly, KindPlaylist:
		return true
	}
	return false
}

type JobStatus string

const (
	StatusStarting    JobStatus = "starting"
	StatusDownloading JobStatus = "downloading"
	StatusCompleted   JobStatus = "completed"
	StatusError       JobStatus = "error"
)

// IsTerminal reports whether the status is write-once (completed or error).
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Options are the recognized per-job knobs. Which ones apply depends on Kind.
type Options struct {
	QualityCeiling  int   `json:"quality_ceiling,omitempty"`
	MaxItems        int   `json:"max_items,omitempty"`
	SizeLimitBytes  int64 `json:"size_limit_bytes,omitempty"`
	MergeVideoAudio bool  `json:"merge_video_audio,omitempty"`
	AudioOnly       bool  `json:"audio_only,omitempty"`
}

// Progress is the latest normalized transfer snapshot of an in-flight job.
type Progress struct {
	Phase           string `json:"phase,omitempty"`
	Percent         string `json:"percent"`
	Speed           string `json:"speed"`
	ETA             string `json:"eta"`
	Filename        string `json:"filename,omitempty"`
	Downloaded      string `json:"downloaded"`
	Total           string `json:"total"`
	DownloadedBytes int64  `json:"downloaded_bytes"`
	TotalBytes      int64  `json:"total_bytes"`
	FragmentIndex   int    `json:"fragment_index,omitempty"`
	FragmentCount   int    `json:"fragment_count,omitempty"`
}

// InitialProgress is the snapshot a job carries before the first engine event.
func InitialProgress() Progress {
	return Progress{
		Percent:    "0%",
		Speed:      "N/A",
		ETA:        "N/A",
		Downloaded: "0",
		Total:      "Unknown",
	}
}

type Result struct {
	Filename      string  `json:"filename,omitempty"`
	Title         string  `json:"title,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	ViewCount     int64   `json:"view_count,omitempty"`
	PlaylistTitle string  `json:"playlist_title,omitempty"`
	PlaylistCount int     `json:"playlist_count,omitempty"`
}

type Job struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	SourceURL   string     `json:"source_url"`
	Options     Options    `json:"options"`
	Status      JobStatus  `json:"status"`
	Progress    Progress   `json:"progress"`
	Result      *Result    `json:"result,omitempty"`
	ErrorDetail string     `json:"error_detail,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// NewJob returns a fresh record in the starting state.
func NewJob(id string, kind JobKind, sourceURL string, opts Options, now time.Time) Job {
	return Job{
		ID:        id,
		Kind:      kind,
		SourceURL: sourceURL,
		Options:   opts,
		Status:    StatusStarting,
		Progress:  InitialProgress(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers never share pointers with the store.
func (j Job) Clone() Job {
	if j.Result != nil {
		r := *j.Result
		j.Result = &r
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		j.FinishedAt = &t
	}
	return j
}

// JobPatch is a partial update. Nil fields are left untouched.
type JobPatch struct {
	Status      *JobStatus
	Progress    *Progress
	Result      *Result
	ErrorDetail *string
}

// Apply merges the patch into j. Reaching a terminal status stamps FinishedAt.
func (p JobPatch) Apply(j *Job, now time.Time) {
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.Progress != nil {
		j.Progress = *p.Progress
	}
	if p.Result != nil {
		r := *p.Result
		j.Result = &r
	}
	if p.ErrorDetail != nil {
		j.ErrorDetail = *p.ErrorDetail
	}
	j.UpdatedAt = now
	if j.Status.IsTerminal() && j.FinishedAt == nil {
		t := now
		j.FinishedAt = &t
	}
}

// ProgressPatch moves the job to downloading with a new snapshot.
func ProgressPatch(p Progress) JobPatch {
	st := StatusDownloading
	return JobPatch{Status: &st, Progress: &p}
}

// CompletedPatch is the terminal success write.
func CompletedPatch(res Result, final Progress) JobPatch {
	st := StatusCompleted
	return JobPatch{Status: &st, Result: &res, Progress: &final}
}

// ErrorPatch is the terminal failure write.
func ErrorPatch(detail string) JobPatch {
	st := StatusError
	return JobPatch{Status: &st, ErrorDetail: &detail}
}

type EventType string

const (
	EventCreated  EventType = "created"
	EventFinished EventType = "finished"
)

// JobEvent is what gets published when a job is created or reaches a terminal state.
type JobEvent struct {
	Type   EventType `json:"type"`
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
	At     time.Time `json:"at"`
	Job    Job       `json:"job"`
}

func NewJobEvent(typ EventType, j Job, at time.Time) JobEvent {
	return JobEvent{Type: typ, JobID: j.ID, Status: j.Status, At: at, Job: j.Clone()}
}

package notion

import "time"

// Status is the lifecycle state of a work item, stored verbatim in the
// master database's ステータス select property.
type Status string

const (
	// StatusPending marks a submitted item waiting for its recording.
	StatusPending Status = "入力済み"
	// StatusProcessing marks an item the pipeline has claimed.
	StatusProcessing Status = "処理中"
	// StatusComplete marks a published item. Terminal.
	StatusComplete Status = "完了"
	// StatusError marks a failed item eligible for retry.
	StatusError Status = "エラー"
	// StatusManual marks an item whose retries are exhausted. Terminal.
	StatusManual Status = "要手動対応"
)

// Terminal reports whether the status ends the item's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusManual
}

// IsErrorClass reports whether a transition into this status should
// increment the item's retry counter.
func (s Status) IsErrorClass() bool {
	return s == StatusError || s == StatusManual
}

// FailureStatus picks the status for a failed attempt: the retryable error
// status, or the terminal manual status once the incremented retry count
// would reach maxRetries. The threshold check uses the pre-increment count
// because the store applies the increment during the update itself.
func FailureStatus(retryCount, maxRetries int) Status {
	if retryCount+1 >= maxRetries {
		return StatusManual
	}
	return StatusError
}

// WorkItem is one unit of production work from the master database. The
// page identifier is an opaque key owned by Notion; the pipeline never
// generates or parses it.
type WorkItem struct {
	PageID         string
	Title          string
	ThumbnailText  string
	Category       string
	StartTime      time.Time
	LecturerName   string
	LecturerImage1 string
	LecturerImage2 string
	Genre          string
	Pattern        string
	StudentName    string
	Notes          string
	Status         Status
	RetryCount     int
}

// ArchiveRecord is the write-once entry created in the video archive
// database when an item completes.
type ArchiveRecord struct {
	Title        string
	Category     string
	Date         string
	Lecturer     string
	VideoURL     string
	ThumbnailURL string
}

// StatusUpdate carries the optional fields of a status transition.
type StatusUpdate struct {
	ErrorMessage string
	PublishedURL string
}

package zoom

import "time"

// acceptedRecordingTypes lists the recording variants worth publishing.
// Alternate camera angles and gallery views are dropped.
var acceptedRecordingTypes = map[string]struct{}{
	"shared_screen_with_speaker_view":     {},
	"shared_screen_with_speaker_view(CC)": {},
	"active_speaker":                      {},
}

const acceptedFileType = "MP4"

// RecordingFile is one downloadable media file of a cloud recording.
type RecordingFile struct {
	ID            string `json:"id"`
	DownloadURL   string `json:"download_url"`
	FileSize      int64  `json:"file_size"`
	FileType      string `json:"file_type"`
	RecordingType string `json:"recording_type"`
}

// Accepted reports whether the file is a video container in one of the
// accepted recording variants.
func (f RecordingFile) Accepted() bool {
	if f.FileType != acceptedFileType {
		return false
	}
	_, ok := acceptedRecordingTypes[f.RecordingType]
	return ok
}

// Meeting is a cloud recording entry: one meeting with its accepted files.
type Meeting struct {
	MeetingID      int64           `json:"id"`
	Topic          string          `json:"topic"`
	StartTime      time.Time       `json:"start_time"`
	RecordingFiles []RecordingFile `json:"recording_files"`
}

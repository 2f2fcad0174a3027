package workflow

import (
	"time"

	"reelpress/internal/zoom"
)

// matchMeeting returns the first meeting whose start time falls within
// the window around the scheduled start, or nil.
func matchMeeting(meetings []zoom.Meeting, scheduled time.Time, window time.Duration) *zoom.Meeting {
	for i := range meetings {
		delta := meetings[i].StartTime.Sub(scheduled)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			return &meetings[i]
		}
	}
	return nil
}

// selectFiles applies the configured file policy to a meeting's
// accepted files. The input order is the API's order, which the first
// policy preserves.
func selectFiles(files []zoom.RecordingFile, policy string) []zoom.RecordingFile {
	if len(files) == 0 {
		return nil
	}
	switch policy {
	case "first":
		return files[:1]
	case "largest":
		largest := files[0]
		for _, file := range files[1:] {
			if file.FileSize > largest.FileSize {
				largest = file
			}
		}
		return []zoom.RecordingFile{largest}
	default: // "all"
		return files
	}
}

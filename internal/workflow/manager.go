package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"reelpress/internal/config"
	"reelpress/internal/discord"
	"reelpress/internal/journal"
	"reelpress/internal/logging"
	"reelpress/internal/notion"
	"reelpress/internal/services"
	"reelpress/internal/thumbnail"
	"reelpress/internal/youtube"
	"reelpress/internal/zoom"
)

// RecordingSource lists cloud recordings and downloads their files.
type RecordingSource interface {
	ListRecordings(ctx context.Context, from, to time.Time) ([]zoom.Meeting, error)
	Download(ctx context.Context, downloadURL, destPath string) (string, error)
}

// TaskStore is the authoritative task database.
type TaskStore interface {
	FindMatching(ctx context.Context, start time.Time, window time.Duration) (*notion.WorkItem, error)
	FindRetryable(ctx context.Context, maxRetries int) ([]notion.WorkItem, error)
	UpdateStatus(ctx context.Context, pageID string, status notion.Status, update notion.StatusUpdate) error
	CreateArchiveRecord(ctx context.Context, record notion.ArchiveRecord) (string, error)
}

// Trimmer removes leading and trailing silence from a recording.
type Trimmer interface {
	AutoTrim(ctx context.Context, inputPath, outputPath string) (string, error)
}

// Thumbnailer produces a thumbnail image for a work item.
type Thumbnailer interface {
	GenerateValidated(ctx context.Context, item notion.WorkItem, opts thumbnail.Options) (string, error)
}

// Publisher uploads videos and attaches thumbnails.
type Publisher interface {
	Upload(ctx context.Context, path string, video youtube.Video) (string, error)
	SetThumbnail(ctx context.Context, videoID, imagePath string) error
}

// Announcer posts a best-effort completion notice.
type Announcer interface {
	Announce(ctx context.Context, a discord.Announcement) bool
}

// RunJournal records run history locally. It is optional; a nil journal
// disables journaling.
type RunJournal interface {
	BeginRun(ctx context.Context, runID string) error
	EndRun(ctx context.Context, runID string) error
	RecordItem(ctx context.Context, runID string, entry journal.Entry) error
}

// Dependencies groups the collaborators a Manager drives.
type Dependencies struct {
	Source      RecordingSource
	Store       TaskStore
	Trimmer     Trimmer
	Thumbnailer Thumbnailer
	Publisher   Publisher
	Announcer   Announcer
	Journal     RunJournal
}

// Manager drives one pipeline run: a retry pass over previously failed
// items, then a pass over new recordings in the lookback window. The
// manager assumes it is the only writer moving items out of the pending
// state; the run lock enforces one instance per machine.
type Manager struct {
	cfg  *config.Config
	deps Dependencies

	logger *slog.Logger
	now    func() time.Time
}

// NewManager wires a manager from configuration and collaborators.
func NewManager(cfg *config.Config, deps Dependencies, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: logging.WithComponent(logger, "workflow"),
		now:    time.Now,
	}
}

// Summary reports what a run did.
type Summary struct {
	RunID     string
	Retried   int
	Processed int
	Failed    int
	Skipped   int
}

// Run executes one full pipeline pass. Item failures are contained to
// the item; only an unacquirable run lock or an unusable staging area
// abort the run.
func (m *Manager) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	summary := Summary{RunID: runID}
	logger := m.logger.With(logging.String(logging.FieldRunID, runID))

	if err := os.MkdirAll(m.cfg.Paths.StagingDir, 0o755); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "run", m.cfg.Paths.StagingDir, err)
	}
	lock := flock.New(filepath.Join(m.cfg.Paths.StagingDir, "reelpress.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "run", "acquire run lock", err)
	}
	if !locked {
		return summary, services.Wrap(services.ErrTransient, "workflow", "run", "another instance holds the run lock", nil)
	}
	defer lock.Unlock()

	workDir, err := os.MkdirTemp(m.cfg.Paths.StagingDir, "run-*")
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "workflow", "run", "create staging directory", err)
	}
	defer os.RemoveAll(workDir)

	if m.deps.Journal != nil {
		if err := m.deps.Journal.BeginRun(ctx, runID); err != nil {
			logger.Warn("journal unavailable", logging.Error(err))
		}
	}

	logger.Info("run started", logging.String("staging", workDir))
	m.runRetryPass(ctx, logger, runID, workDir, &summary)
	m.runNewWorkPass(ctx, logger, runID, workDir, &summary)

	if m.deps.Journal != nil {
		if err := m.deps.Journal.EndRun(ctx, runID); err != nil {
			logger.Warn("journal unavailable", logging.Error(err))
		}
	}
	logger.Info("run finished",
		logging.Int("retried", summary.Retried),
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped))
	return summary, nil
}

// runRetryPass re-attempts items that previously failed. Each item's
// recording is re-located around its scheduled start; an item that still
// has no recording records another failed attempt.
func (m *Manager) runRetryPass(ctx context.Context, logger *slog.Logger, runID, workDir string, summary *Summary) {
	items, err := m.deps.Store.FindRetryable(ctx, m.cfg.Pipeline.MaxRetries)
	if err != nil {
		logger.Error("could not list retryable items", logging.Error(err))
		return
	}
	window := m.matchWindow()
	for _, item := range items {
		itemLogger := logger.With(logging.String(logging.FieldPageID, item.PageID))
		if item.StartTime.IsZero() {
			itemLogger.Warn("retry item has no start time, skipping")
			m.journalItem(ctx, runID, item, journal.OutcomeSkipped, "no start time", "")
			summary.Skipped++
			continue
		}
		meetings, err := m.deps.Source.ListRecordings(ctx,
			item.StartTime.Add(-24*time.Hour), item.StartTime.Add(24*time.Hour))
		if err != nil {
			// Re-matching problems leave the item's status alone so the
			// next run can try again without burning a retry.
			itemLogger.Warn("could not list recordings for retry, skipping", logging.Error(err))
			m.journalItem(ctx, runID, item, journal.OutcomeSkipped, err.Error(), "")
			summary.Skipped++
			continue
		}
		meeting := matchMeeting(meetings, item.StartTime, window)
		if meeting == nil || len(meeting.RecordingFiles) == 0 {
			detail := fmt.Sprintf("no recording within %s of %s", window, item.StartTime.Format(time.RFC3339))
			itemLogger.Warn("retry item still has no recording, skipping", logging.String("detail", detail))
			m.journalItem(ctx, runID, item, journal.OutcomeSkipped, detail, "")
			summary.Skipped++
			continue
		}

		summary.Retried++
		if err := m.processItem(ctx, itemLogger, runID, workDir, item, *meeting, meeting.RecordingFiles[0]); err != nil {
			m.failItem(ctx, itemLogger, runID, item, err, summary)
			continue
		}
		summary.Processed++
	}
}

// runNewWorkPass walks recent recordings and processes every one that
// matches a pending item. A listing failure logs and yields an empty
// pass; it never aborts the run.
func (m *Manager) runNewWorkPass(ctx context.Context, logger *slog.Logger, runID, workDir string, summary *Summary) {
	to := m.now()
	from := to.Add(-time.Duration(m.cfg.Pipeline.LookbackHours) * time.Hour)
	meetings, err := m.deps.Source.ListRecordings(ctx, from, to)
	if err != nil {
		logger.Error("could not list recent recordings", logging.Error(err))
		return
	}
	window := m.matchWindow()
	for _, meeting := range meetings {
		meetingLogger := logger.With(logging.String("topic", meeting.Topic))
		item, err := m.deps.Store.FindMatching(ctx, meeting.StartTime, window)
		if err != nil {
			meetingLogger.Error("could not query pending items", logging.Error(err))
			continue
		}
		if item == nil {
			meetingLogger.Debug("no pending item for recording")
			continue
		}
		itemLogger := meetingLogger.With(logging.String(logging.FieldPageID, item.PageID))

		files := selectFiles(meeting.RecordingFiles, m.cfg.Pipeline.FilePolicy)
		if len(files) == 0 {
			itemLogger.Warn("recording has no accepted files, skipping")
			m.journalItem(ctx, runID, *item, journal.OutcomeSkipped, "no accepted files", "")
			summary.Skipped++
			continue
		}
		for _, file := range files {
			if err := m.processItem(ctx, itemLogger, runID, workDir, *item, meeting, file); err != nil {
				m.failItem(ctx, itemLogger, runID, *item, err, summary)
				continue
			}
			summary.Processed++
		}
	}
}

// processItem runs one item through the full pipeline. Any error
// reflects an unfinished item and is handled by the caller's failure
// path; a nil return means the item reached the terminal complete state.
func (m *Manager) processItem(ctx context.Context, logger *slog.Logger, runID, workDir string, item notion.WorkItem, meeting zoom.Meeting, file zoom.RecordingFile) error {
	if err := m.deps.Store.UpdateStatus(ctx, item.PageID, notion.StatusProcessing, notion.StatusUpdate{}); err != nil {
		return services.Wrap(services.ErrTransient, "claim", "update_status", "", err)
	}
	logger.Info("item claimed", logging.String("title", item.Title))

	itemDir := filepath.Join(workDir, item.PageID)
	downloadPath := filepath.Join(itemDir, file.ID+".mp4")
	if _, err := m.deps.Source.Download(ctx, file.DownloadURL, downloadPath); err != nil {
		return err
	}
	logger.Info("recording downloaded", logging.Int64("bytes", file.FileSize))

	trimmedPath, err := m.deps.Trimmer.AutoTrim(ctx, downloadPath, "")
	if err != nil {
		return err
	}
	if trimmedPath != downloadPath {
		logger.Info("silence trimmed", logging.String("output", filepath.Base(trimmedPath)))
	}

	thumbnailPath, err := m.deps.Thumbnailer.GenerateValidated(ctx, item, thumbnail.Options{
		AuxImagePath: item.LecturerImage2,
	})
	if err != nil {
		return err
	}

	videoID, err := m.deps.Publisher.Upload(ctx, trimmedPath, youtube.Video{
		Title:       item.Title,
		Description: item.Notes,
		Tags:        videoTags(item),
	})
	if err != nil {
		return err
	}
	videoURL := youtube.WatchURL(videoID)
	thumbURL := youtube.ThumbnailURL(videoID)
	logger.Info("video published", logging.String("url", videoURL))

	if err := m.deps.Publisher.SetThumbnail(ctx, videoID, thumbnailPath); err != nil {
		return err
	}

	// The announcement alone is best effort; the item does not fail over
	// a missed Discord post.
	if m.deps.Announcer != nil {
		if !m.deps.Announcer.Announce(ctx, discord.Announcement{
			Title:         item.Title,
			VideoURL:      videoURL,
			ThumbnailURL:  thumbURL,
			LecturerName:  item.LecturerName,
			Category:      item.Category,
			ThumbnailText: item.ThumbnailText,
			StudentName:   item.StudentName,
			NotionURL:     notion.PageURL(item.PageID),
		}) {
			logger.Warn("announcement was not delivered")
		}
	}

	if _, err := m.deps.Store.CreateArchiveRecord(ctx, notion.ArchiveRecord{
		Title:        item.Title,
		Category:     item.Category,
		Date:         meeting.StartTime.Format("2006-01-02"),
		Lecturer:     item.LecturerName,
		VideoURL:     videoURL,
		ThumbnailURL: thumbURL,
	}); err != nil {
		return err
	}

	if err := m.deps.Store.UpdateStatus(ctx, item.PageID, notion.StatusComplete, notion.StatusUpdate{
		PublishedURL: videoURL,
	}); err != nil {
		logger.Error("published item could not be marked complete", logging.Error(err))
	}
	m.journalItem(ctx, runID, item, journal.OutcomeComplete, "", videoURL)
	logger.Info("item complete")
	return nil
}

// failItem records a failed attempt: the status moves to the retryable
// error state, or to manual once the incremented retry count reaches the
// budget. A failure of the failure path itself is logged and swallowed.
func (m *Manager) failItem(ctx context.Context, logger *slog.Logger, runID string, item notion.WorkItem, cause error, summary *Summary) {
	summary.Failed++
	status := notion.FailureStatus(item.RetryCount, m.cfg.Pipeline.MaxRetries)
	logger.Error("item failed",
		logging.Error(cause),
		logging.String("next_status", string(status)),
		logging.Int("retry_count", item.RetryCount))

	if err := m.deps.Store.UpdateStatus(ctx, item.PageID, status, notion.StatusUpdate{
		ErrorMessage: cause.Error(),
	}); err != nil {
		logger.Error("could not record failure", logging.Error(err))
	}

	outcome := journal.OutcomeError
	if status == notion.StatusManual {
		outcome = journal.OutcomeManual
	}
	m.journalItem(ctx, runID, item, outcome, cause.Error(), "")
}

func (m *Manager) journalItem(ctx context.Context, runID string, item notion.WorkItem, outcome journal.Outcome, errMsg, videoURL string) {
	if m.deps.Journal == nil {
		return
	}
	if err := m.deps.Journal.RecordItem(ctx, runID, journal.Entry{
		PageID:   item.PageID,
		Title:    item.Title,
		Outcome:  outcome,
		Error:    errMsg,
		VideoURL: videoURL,
	}); err != nil {
		m.logger.Warn("journal unavailable", logging.Error(err))
	}
}

func (m *Manager) matchWindow() time.Duration {
	return time.Duration(m.cfg.Pipeline.MatchWindowMinutes) * time.Minute
}

func videoTags(item notion.WorkItem) []string {
	var tags []string
	for _, tag := range []string{item.Genre, item.Category} {
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"reelpress/internal/config"
	"reelpress/internal/discord"
	"reelpress/internal/journal"
	"reelpress/internal/logging"
	"reelpress/internal/notion"
	"reelpress/internal/services"
	"reelpress/internal/testsupport"
	"reelpress/internal/thumbnail"
	"reelpress/internal/youtube"
	"reelpress/internal/zoom"
)

var testStart = time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)

type fakeSource struct {
	meetings  []zoom.Meeting
	listErr   error
	listCalls [][2]time.Time
	downloads []string
	downErr   error
}

func (f *fakeSource) ListRecordings(_ context.Context, from, to time.Time) ([]zoom.Meeting, error) {
	f.listCalls = append(f.listCalls, [2]time.Time{from, to})
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.meetings, nil
}

func (f *fakeSource) Download(_ context.Context, downloadURL, destPath string) (string, error) {
	f.downloads = append(f.downloads, downloadURL)
	if f.downErr != nil {
		return "", f.downErr
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(destPath, []byte("video"), 0o644); err != nil {
		return "", err
	}
	return destPath, nil
}

type statusChange struct {
	pageID string
	status notion.Status
	update notion.StatusUpdate
}

type fakeStore struct {
	pending   map[string]*notion.WorkItem // keyed by start time RFC3339
	retryable []notion.WorkItem
	findErr    error
	updateErr  map[notion.Status]error
	archiveErr error
	changes    []statusChange
	archives   []notion.ArchiveRecord
}

func (f *fakeStore) FindMatching(_ context.Context, start time.Time, window time.Duration) (*notion.WorkItem, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, item := range f.pending {
		delta := item.StartTime.Sub(start)
		if delta < 0 {
			delta = -delta
		}
		if delta <= window {
			return item, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindRetryable(context.Context, int) ([]notion.WorkItem, error) {
	return f.retryable, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, pageID string, status notion.Status, update notion.StatusUpdate) error {
	if err := f.updateErr[status]; err != nil {
		return err
	}
	f.changes = append(f.changes, statusChange{pageID: pageID, status: status, update: update})
	return nil
}

func (f *fakeStore) CreateArchiveRecord(_ context.Context, record notion.ArchiveRecord) (string, error) {
	if f.archiveErr != nil {
		return "", f.archiveErr
	}
	f.archives = append(f.archives, record)
	return "archive-1", nil
}

func (f *fakeStore) statusesFor(pageID string) []notion.Status {
	var statuses []notion.Status
	for _, change := range f.changes {
		if change.pageID == pageID {
			statuses = append(statuses, change.status)
		}
	}
	return statuses
}

type fakeTrimmer struct{ calls int }

func (f *fakeTrimmer) AutoTrim(_ context.Context, inputPath, _ string) (string, error) {
	f.calls++
	return inputPath, nil
}

type fakeThumbnailer struct {
	calls []thumbnail.Options
	err   error
	dir   string
}

func (f *fakeThumbnailer) GenerateValidated(_ context.Context, _ notion.WorkItem, opts thumbnail.Options) (string, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, "thumb.png")
	return path, os.WriteFile(path, []byte("thumb"), 0o644)
}

type fakePublisher struct {
	uploads      []youtube.Video
	uploadErr    error
	thumbCalls   int
	thumbErr     error
	lastVideoDir string
}

func (f *fakePublisher) Upload(_ context.Context, path string, video youtube.Video) (string, error) {
	f.uploads = append(f.uploads, video)
	f.lastVideoDir = filepath.Dir(path)
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return "vid-123", nil
}

func (f *fakePublisher) SetThumbnail(context.Context, string, string) error {
	f.thumbCalls++
	return f.thumbErr
}

type fakeAnnouncer struct {
	announcements []discord.Announcement
	delivered     bool
}

func (f *fakeAnnouncer) Announce(_ context.Context, a discord.Announcement) bool {
	f.announcements = append(f.announcements, a)
	return f.delivered
}

type fakeJournal struct {
	begun, ended []string
	entries      []journal.Entry
}

func (f *fakeJournal) BeginRun(_ context.Context, runID string) error {
	f.begun = append(f.begun, runID)
	return nil
}

func (f *fakeJournal) EndRun(_ context.Context, runID string) error {
	f.ended = append(f.ended, runID)
	return nil
}

func (f *fakeJournal) RecordItem(_ context.Context, _ string, entry journal.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fixture struct {
	cfg         *config.Config
	source      *fakeSource
	store       *fakeStore
	trimmer     *fakeTrimmer
	thumbnailer *fakeThumbnailer
	publisher   *fakePublisher
	announcer   *fakeAnnouncer
	journal     *fakeJournal
	manager     *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithFilePolicy("all"), testsupport.WithMaxRetries(3))
	cfg.Pipeline.MatchWindowMinutes = 30
	cfg.Pipeline.LookbackHours = 24

	f := &fixture{
		cfg:         cfg,
		source:      &fakeSource{},
		store:       &fakeStore{pending: map[string]*notion.WorkItem{}, updateErr: map[notion.Status]error{}},
		trimmer:     &fakeTrimmer{},
		thumbnailer: &fakeThumbnailer{dir: t.TempDir()},
		publisher:   &fakePublisher{},
		announcer:   &fakeAnnouncer{delivered: true},
		journal:     &fakeJournal{},
	}
	f.manager = NewManager(cfg, Dependencies{
		Source:      f.source,
		Store:       f.store,
		Trimmer:     f.trimmer,
		Thumbnailer: f.thumbnailer,
		Publisher:   f.publisher,
		Announcer:   f.announcer,
		Journal:     f.journal,
	}, logging.NewNop())
	f.manager.now = func() time.Time { return testStart.Add(2 * time.Hour) }
	return f
}

func pendingItem(pageID string) *notion.WorkItem {
	return &notion.WorkItem{
		PageID:        pageID,
		Title:         "対談動画",
		ThumbnailText: "最短で結果を出す勉強法",
		Category:      "対談",
		StartTime:     testStart,
		LecturerName:  "田中太郎",
		Genre:         "英語",
		Pattern:       "対談",
		Status:        notion.StatusPending,
	}
}

func meetingAt(start time.Time, files ...zoom.RecordingFile) zoom.Meeting {
	if len(files) == 0 {
		files = []zoom.RecordingFile{{
			ID:          "file-1",
			DownloadURL: "https://zoom.example/rec/file-1",
			FileSize:    100,
			FileType:    "MP4",
		}}
	}
	return zoom.Meeting{MeetingID: 1, Topic: "対談", StartTime: start, RecordingFiles: files}
}

func TestRunProcessesNewRecording(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart.Add(10 * time.Minute))}

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	statuses := f.store.statusesFor("page-1")
	want := []notion.Status{notion.StatusProcessing, notion.StatusComplete}
	if len(statuses) != len(want) || statuses[0] != want[0] || statuses[1] != want[1] {
		t.Fatalf("status transitions = %v", statuses)
	}
	final := f.store.changes[len(f.store.changes)-1]
	if final.update.PublishedURL != "https://youtu.be/vid-123" {
		t.Fatalf("final update = %+v", final.update)
	}

	if len(f.source.downloads) != 1 || f.trimmer.calls != 1 || len(f.thumbnailer.calls) != 1 {
		t.Fatalf("pipeline steps: downloads=%d trims=%d thumbs=%d",
			len(f.source.downloads), f.trimmer.calls, len(f.thumbnailer.calls))
	}
	if len(f.publisher.uploads) != 1 || f.publisher.uploads[0].Title != "対談動画" {
		t.Fatalf("uploads = %+v", f.publisher.uploads)
	}
	if f.publisher.thumbCalls != 1 {
		t.Fatalf("thumbnail calls = %d", f.publisher.thumbCalls)
	}
	if len(f.announcer.announcements) != 1 || f.announcer.announcements[0].VideoURL != "https://youtu.be/vid-123" {
		t.Fatalf("announcements = %+v", f.announcer.announcements)
	}
	wantThumb := "https://i.ytimg.com/vi/vid-123/maxresdefault.jpg"
	if f.announcer.announcements[0].ThumbnailURL != wantThumb {
		t.Fatalf("announcement thumbnail = %q", f.announcer.announcements[0].ThumbnailURL)
	}
	if len(f.store.archives) != 1 || f.store.archives[0].Date != "2026-02-09" {
		t.Fatalf("archives = %+v", f.store.archives)
	}
	if f.store.archives[0].ThumbnailURL != wantThumb {
		t.Fatalf("archive thumbnail = %q", f.store.archives[0].ThumbnailURL)
	}
	if len(f.journal.entries) != 1 || f.journal.entries[0].Outcome != journal.OutcomeComplete {
		t.Fatalf("journal = %+v", f.journal.entries)
	}
}

func TestRunItemFailureIsContained(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}
	f.publisher.uploadErr = services.Wrap(services.ErrTransient, "youtube", "upload", "request failed", errors.New("boom"))

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatalf("an item failure must not fail the run: %v", err)
	}
	if summary.Failed != 1 || summary.Processed != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	statuses := f.store.statusesFor("page-1")
	if len(statuses) != 2 || statuses[1] != notion.StatusError {
		t.Fatalf("statuses = %v", statuses)
	}
	failure := f.store.changes[len(f.store.changes)-1]
	if !strings.Contains(failure.update.ErrorMessage, "upload") {
		t.Fatalf("error message = %q", failure.update.ErrorMessage)
	}
	if len(f.announcer.announcements) != 0 || len(f.store.archives) != 0 {
		t.Fatal("failed item must not announce or archive")
	}
}

func TestRunEscalatesToManualOnExhaustedRetries(t *testing.T) {
	f := newFixture(t)
	item := pendingItem("page-1")
	item.RetryCount = 2
	item.Status = notion.StatusError
	f.store.retryable = []notion.WorkItem{*item}
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}
	f.publisher.uploadErr = errors.New("boom")
	// Keep the new-work pass quiet so only the retry pass runs the item.
	f.store.pending = map[string]*notion.WorkItem{}

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Retried != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	statuses := f.store.statusesFor("page-1")
	if statuses[len(statuses)-1] != notion.StatusManual {
		t.Fatalf("statuses = %v", statuses)
	}
	if len(f.journal.entries) == 0 || f.journal.entries[len(f.journal.entries)-1].Outcome != journal.OutcomeManual {
		t.Fatalf("journal = %+v", f.journal.entries)
	}
}

func TestRetryPassSkipsItemsWithoutStartTime(t *testing.T) {
	f := newFixture(t)
	item := pendingItem("page-1")
	item.StartTime = time.Time{}
	f.store.retryable = []notion.WorkItem{*item}

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Retried != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(f.store.changes) != 0 {
		t.Fatalf("skipped item must not change status: %v", f.store.changes)
	}
	if f.journal.entries[0].Outcome != journal.OutcomeSkipped {
		t.Fatalf("journal = %+v", f.journal.entries)
	}
}

func TestRetryPassRelistsAroundItemStart(t *testing.T) {
	f := newFixture(t)
	item := pendingItem("page-1")
	item.RetryCount = 0
	f.store.retryable = []notion.WorkItem{*item}
	f.source.meetings = []zoom.Meeting{meetingAt(testStart.Add(15 * time.Minute))}

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	// First listing belongs to the retry pass and brackets the item start.
	from, to := f.source.listCalls[0][0], f.source.listCalls[0][1]
	if !from.Equal(testStart.Add(-24*time.Hour)) || !to.Equal(testStart.Add(24*time.Hour)) {
		t.Fatalf("retry listing window = %s .. %s", from, to)
	}
}

func TestRetryPassSkipsItemWhenNoRecordingMatches(t *testing.T) {
	f := newFixture(t)
	f.store.retryable = []notion.WorkItem{*pendingItem("page-1")}
	f.source.meetings = []zoom.Meeting{meetingAt(testStart.Add(2 * time.Hour))}

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Skipped != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(f.store.changes) != 0 {
		t.Fatalf("an unmatched retry item must keep its status: %v", f.store.changes)
	}
	entry := f.journal.entries[len(f.journal.entries)-1]
	if entry.Outcome != journal.OutcomeSkipped || !strings.Contains(entry.Error, "no recording") {
		t.Fatalf("journal = %+v", entry)
	}
}

func TestRunListingFailureYieldsEmptyPass(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.listErr = errors.New("zoom is down")

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatalf("a listing failure must not abort the run: %v", err)
	}
	if summary.Processed != 0 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunThumbnailSetFailureFailsItem(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}
	f.publisher.thumbErr = errors.New("thumbnail rejected")

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 0 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	statuses := f.store.statusesFor("page-1")
	if statuses[len(statuses)-1] != notion.StatusError {
		t.Fatalf("statuses = %v", statuses)
	}
	failure := f.store.changes[len(f.store.changes)-1]
	if !strings.Contains(failure.update.ErrorMessage, "thumbnail rejected") {
		t.Fatalf("error message = %q", failure.update.ErrorMessage)
	}
}

func TestRunArchiveRecordFailureFailsItem(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}
	f.store.archiveErr = errors.New("archive db unavailable")

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 0 || summary.Failed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	statuses := f.store.statusesFor("page-1")
	if statuses[len(statuses)-1] != notion.StatusError {
		t.Fatalf("statuses = %v", statuses)
	}
	// The announcement precedes archival and stays best effort.
	if len(f.announcer.announcements) != 1 {
		t.Fatalf("announcements = %+v", f.announcer.announcements)
	}
}

func TestRunMissedAnnouncementDoesNotFailItem(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}
	f.announcer.delivered = false

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 1 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	statuses := f.store.statusesFor("page-1")
	if statuses[len(statuses)-1] != notion.StatusComplete {
		t.Fatalf("statuses = %v", statuses)
	}
}

func TestRunProcessesEveryFileUnderAllPolicy(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart,
		zoom.RecordingFile{ID: "a", DownloadURL: "u-a", FileSize: 10, FileType: "MP4"},
		zoom.RecordingFile{ID: "b", DownloadURL: "u-b", FileSize: 20, FileType: "MP4"},
	)}

	summary, err := f.manager.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Processed != 2 || len(f.source.downloads) != 2 {
		t.Fatalf("summary = %+v downloads = %v", summary, f.source.downloads)
	}
}

func TestRunCleansStagingDirectory(t *testing.T) {
	f := newFixture(t)
	f.store.pending["p1"] = pendingItem("page-1")
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}

	if _, err := f.manager.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(f.cfg.Paths.StagingDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "run-") {
			t.Fatalf("staging leftover: %s", entry.Name())
		}
	}
}

func TestSelectFiles(t *testing.T) {
	files := []zoom.RecordingFile{
		{ID: "a", FileSize: 10},
		{ID: "b", FileSize: 30},
		{ID: "c", FileSize: 20},
	}
	if got := selectFiles(files, "all"); len(got) != 3 {
		t.Fatalf("all = %v", got)
	}
	if got := selectFiles(files, "first"); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("first = %v", got)
	}
	if got := selectFiles(files, "largest"); len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("largest = %v", got)
	}
	if got := selectFiles(nil, "all"); got != nil {
		t.Fatalf("empty = %v", got)
	}
}

func TestMatchMeeting(t *testing.T) {
	meetings := []zoom.Meeting{
		meetingAt(testStart.Add(45 * time.Minute)),
		meetingAt(testStart.Add(-20 * time.Minute)),
	}
	got := matchMeeting(meetings, testStart, 30*time.Minute)
	if got == nil || !got.StartTime.Equal(testStart.Add(-20*time.Minute)) {
		t.Fatalf("matchMeeting = %+v", got)
	}
	if matchMeeting(meetings, testStart, 10*time.Minute) != nil {
		t.Fatal("nothing should match a 10 minute window")
	}
}

func TestRunPassesAuxImageToThumbnailer(t *testing.T) {
	f := newFixture(t)
	item := pendingItem("page-1")
	item.Pattern = "グルコン"
	item.LecturerImage2 = "/assets/phone.png"
	f.store.pending["p1"] = item
	f.source.meetings = []zoom.Meeting{meetingAt(testStart)}

	if _, err := f.manager.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(f.thumbnailer.calls) != 1 || f.thumbnailer.calls[0].AuxImagePath != "/assets/phone.png" {
		t.Fatalf("thumbnailer calls = %+v", f.thumbnailer.calls)
	}
}

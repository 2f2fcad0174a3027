package notion

import (
	"strings"
	"time"
)

// Master database property names. The databases are operated in Japanese;
// the names are part of the integration contract.
const (
	propTitle          = "タイトル"
	propThumbnailText  = "サムネ文言"
	propCategory       = "種別"
	propStartTime      = "開始時間"
	propLecturerName   = "講師名"
	propLecturerImage1 = "講師画像①"
	propLecturerImage2 = "講師画像②"
	propGenre          = "ジャンル"
	propPattern        = "パターン"
	propStudentName    = "生徒名"
	propNotes          = "補足情報"
	propStatus         = "ステータス"
	propRetryCount     = "リトライ回数"
	propErrorMessage   = "エラー内容"
	propProcessedAt    = "処理日時"
	propVideoURL       = "YouTubeリンク"
)

// Archive database property names.
const (
	archivePropTitle     = "動画タイトル"
	archivePropTag       = "タグ"
	archivePropDate      = "日付"
	archivePropLecturer  = "講師名"
	archivePropVideoURL  = "YouTubeリンク"
	archivePropThumbnail = "サムネイル"
)

type richText struct {
	PlainText string `json:"plain_text"`
	Text      *struct {
		Content string `json:"content"`
	} `json:"text,omitempty"`
}

type selectValue struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

// property is the union of the value shapes this integration reads.
type fetchedProperty struct {
	Title    []richText   `json:"title"`
	RichText []richText   `json:"rich_text"`
	Select   *selectValue `json:"select"`
	Number   *float64     `json:"number"`
	Date     *dateValue   `json:"date"`
	URL      string       `json:"url"`
}

type fetchedPage struct {
	ID         string                     `json:"id"`
	Properties map[string]fetchedProperty `json:"properties"`
}

func (p fetchedProperty) plainTitle() string {
	var b strings.Builder
	for _, part := range p.Title {
		b.WriteString(part.PlainText)
	}
	return b.String()
}

func (p fetchedProperty) plainText() string {
	var b strings.Builder
	for _, part := range p.RichText {
		b.WriteString(part.PlainText)
	}
	return b.String()
}

func (p fetchedProperty) selectName() string {
	if p.Select == nil {
		return ""
	}
	return p.Select.Name
}

func (p fetchedProperty) number() int {
	if p.Number == nil {
		return 0
	}
	return int(*p.Number)
}

func (p fetchedProperty) dateStart() time.Time {
	if p.Date == nil || p.Date.Start == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339, p.Date.Start)
	if err != nil {
		// Date-only values have no time portion.
		parsed, err = time.Parse("2006-01-02", p.Date.Start)
		if err != nil {
			return time.Time{}
		}
	}
	return parsed
}

// parseWorkItem converts a fetched page into a WorkItem. Missing
// properties parse as zero values; callers validate the fields they need.
func parseWorkItem(page fetchedPage) WorkItem {
	props := page.Properties
	return WorkItem{
		PageID:         page.ID,
		Title:          props[propTitle].plainTitle(),
		ThumbnailText:  props[propThumbnailText].plainText(),
		Category:       props[propCategory].selectName(),
		StartTime:      props[propStartTime].dateStart(),
		LecturerName:   props[propLecturerName].plainText(),
		LecturerImage1: props[propLecturerImage1].selectName(),
		LecturerImage2: props[propLecturerImage2].selectName(),
		Genre:          props[propGenre].selectName(),
		Pattern:        props[propPattern].selectName(),
		StudentName:    props[propStudentName].plainText(),
		Notes:          props[propNotes].plainText(),
		Status:         Status(props[propStatus].selectName()),
		RetryCount:     props[propRetryCount].number(),
	}
}

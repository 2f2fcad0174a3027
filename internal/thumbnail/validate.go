package thumbnail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"reelpress/internal/logging"
	"reelpress/internal/notion"
	"reelpress/internal/services/gemini"
)

// checkResult is the verdict the vision check returns for one image.
// Every field defaults to passing so a partially parsed reply never
// fails an image on a check the model did not answer.
type checkResult struct {
	GraduationCap bool `json:"graduation_cap"`
	TextBoxShape  bool `json:"text_box_shape"`
	GuestText     bool `json:"guest_text"`
	GenreText     bool `json:"genre_text"`
	TextColor     bool `json:"text_color"`
	NoExtraIcons  bool `json:"no_extra_icons"`
}

var checkLabels = []struct {
	name  string
	label string
	pass  func(checkResult) bool
}{
	{"graduation_cap", "角帽アイコンが欠けている", func(c checkResult) bool { return c.GraduationCap }},
	{"text_box_shape", "テキストボックスの形状が崩れている", func(c checkResult) bool { return c.TextBoxShape }},
	{"guest_text", "ゲスト名の文言が正しくない", func(c checkResult) bool { return c.GuestText }},
	{"genre_text", "ジャンルの文言が正しくない", func(c checkResult) bool { return c.GenreText }},
	{"text_color", "文字色がテンプレートと違う", func(c checkResult) bool { return c.TextColor }},
	{"no_extra_icons", "想定外のアイコンや要素がある", func(c checkResult) bool { return c.NoExtraIcons }},
}

const validationPromptFormat = `あなたはサムネイル画像の品質検査員です。1枚目がテンプレート、2枚目が生成結果です。
生成結果がテンプレートのレイアウトを守っているか、次の観点で検査してください。

- graduation_cap: 角帽アイコンがテンプレートと同じ位置に存在するか
- text_box_shape: テキストボックスの形状がテンプレートと一致しているか
- guest_text: ゲスト名の文言が「%s」と一致しているか
- genre_text: ジャンルの文言が「%s」と一致しているか
- text_color: 文字色がテンプレートと一致しているか
- no_extra_icons: テンプレートにない余計なアイコンや要素が追加されていないか

各項目を true / false で判定し、JSONだけを返してください。
{"graduation_cap": true, "text_box_shape": true, "guest_text": true, "genre_text": true, "text_color": true, "no_extra_icons": true}`

// GenerateValidated generates a thumbnail and runs a vision check over
// the result, regenerating on layout defects up to the attempt budget.
// The check fails open: an unavailable or unparseable verdict accepts
// the image, and after the budget the last image ships with a warning.
func (e *Engine) GenerateValidated(ctx context.Context, item notion.WorkItem, opts Options) (string, error) {
	pattern, err := ResolvePattern(item.Pattern)
	if err != nil {
		return "", err
	}
	template, err := e.registry.Template(pattern)
	if err != nil {
		return "", err
	}

	var lastPath string
	var lastIssues []string
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		path, err := e.Generate(ctx, item, opts)
		if err != nil {
			return "", err
		}
		lastPath = path

		issues, ok := e.inspect(ctx, template, item, path)
		if ok {
			return path, nil
		}
		lastIssues = issues
		e.logger.Warn("thumbnail failed layout check, regenerating",
			logging.String("pattern", string(pattern)),
			logging.Int("attempt", attempt),
			logging.String("issues", strings.Join(issues, "、")))
	}

	e.logger.Warn("layout check budget spent, keeping last thumbnail",
		logging.String("path", lastPath),
		logging.String("issues", strings.Join(lastIssues, "、")))
	return lastPath, nil
}

// inspect runs one vision check. It returns pass when the verdict
// cannot be obtained or parsed; only an explicit negative fails.
func (e *Engine) inspect(ctx context.Context, template Template, item notion.WorkItem, path string) ([]string, bool) {
	generated, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("could not read generated thumbnail for inspection", logging.Error(err))
		return nil, true
	}

	prompt := fmt.Sprintf(validationPromptFormat, item.ThumbnailText, item.Genre)
	reply, err := e.model.GenerateText(ctx, prompt, []gemini.ImagePart{
		{MIME: "image/png", Data: template.BaseImage},
		{MIME: "image/png", Data: generated},
	})
	if err != nil {
		e.logger.Warn("layout check unavailable, accepting thumbnail", logging.Error(err))
		return nil, true
	}

	result, err := parseCheckResult(reply)
	if err != nil {
		e.logger.Warn("layout check verdict unparseable, accepting thumbnail", logging.Error(err))
		return nil, true
	}

	var issues []string
	for _, check := range checkLabels {
		if !check.pass(result) {
			issues = append(issues, check.label)
		}
	}
	return issues, len(issues) == 0
}

// parseCheckResult decodes the model verdict, tolerating a fenced code
// block around the JSON.
func parseCheckResult(reply string) (checkResult, error) {
	trimmed := strings.TrimSpace(reply)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}
	result := checkResult{
		GraduationCap: true,
		TextBoxShape:  true,
		GuestText:     true,
		GenreText:     true,
		TextColor:     true,
		NoExtraIcons:  true,
	}
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return checkResult{}, err
	}
	return result, nil
}

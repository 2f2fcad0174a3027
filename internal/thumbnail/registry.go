package thumbnail

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"reelpress/internal/services"
)

// Pattern identifies a thumbnail template family.
type Pattern string

const (
	// PatternDialogue composes two circular portrait frames and needs a
	// lecturer portrait from the asset registry.
	PatternDialogue Pattern = "pattern1"
	// PatternGroupConsult composes a phone screenshot and needs an
	// explicitly supplied auxiliary image.
	PatternGroupConsult Pattern = "pattern2"
	// PatternOneOnOne is text-only and needs no auxiliary image.
	PatternOneOnOne Pattern = "pattern3"
)

// patternAliases maps the values the master database uses for the
// パターン property onto template identifiers. The table is closed:
// anything else fails validation before any network call.
var patternAliases = map[string]Pattern{
	"対談":       PatternDialogue,
	"パターン1":    PatternDialogue,
	"pattern1": PatternDialogue,
	"グルコン":     PatternGroupConsult,
	"パターン2":    PatternGroupConsult,
	"pattern2": PatternGroupConsult,
	"1on1":     PatternOneOnOne,
	"パターン3":    PatternOneOnOne,
	"pattern3": PatternOneOnOne,
}

// ResolvePattern maps a raw pattern value to a template identifier.
func ResolvePattern(raw string) (Pattern, error) {
	pattern, ok := patternAliases[strings.TrimSpace(raw)]
	if !ok {
		known := make([]string, 0, len(patternAliases))
		for alias := range patternAliases {
			known = append(known, alias)
		}
		sort.Strings(known)
		return "", services.Wrap(services.ErrValidation, "thumbnail", "resolve_pattern",
			fmt.Sprintf("unrecognized pattern %q (expected one of %s)", raw, strings.Join(known, ", ")), nil)
	}
	return pattern, nil
}

// Template is one loaded thumbnail template: the base image that anchors
// the layout, the prompt with {variable} placeholders, and its settings.
type Template struct {
	ID        Pattern
	Name      string
	BaseImage []byte
	Prompt    string
	Variables []string
	NeedsAux  bool
}

type templateSettings struct {
	Name      string   `toml:"name"`
	Variables []string `toml:"variables"`
	NeedsAux  bool     `toml:"requires_aux_image"`
}

// Registry holds the loaded templates, built once at startup.
type Registry struct {
	templates map[Pattern]Template
}

// LoadRegistry reads every pattern directory under dir. Each directory
// must contain base.png, prompt.txt, and config.toml.
func LoadRegistry(dir string) (*Registry, error) {
	registry := &Registry{templates: make(map[Pattern]Template, 3)}
	for _, pattern := range []Pattern{PatternDialogue, PatternGroupConsult, PatternOneOnOne} {
		template, err := loadTemplate(filepath.Join(dir, string(pattern)), pattern)
		if err != nil {
			return nil, err
		}
		registry.templates[pattern] = template
	}
	return registry, nil
}

// Template returns the loaded template for a pattern.
func (r *Registry) Template(pattern Pattern) (Template, error) {
	template, ok := r.templates[pattern]
	if !ok {
		return Template{}, services.Wrap(services.ErrNotFound, "thumbnail", "template",
			fmt.Sprintf("no template loaded for %s", pattern), nil)
	}
	return template, nil
}

func loadTemplate(dir string, pattern Pattern) (Template, error) {
	baseImage, err := os.ReadFile(filepath.Join(dir, "base.png"))
	if err != nil {
		return Template{}, services.Wrap(services.ErrNotFound, "thumbnail", "load_template",
			"base image for "+string(pattern), err)
	}
	prompt, err := os.ReadFile(filepath.Join(dir, "prompt.txt"))
	if err != nil {
		return Template{}, services.Wrap(services.ErrNotFound, "thumbnail", "load_template",
			"prompt for "+string(pattern), err)
	}
	settingsData, err := os.ReadFile(filepath.Join(dir, "config.toml"))
	if err != nil {
		return Template{}, services.Wrap(services.ErrNotFound, "thumbnail", "load_template",
			"settings for "+string(pattern), err)
	}
	var settings templateSettings
	if err := toml.Unmarshal(settingsData, &settings); err != nil {
		return Template{}, services.Wrap(services.ErrValidation, "thumbnail", "load_template",
			"parse settings for "+string(pattern), err)
	}

	return Template{
		ID:        pattern,
		Name:      settings.Name,
		BaseImage: baseImage,
		Prompt:    string(prompt),
		Variables: settings.Variables,
		NeedsAux:  settings.NeedsAux,
	}, nil
}

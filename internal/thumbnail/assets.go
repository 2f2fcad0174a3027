package thumbnail

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"reelpress/internal/services"
)

var portraitExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".webp": {},
}

// Assets is the lecturer portrait registry. It is built once from the
// portrait directory and resolves names by fuzzy match afterwards, so a
// lookup never touches the filesystem beyond reading the matched file.
type Assets struct {
	dir     string
	entries []assetEntry
}

type assetEntry struct {
	fileName   string
	normalized string
}

// LoadAssets scans dir for portrait images. A missing directory yields
// an empty registry; lookups against it report not found.
func LoadAssets(dir string) (*Assets, error) {
	assets := &Assets{dir: dir}
	names, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return assets, nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "thumbnail", "load_assets", dir, err)
	}
	for _, entry := range names {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := portraitExtensions[ext]; !ok {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		assets.entries = append(assets.entries, assetEntry{
			fileName:   entry.Name(),
			normalized: normalizeName(stem),
		})
	}
	// Deterministic tie-break: the lexicographically first file wins.
	sort.Slice(assets.entries, func(i, j int) bool {
		return assets.entries[i].fileName < assets.entries[j].fileName
	})
	return assets, nil
}

// FindPortrait resolves a lecturer name to a portrait path. The name and
// the file stems are compared after honorific stripping and width
// folding, and a match in either containment direction counts.
func (a *Assets) FindPortrait(lecturer string) (string, error) {
	needle := normalizeName(lecturer)
	if needle == "" {
		return "", services.Wrap(services.ErrValidation, "thumbnail", "find_portrait",
			"lecturer name is empty", nil)
	}
	for _, entry := range a.entries {
		if strings.Contains(entry.normalized, needle) || strings.Contains(needle, entry.normalized) {
			return filepath.Join(a.dir, entry.fileName), nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "thumbnail", "find_portrait",
		fmt.Sprintf("no portrait matches lecturer %q in %s", lecturer, a.dir), nil)
}

// normalizeName prepares a lecturer name or file stem for comparison:
// NFKC folds full-width romaji and digits, honorifics and spaces drop.
func normalizeName(name string) string {
	normalized := norm.NFKC.String(strings.TrimSpace(name))
	for _, honorific := range []string{"講師", "先生"} {
		normalized = strings.TrimSuffix(normalized, honorific)
	}
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "　", "")
	return strings.ToLower(normalized)
}

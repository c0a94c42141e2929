package samples

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Category names a sample folder under the sounds directory.
type Category string

const (
	Kicks Category = "kicks"
	Claps Category = "claps"
	Hats  Category = "hats"
	Misc  Category = "misc"

	// All expands to every known category, in Categories() order
	All Category = "all"
)

// Categories returns the known sample categories in scan order.
func Categories() []Category {
	return []Category{Kicks, Claps, Hats, Misc}
}

// DefaultListLimit caps List results when the caller gives no limit.
const DefaultListLimit = 10

// audioExts are the file extensions treated as playable samples.
var audioExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".aif":  true,
	".aiff": true,
}

// Sample is one playable audio file discovered on disk.
type Sample struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Path     string   `json:"path"`
}

// Library discovers and selects sample files under a sounds directory laid
// out as one folder per category (kicks/, claps/, hats/, misc/).
type Library struct {
	soundsDir string
}

// NewLibrary creates a Library rooted at soundsDir. The root is resolved to
// an absolute path so sample paths stay valid regardless of where REAPER
// runs from.
func NewLibrary(soundsDir string) *Library {
	if abs, err := filepath.Abs(soundsDir); err == nil {
		soundsDir = abs
	}
	return &Library{soundsDir: soundsDir}
}

// List returns up to limit samples from the given category whose file name
// contains query, case-insensitively. An empty query matches everything.
// Category All (or empty) scans every category in Categories() order.
// Missing category folders are skipped without error so the library still
// works on a partially populated sounds directory.
func (l *Library) List(category Category, query string, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))

	cats := []Category{category}
	if category == All || category == "" {
		cats = Categories()
	}

	results := make([]Sample, 0, limit)
	for _, cat := range cats {
		folder := filepath.Join(l.soundsDir, string(cat))
		if _, err := os.Stat(folder); err != nil {
			continue
		}

		err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !audioExts[strings.ToLower(filepath.Ext(d.Name()))] {
				return nil
			}
			if q != "" && !strings.Contains(strings.ToLower(d.Name()), q) {
				return nil
			}

			results = append(results, Sample{Category: cat, Name: d.Name(), Path: path})
			if len(results) >= limit {
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", folder, err)
		}

		if len(results) >= limit {
			break
		}
	}
	return results, nil
}

// PickFirst returns the first sample in category matching query, or nil when
// nothing matches.
func (l *Library) PickFirst(category Category, query string) (*Sample, error) {
	matches, err := l.List(category, query, 1)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return &matches[0], nil
}

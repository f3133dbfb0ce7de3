// Package exchange moves journal entries in and out of plaintext formats:
// a JSON array, and a tree of markdown files with front-matter.
package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/chris-regnier/reflectctl/internal/analyzer"
	"github.com/chris-regnier/reflectctl/internal/entry"
)

// ErrImport is returned for markdown files that cannot be turned into entries.
var ErrImport = errors.New("import failed")

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []entry.Entry) error {
	if entries == nil {
		entries = []entry.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}
	return nil
}

// ReadJSON reads entries written by WriteJSON.
func ReadJSON(r io.Reader) ([]entry.Entry, error) {
	var entries []entry.Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decoding entries: %v", ErrImport, err)
	}
	return entries, nil
}

// MarkdownPath is where an entry lives below an export directory.
func MarkdownPath(dir string, e entry.Entry) string {
	y, m, d := "0000", "00", "00"
	if parts := strings.Split(e.Date, "-"); len(parts) == 3 {
		y, m, d = parts[0], parts[1], parts[2]
	}
	return filepath.Join(dir, y, m, d, e.ID+".md")
}

// Marshal renders one entry as markdown with front-matter.
func Marshal(e entry.Entry) []byte {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", e.ID)
	fmt.Fprintf(&b, "date: %q\n", e.Date)
	fmt.Fprintf(&b, "sentiment: %s\n", strconv.FormatFloat(entry.Score(e), 'g', -1, 64))
	if len(e.Themes) > 0 {
		b.WriteString("themes:\n")
		for _, t := range e.Themes {
			fmt.Fprintf(&b, "  - %q\n", t)
		}
	}
	b.WriteString("---\n\n")
	b.WriteString(e.Text)
	b.WriteString("\n")
	return []byte(b.String())
}

// WriteMarkdown writes every entry below dir, one file per entry. Entries
// without an ID are given one.
func WriteMarkdown(dir string, entries []entry.Entry) (int, error) {
	for i, e := range entries {
		if e.ID == "" {
			id, err := entry.NewID()
			if err != nil {
				return i, fmt.Errorf("generating ID: %w", err)
			}
			e.ID = id
		}
		path := MarkdownPath(dir, e)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return i, fmt.Errorf("creating directory: %w", err)
		}
		if err := os.WriteFile(path, Marshal(e), 0600); err != nil {
			return i, fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return len(entries), nil
}

type frontMatter struct {
	ID        string   `yaml:"id"`
	Date      string   `yaml:"date"`
	Sentiment *float64 `yaml:"sentiment"`
	Themes    []string `yaml:"themes"`
	Tags      []string `yaml:"tags"`
}

// Unmarshal parses one markdown entry. A missing sentiment is recomputed from
// the text. Without a themes list, themes are extracted from the text and
// merged with any tags.
func Unmarshal(data []byte) (entry.Entry, error) {
	var fm frontMatter
	body, err := frontmatter.Parse(strings.NewReader(string(data)), &fm)
	if err != nil {
		return entry.Entry{}, fmt.Errorf("%w: parsing front-matter: %v", ErrImport, err)
	}
	if err := entry.ValidateDate(fm.Date); err != nil {
		return entry.Entry{}, fmt.Errorf("%w: %v", ErrImport, err)
	}
	text := strings.TrimSpace(string(body))
	if err := entry.ValidateText(text); err != nil {
		return entry.Entry{}, fmt.Errorf("%w: %v", ErrImport, err)
	}

	e := analyzer.AnalyzeEntry(fm.Date, text, fm.Tags)
	if fm.Themes != nil {
		e.Themes = entry.MergeThemes(fm.Themes, fm.Tags)
	}
	if fm.Sentiment != nil {
		e.Sentiment = *fm.Sentiment
	}
	e.ID = fm.ID
	if e.ID == "" || entry.ValidateID(e.ID) != nil {
		if e.ID, err = entry.NewID(); err != nil {
			return entry.Entry{}, fmt.Errorf("generating ID: %w", err)
		}
	}
	return e, nil
}

// ReadMarkdown imports every .md file below dir, ordered by date.
func ReadMarkdown(dir string) ([]entry.Entry, error) {
	var entries []entry.Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		e, err := Unmarshal(data)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries, nil
}

// Merge combines the journal with imported entries. Imported entries replace
// existing ones with the same ID; the result is ordered by date.
func Merge(existing, imported []entry.Entry) []entry.Entry {
	byID := make(map[string]int, len(imported))
	for i, e := range imported {
		byID[e.ID] = i
	}
	out := make([]entry.Entry, 0, len(existing)+len(imported))
	for _, e := range existing {
		if _, dup := byID[e.ID]; dup && e.ID != "" {
			continue
		}
		out = append(out, e)
	}
	out = append(out, imported...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return entry.Clone(out)
}

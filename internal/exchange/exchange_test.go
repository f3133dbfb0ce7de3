package exchange

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

var sample = []entry.Entry{
	{ID: "aaaa1111", Date: "2025-01-01", Text: "Slept badly.", Sentiment: -0.5, Themes: []string{"sleep"}},
	{ID: "bbbb2222", Date: "2025-01-03", Text: "Deep work then a walk.", Sentiment: 0.25, Themes: []string{"deep work", "walk"}},
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sample); err != nil {
		t.Fatal(err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, sample) {
		t.Errorf("got %+v", got)
	}

	buf.Reset()
	if err := WriteJSON(&buf, nil); err != nil || buf.String() != "[]\n" {
		t.Errorf("empty export = %q, %v", buf.String(), err)
	}
}

func TestMarkdownExportImport(t *testing.T) {
	dir := t.TempDir()
	n, err := WriteMarkdown(dir, sample)
	if err != nil || n != 2 {
		t.Fatalf("WriteMarkdown = %d, %v", n, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2025", "01", "03", "bbbb2222.md")); err != nil {
		t.Fatalf("expected dated layout: %v", err)
	}

	got, err := ReadMarkdown(dir)
	if err != nil {
		t.Fatalf("ReadMarkdown: %v", err)
	}
	if !reflect.DeepEqual(got, sample) {
		t.Errorf("got %+v\nwant %+v", got, sample)
	}
}

func TestUnmarshalAnalyzesMissingFields(t *testing.T) {
	doc := []byte("---\ndate: \"2025-02-01\"\ntags: [grateful]\n---\n\nA good run with friends.\n")
	e, err := Unmarshal(doc)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if entry.ValidateID(e.ID) != nil {
		t.Errorf("expected a generated ID, got %q", e.ID)
	}
	if e.Sentiment <= 0 {
		t.Errorf("sentiment = %v", e.Sentiment)
	}
	want := []string{"friends", "run", "grateful"}
	if !reflect.DeepEqual(e.Themes, want) {
		t.Errorf("themes = %v, want %v", e.Themes, want)
	}
}

func TestUnmarshalRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"bad date":   "---\ndate: yesterday\n---\n\ntext\n",
		"empty body": "---\ndate: \"2025-02-01\"\n---\n\n   \n",
	} {
		if _, err := Unmarshal([]byte(doc)); !errors.Is(err, ErrImport) {
			t.Errorf("%s: expected ErrImport, got %v", name, err)
		}
	}
}

func TestMerge(t *testing.T) {
	imported := []entry.Entry{
		{ID: "aaaa1111", Date: "2025-01-01", Text: "rewritten"},
		{ID: "cccc3333", Date: "2025-01-02", Text: "new"},
	}
	got := Merge(sample, imported)
	var ids []string
	for _, e := range got {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"aaaa1111", "cccc3333", "bbbb2222"}) {
		t.Errorf("ids = %v", ids)
	}
	if got[0].Text != "rewritten" {
		t.Errorf("imported entry did not replace existing: %+v", got[0])
	}
}

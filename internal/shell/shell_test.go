package shell

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
)

var day = time.Date(2025, 1, 20, 21, 0, 0, 0, time.Local)

func TestComputeCountsStreak(t *testing.T) {
	entries := []entry.Entry{
		{Date: "2025-01-17", Text: "a", Sentiment: -1},
		{Date: "2025-01-19", Text: "b", Sentiment: 0.5},
		{Date: "2025-01-20", Text: "c", Sentiment: 0.5},
	}
	c := Compute(entries, day)
	if !c.Today || c.Streak != 2 || c.Date != "2025-01-20" {
		t.Errorf("unexpected status %+v", c)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if got := ReadCache(dir); got != nil {
		t.Fatalf("expected no cache, got %+v", got)
	}
	want := &StatusCache{Today: true, Streak: 4, WeekAvg: 0.25, Date: "2025-01-20", UpdatedAt: day}
	if err := WriteCache(dir, want); err != nil {
		t.Fatalf("WriteCache: %v", err)
	}
	got := ReadCache(dir)
	if got == nil || got.Streak != 4 || !got.Today || !got.UpdatedAt.Equal(day) {
		t.Errorf("ReadCache = %+v", got)
	}
	if err := InvalidateCache(dir); err != nil {
		t.Fatalf("InvalidateCache: %v", err)
	}
	if err := InvalidateCache(dir); err != nil {
		t.Errorf("second InvalidateCache: %v", err)
	}
}

func TestAtDropsStreakOnNewDay(t *testing.T) {
	c := &StatusCache{Today: true, Streak: 4, WeekAvg: 0.3, Date: "2025-01-20"}
	if s := c.At(day); !s.Today || s.Streak != 4 {
		t.Errorf("same day status = %+v", s)
	}
	s := c.At(day.AddDate(0, 0, 1))
	if s.Today || s.Streak != 0 || s.Date != "2025-01-21" || s.WeekAvg != 0.3 {
		t.Errorf("next day status = %+v", s)
	}
	var none *StatusCache
	if s := none.At(day); s.Today || s.Streak != 0 {
		t.Errorf("nil cache status = %+v", s)
	}
}

func TestInitScripts(t *testing.T) {
	var bash, zsh, fish bytes.Buffer
	for sh, buf := range map[string]*bytes.Buffer{"bash": &bash, "zsh": &zsh, "fish": &fish} {
		if err := WriteInit(buf, sh); err != nil {
			t.Fatalf("WriteInit(%s): %v", sh, err)
		}
	}
	if !strings.Contains(bash.String(), "PROMPT_COMMAND") || !strings.Contains(bash.String(), "completion bash") {
		t.Errorf("bash script missing hook:\n%s", bash.String())
	}
	if !strings.Contains(zsh.String(), "add-zsh-hook precmd __reflectctl_prompt_hook") {
		t.Errorf("zsh script missing hook:\n%s", zsh.String())
	}
	if !strings.Contains(fish.String(), "--on-event fish_prompt") {
		t.Errorf("fish script missing hook:\n%s", fish.String())
	}
}

func TestInitUnsupportedShell(t *testing.T) {
	err := WriteInit(&bytes.Buffer{}, "tcsh")
	if err == nil || !strings.Contains(err.Error(), "[bash fish zsh]") {
		t.Errorf("unexpected error %v", err)
	}
}

package app

import (
	"errors"
	"reflect"
	"testing"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/reflection"
)

func unlocked(t *testing.T, entries ...entry.Entry) State {
	t.Helper()
	s, _ := Reduce(Initial(), Unlocked{Entries: entries, Goals: []string{"sleep"}})
	if s.Locked {
		t.Fatal("still locked")
	}
	return s
}

func effectTypes(effects []Effect) []string {
	out := make([]string, len(effects))
	for i, e := range effects {
		out[i] = reflect.TypeOf(e).Name()
	}
	return out
}

func TestLockedIgnoresEvents(t *testing.T) {
	s := Initial()
	next, fx := Reduce(s, EntrySubmitted{Entry: entry.Entry{Date: "2025-01-01", Text: "x"}})
	if len(fx) != 0 || len(next.Entries) != 0 {
		t.Errorf("locked state accepted an entry: %+v %v", next, fx)
	}
	next, _ = Reduce(s, UnlockFailed{Err: errors.New("wrong")})
	if !next.Locked || next.Err == "" {
		t.Errorf("state = %+v", next)
	}
}

func TestUnlockedFetchesPromptAndReflection(t *testing.T) {
	s, fx := Reduce(Initial(), Unlocked{Entries: []entry.Entry{{Date: "2025-01-01", Text: "a"}}})
	if got := effectTypes(fx); !reflect.DeepEqual(got, []string{"FetchPrompt", "FetchReflection"}) {
		t.Errorf("effects = %v", got)
	}
	if !s.Loading.Prompt || !s.Loading.Reflection || len(s.Goals) != 0 {
		t.Errorf("state = %+v", s)
	}
}

func TestEntrySubmittedPersistsExplicitly(t *testing.T) {
	s := unlocked(t)
	e := entry.Entry{ID: "abcd1234", Date: "2025-01-02", Text: "walk", Themes: []string{"walk"}}
	s, fx := Reduce(s, EntrySubmitted{Entry: e})
	want := []string{"PersistEntries", "IndexEntry", "FetchPrompt", "FetchReflection"}
	if got := effectTypes(fx); !reflect.DeepEqual(got, want) {
		t.Fatalf("effects = %v", got)
	}
	persist := fx[0].(PersistEntries)
	if len(persist.Entries) != 1 || persist.Entries[0].ID != "abcd1234" {
		t.Errorf("persisted %+v", persist.Entries)
	}
	if len(s.Entries) != 1 {
		t.Errorf("entries = %+v", s.Entries)
	}
}

func TestEntrySubmittedOutOfOrder(t *testing.T) {
	s := unlocked(t, entry.Entry{Date: "2025-01-05", Text: "later"})
	s, fx := Reduce(s, EntrySubmitted{Entry: entry.Entry{Date: "2025-01-01", Text: "earlier"}})
	if len(fx) != 0 || len(s.Entries) != 1 || s.Err == "" {
		t.Errorf("state = %+v effects = %v", s, fx)
	}
}

func TestStalePromptIsDiscarded(t *testing.T) {
	s := unlocked(t)
	s, first := Reduce(s, PromptRequested{})
	s, second := Reduce(s, PromptRequested{})
	oldToken := first[0].(FetchPrompt).Token
	newToken := second[0].(FetchPrompt).Token

	s, _ = Reduce(s, PromptLoaded{Token: newToken, Prompt: "fresh", Source: reflection.SourceOpenAI})
	s, _ = Reduce(s, PromptLoaded{Token: oldToken, Prompt: "stale", Source: reflection.SourceOpenAI})
	if s.Prompt != "fresh" || s.Loading.Prompt {
		t.Errorf("state = %+v", s)
	}
}

func TestStaleReflectionAfterGoalsChange(t *testing.T) {
	s := unlocked(t, entry.Entry{Date: "2025-01-01", Text: "a"})
	stale := s.ReflectionToken()
	s, fx := Reduce(s, GoalsSaved{Goals: []string{"run"}})
	if _, ok := fx[0].(SaveGoals); !ok {
		t.Fatalf("first effect = %T", fx[0])
	}

	s, _ = Reduce(s, ReflectionLoaded{Token: stale, Reflection: entry.MonthlyReflection{Summary: "old goals"}})
	if s.Reflection != nil || !s.Loading.Reflection {
		t.Fatalf("stale reflection applied: %+v", s.Reflection)
	}
	s, _ = Reduce(s, ReflectionLoaded{Token: s.ReflectionToken(), Reflection: entry.MonthlyReflection{Summary: "new goals"}})
	if s.Reflection == nil || s.Reflection.Summary != "new goals" {
		t.Errorf("reflection = %+v", s.Reflection)
	}
}

func TestLockWipesSecretAndDropsLateResults(t *testing.T) {
	s := unlocked(t, entry.Entry{Date: "2025-01-01", Text: "secret"})
	token := s.PromptToken()
	s, fx := Reduce(s, Locked{})
	if !s.Locked || len(s.Entries) != 0 {
		t.Errorf("state = %+v", s)
	}
	if got := effectTypes(fx); !reflect.DeepEqual(got, []string{"WipeSecret"}) {
		t.Errorf("effects = %v", got)
	}

	s, _ = Reduce(s, Unlocked{})
	s, _ = Reduce(s, PromptLoaded{Token: token, Prompt: "from the old session"})
	if s.Prompt != "" {
		t.Errorf("late prompt applied after relock: %q", s.Prompt)
	}
}

func TestSeededPersistsAndIndexes(t *testing.T) {
	s := unlocked(t)
	seed := []entry.Entry{{ID: "a", Date: "2025-01-01"}, {ID: "b", Date: "2025-01-02"}}
	s, fx := Reduce(s, Seeded{Entries: seed})
	want := []string{"PersistEntries", "IndexEntry", "IndexEntry", "FetchPrompt", "FetchReflection"}
	if got := effectTypes(fx); !reflect.DeepEqual(got, want) {
		t.Errorf("effects = %v", got)
	}
	seed[0].Text = "mutated"
	if s.Entries[0].Text != "" {
		t.Error("state shares the caller's slice")
	}
}

func TestRAGToggled(t *testing.T) {
	s := unlocked(t)
	s, fx := Reduce(s, RAGToggled{})
	if !s.RAG || !fx[0].(FetchPrompt).RAG || !fx[1].(FetchReflection).RAG {
		t.Errorf("state = %+v effects = %+v", s, fx)
	}
}

func TestPersistFailedRestoresEntries(t *testing.T) {
	kept := entry.Entry{ID: "aaaa0001", Date: "2025-01-01", Text: "kept", Themes: []string{}}
	s := unlocked(t, kept)
	s, fx := Reduce(s, EntrySubmitted{Entry: entry.Entry{ID: "aaaa0002", Date: "2025-01-02", Text: "lost", Themes: []string{}}})
	persist := fx[0].(PersistEntries)
	if len(persist.Previous) != 1 || persist.Previous[0].ID != "aaaa0001" {
		t.Fatalf("previous = %+v", persist.Previous)
	}

	s, fx = Reduce(s, PersistFailed{Err: errors.New("disk full"), Previous: persist.Previous})
	if len(s.Entries) != 1 || s.Entries[0].ID != "aaaa0001" || s.Err != "disk full" {
		t.Errorf("state = %+v", s)
	}
	if got := effectTypes(fx); !reflect.DeepEqual(got, []string{"FetchPrompt", "FetchReflection"}) {
		t.Fatalf("effects = %v", got)
	}
	if n := len(fx[0].(FetchPrompt).Entries); n != 1 {
		t.Errorf("prompt refetched with %d entries", n)
	}
}

func TestEffectFailed(t *testing.T) {
	s, _ := Reduce(unlocked(t), EffectFailed{Err: errors.New("disk full")})
	if s.Err != "disk full" {
		t.Errorf("Err = %q", s.Err)
	}
}

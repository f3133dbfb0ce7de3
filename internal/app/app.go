// Package app holds the application state of the journal UI and the single
// function that advances it. Reduce is pure: storage, network and secret
// handling happen only through the effects it returns.
package app

import (
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/reflection"
)

// Loading flags the fetches in flight.
type Loading struct {
	Prompt     bool
	Reflection bool
}

// State is everything the UI renders.
type State struct {
	Locked           bool
	Entries          []entry.Entry
	Goals            []string
	Prompt           string
	PromptSource     reflection.Source
	Reflection       *entry.MonthlyReflection
	ReflectionSource reflection.Source
	Loading          Loading
	// RAG selects the retrieval-augmented service endpoints.
	RAG bool
	Err string

	promptToken     uint64
	reflectionToken uint64
}

// Initial is the locked start state.
func Initial() State {
	return State{Locked: true, Entries: []entry.Entry{}, Goals: []string{}}
}

// PromptToken is the token the next PromptLoaded must carry to be applied.
func (s State) PromptToken() uint64 { return s.promptToken }

// ReflectionToken is the token the next ReflectionLoaded must carry to be applied.
func (s State) ReflectionToken() uint64 { return s.reflectionToken }

// Event is an input to Reduce.
type Event interface{ event() }

// Unlocked reports a successful unlock with the decrypted journal.
type Unlocked struct {
	Entries []entry.Entry
	Goals   []string
}

// UnlockFailed reports a wrong passphrase or unreadable journal.
type UnlockFailed struct{ Err error }

// Locked asks to end the session.
type Locked struct{}

// EntrySubmitted adds an analyzed entry.
type EntrySubmitted struct{ Entry entry.Entry }

// GoalsSaved replaces the goals.
type GoalsSaved struct{ Goals []string }

// Seeded replaces the journal with demo entries.
type Seeded struct{ Entries []entry.Entry }

// PromptRequested asks for a fresh daily prompt.
type PromptRequested struct{}

// PromptLoaded delivers the result of a FetchPrompt.
type PromptLoaded struct {
	Token  uint64
	Prompt string
	Source reflection.Source
}

// ReflectionRequested asks for a fresh monthly reflection.
type ReflectionRequested struct{}

// ReflectionLoaded delivers the result of a FetchReflection.
type ReflectionLoaded struct {
	Token      uint64
	Reflection entry.MonthlyReflection
	Source     reflection.Source
}

// EffectFailed reports that an effect could not be carried out.
type EffectFailed struct{ Err error }

// PersistFailed reports that a PersistEntries effect failed. Previous is the
// list from that effect and becomes the state again.
type PersistFailed struct {
	Err      error
	Previous []entry.Entry
}

// RAGToggled switches between the plain and retrieval-augmented endpoints.
type RAGToggled struct{}

func (Unlocked) event()            {}
func (UnlockFailed) event()        {}
func (Locked) event()              {}
func (EntrySubmitted) event()      {}
func (GoalsSaved) event()          {}
func (Seeded) event()              {}
func (PromptRequested) event()     {}
func (PromptLoaded) event()        {}
func (ReflectionRequested) event() {}
func (ReflectionLoaded) event()    {}
func (EffectFailed) event()        {}
func (PersistFailed) event()       {}
func (RAGToggled) event()          {}

// Effect is work Reduce asks the caller to perform.
type Effect interface{ effect() }

// PersistEntries encrypts and stores the full entry list. Previous is the
// list in effect before the change, restored if storing fails.
type PersistEntries struct {
	Entries  []entry.Entry
	Previous []entry.Entry
}

// SaveGoals stores the goal preferences.
type SaveGoals struct{ Goals []string }

// FetchPrompt requests a daily prompt. The result must come back as a
// PromptLoaded carrying Token.
type FetchPrompt struct {
	Token   uint64
	Goals   []string
	Entries []entry.Entry
	RAG     bool
}

// FetchReflection requests the monthly reflection. The result must come back
// as a ReflectionLoaded carrying Token.
type FetchReflection struct {
	Token   uint64
	Goals   []string
	Entries []entry.Entry
	RAG     bool
}

// IndexEntry sends one entry to the retrieval index. Its outcome is not reported.
type IndexEntry struct{ Entry entry.Entry }

// WipeSecret clears the session passphrase.
type WipeSecret struct{}

func (PersistEntries) effect()  {}
func (SaveGoals) effect()       {}
func (FetchPrompt) effect()     {}
func (FetchReflection) effect() {}
func (IndexEntry) effect()      {}
func (WipeSecret) effect()      {}

// Reduce applies ev to s and returns the next state with the effects to run.
// While locked only Unlocked and UnlockFailed have any effect.
func Reduce(s State, ev Event) (State, []Effect) {
	if s.Locked {
		switch ev := ev.(type) {
		case Unlocked:
			next := Initial()
			next.Locked = false
			next.RAG = s.RAG
			next.promptToken, next.reflectionToken = s.promptToken, s.reflectionToken
			next.Entries = entry.Clone(ev.Entries)
			if ev.Goals != nil {
				next.Goals = append([]string{}, ev.Goals...)
			}
			return refresh(next, nil)
		case UnlockFailed:
			s.Err = "Could not unlock. Check your passphrase."
			return s, nil
		}
		return s, nil
	}

	switch ev := ev.(type) {
	case Locked:
		next := Initial()
		next.RAG = s.RAG
		// Tokens keep counting so late results from this session are dropped.
		next.promptToken, next.reflectionToken = s.promptToken+1, s.reflectionToken+1
		return next, []Effect{WipeSecret{}}

	case EntrySubmitted:
		entries, err := entry.Append(s.Entries, ev.Entry)
		if err != nil {
			s.Err = err.Error()
			return s, nil
		}
		previous := entry.Clone(s.Entries)
		s.Entries = entries
		s.Err = ""
		return refresh(s, []Effect{
			PersistEntries{Entries: entry.Clone(entries), Previous: previous},
			IndexEntry{Entry: ev.Entry},
		})

	case GoalsSaved:
		s.Goals = append([]string{}, ev.Goals...)
		s.Err = ""
		return refresh(s, []Effect{SaveGoals{Goals: append([]string{}, s.Goals...)}})

	case Seeded:
		previous := entry.Clone(s.Entries)
		s.Entries = entry.Clone(ev.Entries)
		s.Err = ""
		effects := []Effect{PersistEntries{Entries: entry.Clone(s.Entries), Previous: previous}}
		for _, e := range s.Entries {
			effects = append(effects, IndexEntry{Entry: e})
		}
		return refresh(s, effects)

	case RAGToggled:
		s.RAG = !s.RAG
		return refresh(s, nil)

	case PromptRequested:
		var fx Effect
		s, fx = requestPrompt(s)
		return s, []Effect{fx}

	case ReflectionRequested:
		var fx Effect
		s, fx = requestReflection(s)
		return s, []Effect{fx}

	case PromptLoaded:
		if ev.Token != s.promptToken {
			return s, nil
		}
		s.Prompt, s.PromptSource = ev.Prompt, ev.Source
		s.Loading.Prompt = false
		return s, nil

	case ReflectionLoaded:
		if ev.Token != s.reflectionToken {
			return s, nil
		}
		r := ev.Reflection
		s.Reflection, s.ReflectionSource = &r, ev.Source
		s.Loading.Reflection = false
		return s, nil

	case EffectFailed:
		if ev.Err != nil {
			s.Err = ev.Err.Error()
		}
		return s, nil

	case PersistFailed:
		s.Entries = entry.Clone(ev.Previous)
		if ev.Err != nil {
			s.Err = ev.Err.Error()
		}
		return refresh(s, nil)
	}
	return s, nil
}

// refresh appends fetches for a new prompt and reflection to effects.
func refresh(s State, effects []Effect) (State, []Effect) {
	s, p := requestPrompt(s)
	s, r := requestReflection(s)
	return s, append(effects, p, r)
}

func requestPrompt(s State) (State, Effect) {
	s.promptToken++
	s.Loading.Prompt = true
	return s, FetchPrompt{
		Token:   s.promptToken,
		Goals:   append([]string{}, s.Goals...),
		Entries: entry.Clone(s.Entries),
		RAG:     s.RAG,
	}
}

func requestReflection(s State) (State, Effect) {
	s.reflectionToken++
	s.Loading.Reflection = true
	return s, FetchReflection{
		Token:   s.reflectionToken,
		Goals:   append([]string{}, s.Goals...),
		Entries: entry.Clone(s.Entries),
		RAG:     s.RAG,
	}
}

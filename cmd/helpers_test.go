package cmd

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chris-regnier/reflectctl/internal/config"
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/journal"
	"github.com/chris-regnier/reflectctl/internal/storage/file"
	"github.com/chris-regnier/reflectctl/internal/vault"
)

const testPass = "hunter22"

var fixedNow = time.Date(2025, 1, 20, 9, 0, 0, 0, time.Local)

var fastParams = vault.Params{Time: 1, Memory: 64, Threads: 1}

func setupTestEnv(t *testing.T) {
	t.Helper()
	appConfig = &config.Config{DataDir: t.TempDir()}
	jsonOutput = false
	prev := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		now = prev
		jsonOutput = false
	})
}

func setupTestStore(t *testing.T, entries ...entry.Entry) *journal.Store {
	t.Helper()
	kv, err := file.New(t.TempDir())
	if err != nil {
		t.Fatalf("creating test storage: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	store := journal.New(kv, journal.WithParams(fastParams))
	if _, err := store.Unlock(context.Background(), testPass); err != nil {
		t.Fatalf("unlocking test journal: %v", err)
	}
	if len(entries) > 0 {
		if err := store.Persist(context.Background(), entries); err != nil {
			t.Fatalf("seeding test journal: %v", err)
		}
	}
	return store
}

type recordingIndexer struct {
	mu      sync.Mutex
	entries []entry.Entry
	err     error
}

func (r *recordingIndexer) IndexEntry(_ context.Context, e entry.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func sampleEntries() []entry.Entry {
	return []entry.Entry{
		{ID: "aaaa0001", Date: "2024-12-30", Text: "Quiet end of the year.", Sentiment: 0.1, Themes: []string{"calm"}},
		{ID: "aaaa0002", Date: "2025-01-18", Text: "Poor sleep, anxious all day.", Sentiment: -0.5, Themes: []string{"sleep", "anxious"}},
		{ID: "aaaa0003", Date: "2025-01-19", Text: "Long walk with friends.", Sentiment: 0.5, Themes: []string{"friends", "walk"}},
		{ID: "aaaa0004", Date: "2025-01-20", Text: "Deep work in the morning.", Sentiment: 0.25, Themes: []string{"work", "deep work"}},
	}
}

package ui

import (
	"context"
	"time"

	"github.com/chris-regnier/reflectctl/internal/client"
	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/journal"
	"github.com/chris-regnier/reflectctl/internal/service"
)

// Backend abstracts the journal store and the remote service for the TUI.
type Backend interface {
	// Unlock decrypts the journal and loads the goals.
	Unlock(ctx context.Context, passphrase string) ([]entry.Entry, []string, error)
	Persist(ctx context.Context, entries []entry.Entry) error
	SaveGoals(ctx context.Context, goals []string) error
	Lock()

	// Prompt and Reflection always answer, falling back locally.
	Prompt(ctx context.Context, goals []string, entries []entry.Entry, rag bool) service.PromptResponse
	Reflection(ctx context.Context, goals []string, entries []entry.Entry, rag bool) service.ReflectionResponse
	IndexEntry(ctx context.Context, e entry.Entry) error

	Now() time.Time
}

// JournalBackend is the Backend over an encrypted store and a service client.
type JournalBackend struct {
	Store  *journal.Store
	Client *client.Client
	Clock  func() time.Time
}

func (b *JournalBackend) Unlock(ctx context.Context, passphrase string) ([]entry.Entry, []string, error) {
	entries, err := b.Store.Unlock(ctx, passphrase)
	if err != nil {
		return nil, nil, err
	}
	goals, err := b.Store.LoadGoals(ctx)
	if err != nil {
		b.Store.Lock()
		return nil, nil, err
	}
	return entries, goals, nil
}

func (b *JournalBackend) Persist(ctx context.Context, entries []entry.Entry) error {
	return b.Store.Persist(ctx, entries)
}

func (b *JournalBackend) SaveGoals(ctx context.Context, goals []string) error {
	return b.Store.SaveGoals(ctx, goals)
}

func (b *JournalBackend) Lock() { b.Store.Lock() }

func (b *JournalBackend) Prompt(ctx context.Context, goals []string, entries []entry.Entry, rag bool) service.PromptResponse {
	return b.Client.PromptOrLocal(ctx, goals, entries, rag)
}

func (b *JournalBackend) Reflection(ctx context.Context, goals []string, entries []entry.Entry, rag bool) service.ReflectionResponse {
	return b.Client.ReflectionOrLocal(ctx, goals, entries, b.Now(), rag)
}

func (b *JournalBackend) IndexEntry(ctx context.Context, e entry.Entry) error {
	return b.Client.IndexEntry(ctx, e)
}

func (b *JournalBackend) Now() time.Time {
	if b.Clock != nil {
		return b.Clock()
	}
	return time.Now()
}

// Package journal is the encrypted local store: the full entry list lives in
// one ciphertext blob, goals live in a plaintext preferences record.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/storage"
	"github.com/chris-regnier/reflectctl/internal/vault"
)

// Storage keys.
const (
	EntriesKey = "journal.enc.v1"
	PrefsKey   = "journal.prefs.v1"
)

// MinPassphraseLen is the minimum passphrase length in characters.
const MinPassphraseLen = 6

var (
	ErrLocked             = errors.New("journal is locked")
	ErrCorrupt            = errors.New("journal data is corrupted")
	ErrPassphraseTooShort = fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLen)
)

// Store holds the decrypted session state of one journal.
type Store struct {
	kv     storage.KV
	params vault.Params
	logger *zap.Logger

	mu      sync.Mutex
	secret  *vault.Secret
	entries []entry.Entry
}

// Option configures a Store.
type Option func(*Store)

// WithParams overrides the KDF parameters used when sealing.
func WithParams(p vault.Params) Option {
	return func(s *Store) { s.params = p }
}

// WithLogger sets the logger. Passphrases and entry text are never logged.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a locked store over kv.
func New(kv storage.KV, opts ...Option) *Store {
	s := &Store{kv: kv, params: vault.DefaultParams, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Unlock decrypts the stored entries with passphrase. A journal with no blob
// unlocks to an empty list. On failure the store stays locked and the error
// wraps vault.ErrWrongPassphrase or ErrCorrupt.
func (s *Store) Unlock(ctx context.Context, passphrase string) ([]entry.Entry, error) {
	if utf8.RuneCountInString(passphrase) < MinPassphraseLen {
		return nil, ErrPassphraseTooShort
	}

	blob, err := s.kv.Get(ctx, EntriesKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	entries := []entry.Entry{}
	if err == nil {
		plain, err := vault.Open(string(blob), []byte(passphrase))
		if err != nil {
			if errors.Is(err, vault.ErrWrongPassphrase) {
				return nil, fmt.Errorf("could not unlock: %w", err)
			}
			return nil, fmt.Errorf("could not unlock: %w: %v", ErrCorrupt, err)
		}
		defer vault.Wipe(plain)
		if err := json.Unmarshal(plain, &entries); err != nil {
			return nil, fmt.Errorf("could not unlock: %w: %v", ErrCorrupt, err)
		}
		if entries == nil {
			entries = []entry.Entry{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret.Wipe()
	s.secret = vault.NewSecret(passphrase)
	s.entries = entries
	s.logger.Debug("journal unlocked", zap.Int("entries", len(entries)))
	return entry.Clone(entries), nil
}

// Unlocked reports whether a passphrase is held.
func (s *Store) Unlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.secret.Empty()
}

// Entries returns a copy of the session entry list.
func (s *Store) Entries() ([]entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret.Empty() {
		return nil, ErrLocked
	}
	return entry.Clone(s.entries), nil
}

// Persist encrypts the full list and overwrites the stored blob.
// The session list is replaced only when the write succeeds.
func (s *Store) Persist(ctx context.Context, entries []entry.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, entries)
}

func (s *Store) persistLocked(ctx context.Context, entries []entry.Entry) error {
	if s.secret.Empty() {
		return ErrLocked
	}
	if entries == nil {
		entries = []entry.Entry{}
	}
	plain, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding journal: %w", err)
	}
	defer vault.Wipe(plain)

	pass := s.secret.Bytes()
	defer vault.Wipe(pass)
	blob, err := vault.Seal(plain, pass, s.params)
	if err != nil {
		return fmt.Errorf("encrypting journal: %w", err)
	}
	if err := s.kv.Put(ctx, EntriesKey, []byte(blob)); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	s.entries = entry.Clone(entries)
	s.logger.Debug("journal persisted", zap.Int("entries", len(entries)), zap.Int("bytes", len(blob)))
	return nil
}

// Add appends e to the session list and persists the result.
// An entry without an ID gets a fresh one.
func (s *Store) Add(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	if err := entry.ValidateText(e.Text); err != nil {
		return entry.Entry{}, err
	}
	if err := entry.ValidateDate(e.Date); err != nil {
		return entry.Entry{}, err
	}
	if e.ID == "" {
		id, err := entry.NewID()
		if err != nil {
			return entry.Entry{}, fmt.Errorf("generating ID: %w", err)
		}
		e.ID = id
	}
	e.Themes = entry.MergeThemes(e.Themes)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret.Empty() {
		return entry.Entry{}, ErrLocked
	}
	next, err := entry.Append(s.entries, e)
	if err != nil {
		return entry.Entry{}, err
	}
	if err := s.persistLocked(ctx, next); err != nil {
		return entry.Entry{}, err
	}
	return e, nil
}

// Reset deletes the stored blob and clears the session list. There is no recovery.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.secret.Empty() {
		return ErrLocked
	}
	if err := s.kv.Delete(ctx, EntriesKey); err != nil {
		return fmt.Errorf("deleting journal: %w", err)
	}
	s.entries = []entry.Entry{}
	return nil
}

// Lock wipes the held passphrase and drops the decrypted entries.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secret.Wipe()
	s.secret = nil
	s.entries = nil
	s.logger.Debug("journal locked")
}

// LoadGoals reads the plaintext goals. Missing or unreadable preferences yield no goals.
func (s *Store) LoadGoals(ctx context.Context) ([]string, error) {
	data, err := s.kv.Get(ctx, PrefsKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []string{}, nil
		}
		return []string{}, fmt.Errorf("reading preferences: %w", err)
	}
	var goals []string
	if err := json.Unmarshal(data, &goals); err != nil {
		s.logger.Warn("ignoring unreadable preferences", zap.Error(err))
		return []string{}, nil
	}
	return cleanGoals(goals), nil
}

// SaveGoals writes goals as plaintext preferences.
func (s *Store) SaveGoals(ctx context.Context, goals []string) error {
	if goals == nil {
		goals = []string{}
	}
	data, err := json.Marshal(goals)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	if err := s.kv.Put(ctx, PrefsKey, data); err != nil {
		return fmt.Errorf("writing preferences: %w", err)
	}
	return nil
}

func cleanGoals(goals []string) []string {
	out := []string{}
	for _, g := range goals {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

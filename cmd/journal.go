package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/chris-regnier/reflectctl/internal/client"
	"github.com/chris-regnier/reflectctl/internal/config"
	"github.com/chris-regnier/reflectctl/internal/journal"
	"github.com/chris-regnier/reflectctl/internal/storage"
	"github.com/chris-regnier/reflectctl/internal/storage/file"
	"github.com/chris-regnier/reflectctl/internal/storage/redis"
	"github.com/chris-regnier/reflectctl/internal/storage/s3"
	"github.com/chris-regnier/reflectctl/internal/storage/sqlite"
	"github.com/chris-regnier/reflectctl/internal/vault"
)

// PassphraseEnv supplies the passphrase without a prompt.
const PassphraseEnv = "REFLECT_PASSPHRASE"

// now is the clock used for entry dates.
var now = time.Now

// openStorage opens the configured key/value backend.
func openStorage(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage {
	case "file", "":
		kv, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing file storage: %w", err)
		}
		return kv, nil
	case "sqlite":
		kv, err := sqlite.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initializing sqlite storage: %w", err)
		}
		return kv, nil
	case "redis":
		kv, err := redis.New(ctx, cfg.RedisURL, "reflectctl:")
		if err != nil {
			return nil, fmt.Errorf("initializing redis storage: %w", err)
		}
		return kv, nil
	case "s3":
		kv, err := s3.New(ctx, s3.Options{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing s3 storage: %w", err)
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage)
	}
}

func newJournal(kv storage.KV) *journal.Store {
	return journal.New(kv, journal.WithLogger(logger))
}

func newClient() *client.Client {
	return client.New(appConfig.ServiceURL)
}

// readPassphrase takes the passphrase from the environment or prompts for it
// on the terminal without echo.
func readPassphrase() (string, error) {
	if p := os.Getenv(PassphraseEnv); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to prompt for a passphrase; set %s", PassphraseEnv)
	}
	fmt.Fprint(os.Stderr, "Passphrase: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	defer vault.Wipe(b)
	return strings.TrimRight(string(b), "\r\n"), nil
}

// session is an unlocked journal opened for one command.
type session struct {
	kv    storage.KV
	store *journal.Store
}

// openSession opens storage and unlocks the journal.
func openSession(ctx context.Context) (*session, error) {
	kv, err := openStorage(ctx, appConfig)
	if err != nil {
		return nil, err
	}
	pass, err := readPassphrase()
	if err != nil {
		kv.Close()
		return nil, err
	}
	s, err := unlockSession(ctx, kv, pass)
	if err != nil {
		kv.Close()
		return nil, err
	}
	return s, nil
}

func unlockSession(ctx context.Context, kv storage.KV, pass string) (*session, error) {
	store := newJournal(kv)
	if _, err := store.Unlock(ctx, pass); err != nil {
		if errors.Is(err, vault.ErrWrongPassphrase) {
			return nil, errors.New("could not unlock: wrong passphrase")
		}
		return nil, err
	}
	return &session{kv: kv, store: store}, nil
}

// Close refreshes the prompt status, locks the journal and releases storage.
func (s *session) Close() {
	refreshStatus(s.store)
	s.store.Lock()
	s.kv.Close()
}

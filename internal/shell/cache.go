package shell

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/chris-regnier/reflectctl/internal/entry"
	"github.com/chris-regnier/reflectctl/internal/insights"
)

const cacheFileName = ".status-cache"

// StatusCache is the journal status shown in the shell prompt. It holds no
// entry content and is the only journal-derived data kept unencrypted.
type StatusCache struct {
	Today     bool      `json:"today"`
	Streak    int       `json:"streak"`
	WeekAvg   float64   `json:"week_avg"`
	Date      string    `json:"date"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CachePath returns the full path to the status cache file.
func CachePath(dataDir string) string {
	return filepath.Join(dataDir, cacheFileName)
}

// Compute derives the status of entries at now.
func Compute(entries []entry.Entry, now time.Time) *StatusCache {
	today, streak := insights.Streak(entries, now)
	return &StatusCache{
		Today:     today,
		Streak:    streak,
		WeekAvg:   insights.SummarizeWeek(entries, now).Avg,
		Date:      entry.Today(now),
		UpdatedAt: now,
	}
}

// ReadCache reads the status cache from disk. Returns nil if the cache
// does not exist or cannot be parsed.
func ReadCache(dataDir string) *StatusCache {
	data, err := os.ReadFile(CachePath(dataDir))
	if err != nil {
		return nil
	}
	var c StatusCache
	if err := json.Unmarshal(data, &c); err != nil {
		return nil
	}
	return &c
}

// WriteCache writes the status cache to disk.
func WriteCache(dataDir string, c *StatusCache) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return err
	}
	return os.WriteFile(CachePath(dataDir), data, 0600)
}

// At returns the status as seen at now. A cache written on an earlier day
// reports no entry today and a broken streak, since the journal cannot be
// read without the passphrase.
func (c *StatusCache) At(now time.Time) StatusCache {
	if c == nil {
		return StatusCache{Date: entry.Today(now)}
	}
	if c.Date != entry.Today(now) {
		return StatusCache{Date: entry.Today(now), WeekAvg: c.WeekAvg, UpdatedAt: c.UpdatedAt}
	}
	return *c
}

// InvalidateCache removes the status cache file.
func InvalidateCache(dataDir string) error {
	path := CachePath(dataDir)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

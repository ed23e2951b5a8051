// Package modelcache keeps the list of selectable models warm so the
// settings UI never blocks on, or breaks over, a model catalog fetch.
package modelcache

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mwkelly/redraft/internal/claude"
)

const (
	// ttl is how long a populated cache is considered fresh.
	ttl = 24 * time.Hour

	// noticeCooldown caps how often refresh failures are surfaced to
	// the user. Failures inside the window are logged but not shown.
	noticeCooldown = 60 * time.Second
)

// refreshFailedNotice is the user-visible message for a failed fetch.
const refreshFailedNotice = "Model list refresh failed; using the built-in model list."

// fallbackModels are the identifiers offered when the live catalog is
// unreachable or no credential is configured. Kept current by hand.
var fallbackModels = []string{
	"claude-sonnet-4-5-20250929",
	"claude-opus-4-1-20250805",
	"claude-haiku-4-5-20251001",
	"claude-3-7-sonnet-20250219",
	"claude-3-5-sonnet-20241022",
}

// Fetcher retrieves the live model catalog from the provider.
// *claude.Client satisfies it.
type Fetcher interface {
	FetchModels(ctx context.Context) ([]claude.ModelInfo, error)
}

// Notifier surfaces a short, user-visible status notice.
type Notifier interface {
	Notify(message string)
}

// nopNotifier drops notices. Used when the host passes nil.
type nopNotifier struct{}

func (nopNotifier) Notify(string) {}

// Snapshot is the persistable state of the cache: the model list plus
// the time it was populated. The host saves and restores it alongside
// the user settings.
type Snapshot struct {
	Models    []claude.ModelInfo `json:"models"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// IsZero reports whether the snapshot has never been populated.
func (s Snapshot) IsZero() bool {
	return s.FetchedAt.IsZero() && len(s.Models) == 0
}

// Cache answers "which models can the user pick" without making the
// caller think about staleness, credentials, or fetch failures. It is
// safe for concurrent use.
type Cache struct {
	fetcher       Fetcher
	notifier      Notifier
	hasCredential func() bool
	logger        *slog.Logger

	mu           sync.Mutex
	snapshot     Snapshot
	lastNoticeAt time.Time

	now func() time.Time
}

// New creates a Cache. fetcher must be non-nil. hasCredential reports
// whether an API key is currently configured; nil means never. A nil
// notifier drops notices and a nil logger discards logs.
func New(fetcher Fetcher, notifier Notifier, hasCredential func() bool, logger *slog.Logger) *Cache {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if hasCredential == nil {
		hasCredential = func() bool { return false }
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		fetcher:       fetcher,
		notifier:      notifier,
		hasCredential: hasCredential,
		logger:        logger,
		now:           time.Now,
	}
}

// Available returns the models to offer the user, sorted by display
// name. A fresh cache is served as-is; an absent or stale one triggers
// a refresh. The method never fails: refresh trouble degrades to the
// fallback list.
func (c *Cache) Available(ctx context.Context) []claude.ModelInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.snapshot.IsZero() && c.now().Sub(c.snapshot.FetchedAt) < ttl {
		return displayModels(c.snapshot.Models)
	}
	return c.refreshLocked(ctx)
}

// Refresh bypasses the freshness check and fetches now, replacing the
// cache wholesale. Like Available it never fails.
func (c *Cache) Refresh(ctx context.Context) []claude.ModelInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Snapshot returns a copy of the cache state for persistence.
func (c *Cache) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Models:    copyModels(c.snapshot.Models),
		FetchedAt: c.snapshot.FetchedAt,
	}
}

// Restore replaces the cache state, typically with a snapshot loaded
// from disk at startup.
func (c *Cache) Restore(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = Snapshot{
		Models:    copyModels(s.Models),
		FetchedAt: s.FetchedAt,
	}
}

// refreshLocked repopulates the snapshot. Callers hold c.mu.
//
// Without a credential the fallback list is converted into the cache
// with no network call and no notice. With one, a successful fetch
// replaces the cache wholesale; a failed fetch emits a throttled notice
// and converts the fallback list instead, so the caller always gets a
// usable list.
func (c *Cache) refreshLocked(ctx context.Context) []claude.ModelInfo {
	if !c.hasCredential() {
		c.logger.Debug("no api key configured, using fallback model list")
		c.snapshot = fallbackSnapshot(c.now())
		return displayModels(c.snapshot.Models)
	}

	models, err := c.fetcher.FetchModels(ctx)
	if err != nil {
		c.logger.Warn("model list refresh failed", "error", err)
		c.notifyThrottled(refreshFailedNotice)
		c.snapshot = fallbackSnapshot(c.now())
		return displayModels(c.snapshot.Models)
	}

	c.logger.Debug("model list refreshed", "models", len(models))
	c.snapshot = Snapshot{Models: copyModels(models), FetchedAt: c.now()}
	return displayModels(c.snapshot.Models)
}

// notifyThrottled forwards the message to the notifier at most once per
// cooldown window. Callers hold c.mu.
func (c *Cache) notifyThrottled(message string) {
	now := c.now()
	if !c.lastNoticeAt.IsZero() && now.Sub(c.lastNoticeAt) < noticeCooldown {
		return
	}
	c.lastNoticeAt = now
	c.notifier.Notify(message)
}

// fallbackSnapshot converts the static fallback list into cache state.
// Each identifier doubles as its own display name.
func fallbackSnapshot(now time.Time) Snapshot {
	models := make([]claude.ModelInfo, len(fallbackModels))
	for i, id := range fallbackModels {
		models[i] = claude.ModelInfo{ID: id, DisplayName: id, Type: "model"}
	}
	return Snapshot{Models: models, FetchedAt: now}
}

// displayModels returns a copy sorted by display name, case-insensitive.
func displayModels(models []claude.ModelInfo) []claude.ModelInfo {
	out := copyModels(models)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out
}

func copyModels(models []claude.ModelInfo) []claude.ModelInfo {
	if models == nil {
		return nil
	}
	out := make([]claude.ModelInfo, len(models))
	copy(out, models)
	return out
}

// Package cache implements the persistent translation cache: a
// backend-agnostic façade over pluggable storage engines with a
// confirmation-by-repetition admission policy.
package cache

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Kind identifies a cache storage backend.
type Kind string

const (
	// KindText stores entries in memory, persisted to a JSONL file.
	KindText Kind = "text"
	// KindSQLite stores entries in an embedded SQLite database.
	KindSQLite Kind = "sqlite"
	// KindMongoDB is reserved for a future backend.
	KindMongoDB Kind = "mongodb"
	// KindRedis is reserved for a future backend.
	KindRedis Kind = "redis"
)

// ParseKind resolves a configuration string to a backend kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case KindText:
		return KindText, nil
	case KindSQLite:
		return KindSQLite, nil
	case KindMongoDB:
		return KindMongoDB, nil
	case KindRedis:
		return KindRedis, nil
	}
	return "", fmt.Errorf("unknown cache backend %q", s)
}

// Entry is one cached translation. IDs are assigned at insertion and are
// monotonic within a backend instance; they are not stable across
// backends or migrations.
type Entry struct {
	ID             int64
	Hash           string
	FromLang       string
	ToLang         string
	SourceText     string
	TranslatedText string
	Count          int
	LastUsed       int64 // unix seconds
	CreatedAt      int64 // unix seconds
}

// Stats summarizes a backend's contents. Active counts entries whose
// confirmation count has reached the admission threshold; Expired counts
// entries older than the cleanup age.
type Stats struct {
	Total   int
	Active  int
	Expired int
}

// Backend is the storage contract every cache engine implements. The
// façade calls every method with its lock already held in the required
// mode; implementations must not take the façade lock themselves.
type Backend interface {
	// Lookup returns the entry for the (fromLang, toLang, text) triple,
	// or nil when absent. Implementations may touch LastUsed on a hit.
	Lookup(fromLang, toLang, text string) (*Entry, error)

	// Add inserts a fresh entry with Count = 1 and both timestamps set
	// to now. Adding a triple whose hash already exists fails.
	Add(fromLang, toLang, sourceText, translatedText string) error

	// UpdateCount increments the stored entry's confirmation count and
	// touches LastUsed, mirroring the new values into e.
	UpdateCount(e *Entry) error

	// UpdateTranslation replaces the stored translation, resets the
	// count to 1 and touches LastUsed, mirroring the new values into e.
	UpdateTranslation(e *Entry, translation string) error

	// Save flushes in-memory state to durable storage. Backends with
	// transparent durability treat this as a no-op.
	Save() error

	// Cleanup removes entries whose LastUsed is older than days days and
	// returns how many were removed.
	Cleanup(days int) (int, error)

	// Stats reports totals for the given threshold and age.
	Stats(threshold, days int) (Stats, error)

	// Iterate visits every entry in ascending id order. Returning an
	// error from fn stops the iteration and propagates the error.
	Iterate(fn func(*Entry) error) error

	// Remove deletes the entry with the given id, if present.
	Remove(id int64) error

	// Close releases all resources, flushing state first where needed.
	Close() error
}

// Options configures the cache factory.
type Options struct {
	Kind        Kind
	Path        string // JSONL file path or SQLite database path
	JournalMode string // SQLite only, default "WAL"
	Synchronous string // SQLite only, default "NORMAL"
	Logger      *zap.Logger
}

// Cache is the backend-agnostic façade. A single reader/writer lock
// serializes all access to the backend: Lookup, Save, Stats and ForEach
// take it shared, everything that mutates takes it exclusive.
type Cache struct {
	mu      sync.RWMutex
	backend Backend
	kind    Kind
	logger  *zap.Logger
}

// New builds a cache with the backend selected by opts.Kind. The
// reserved mongodb and redis kinds are not implemented; they fall back
// to the text backend with a warning.
func New(opts Options) (*Cache, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	kind := opts.Kind
	switch kind {
	case KindText, KindSQLite:
	case KindMongoDB, KindRedis:
		logger.Warn("cache backend not implemented, falling back to text",
			zap.String("requested", string(kind)))
		kind = KindText
	default:
		logger.Warn("unknown cache backend, falling back to text",
			zap.String("requested", string(kind)))
		kind = KindText
	}

	var (
		backend Backend
		err     error
	)
	switch kind {
	case KindSQLite:
		backend, err = NewSQLiteBackend(SQLiteOptions{
			Path:        opts.Path,
			JournalMode: opts.JournalMode,
			Synchronous: opts.Synchronous,
			Logger:      logger,
		})
	default:
		backend, err = NewTextBackend(opts.Path, logger)
	}
	if err != nil {
		return nil, err
	}

	return &Cache{backend: backend, kind: kind, logger: logger}, nil
}

// NewWithBackend wraps an already-constructed backend. Used by tests and
// the migration tool.
func NewWithBackend(kind Kind, backend Backend, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{backend: backend, kind: kind, logger: logger}
}

// Kind returns the active backend kind.
func (c *Cache) Kind() Kind {
	return c.kind
}

// Lookup returns a copy of the cached entry for the triple. The copy is
// safe to retain after the call; pass its address to UpdateCount or
// UpdateTranslation to mutate the stored entry.
func (c *Cache) Lookup(fromLang, toLang, text string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, err := c.backend.Lookup(fromLang, toLang, text)
	if err != nil {
		return Entry{}, false, err
	}
	if e == nil {
		return Entry{}, false, nil
	}
	return *e, true, nil
}

// Add inserts a fresh entry for the triple.
func (c *Cache) Add(fromLang, toLang, sourceText, translatedText string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Add(fromLang, toLang, sourceText, translatedText)
}

// UpdateCount records one more confirmation for the entry.
func (c *Cache) UpdateCount(e *Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.UpdateCount(e)
}

// UpdateTranslation replaces the entry's translation, resetting its
// confirmation count to 1.
func (c *Cache) UpdateTranslation(e *Entry, translation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.UpdateTranslation(e, translation)
}

// Reconcile folds a freshly obtained external translation into the cache
// under a single write acquisition: a missing entry is added, a matching
// translation is counted as a confirmation, a diverging one replaces the
// stored text and restarts confirmation.
func (c *Cache) Reconcile(fromLang, toLang, text, translation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, err := c.backend.Lookup(fromLang, toLang, text)
	if err != nil {
		return err
	}
	if e == nil {
		return c.backend.Add(fromLang, toLang, text, translation)
	}
	if e.TranslatedText == translation {
		return c.backend.UpdateCount(e)
	}
	return c.backend.UpdateTranslation(e, translation)
}

// Save flushes the backend to durable storage.
func (c *Cache) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend.Save()
}

// Cleanup removes entries unused for more than days days.
func (c *Cache) Cleanup(days int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Cleanup(days)
}

// Stats reports entry totals for the given threshold and age.
func (c *Cache) Stats(threshold, days int) (Stats, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend.Stats(threshold, days)
}

// ForEach visits a copy of every entry in ascending id order.
func (c *Cache) ForEach(fn func(Entry) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend.Iterate(func(e *Entry) error {
		return fn(*e)
	})
}

// Remove deletes the entry with the given id.
func (c *Cache) Remove(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Remove(id)
}

// RemovePair deletes every entry for the (fromLang, toLang) pair and
// returns how many were removed.
func (c *Cache) RemovePair(fromLang, toLang string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var ids []int64
	err := c.backend.Iterate(func(e *Entry) error {
		if e.FromLang == fromLang && e.ToLang == toLang {
			ids = append(ids, e.ID)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := c.backend.Remove(id); err != nil {
			return len(ids), err
		}
	}
	return len(ids), nil
}

// Close releases the backend, flushing state first where needed.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Close()
}

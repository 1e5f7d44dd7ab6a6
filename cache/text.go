package cache

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/transbasket"
)

const (
	textInitialCapacity = 100
	maxLineBytes        = 4 << 20
)

// textRecord is the JSONL wire form of an Entry.
type textRecord struct {
	ID        int64  `json:"id"`
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Count     int    `json:"count"`
	LastUsed  int64  `json:"last_used"`
	CreatedAt int64  `json:"created_at"`
}

// TextBackend keeps every entry in memory and persists the whole set to
// a JSONL file, one entry per line. Lookup is a linear hash scan; the
// backend suits modest caches where the simplicity of a flat file wins.
type TextBackend struct {
	entries []*Entry
	nextID  int64
	path    string
	logger  *zap.Logger
	now     func() time.Time
}

var _ Backend = (*TextBackend)(nil)

// NewTextBackend loads the JSONL file at path into memory. A missing
// file is a clean first run; malformed lines are skipped with a warning.
func NewTextBackend(path string, logger *zap.Logger) (*TextBackend, error) {
	if path == "" {
		return nil, &transbasket.CacheError{Message: "text backend requires a file path"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &TextBackend{
		entries: make([]*Entry, 0, textInitialCapacity),
		nextID:  1,
		path:    path,
		logger:  logger,
		now:     time.Now,
	}

	if err := b.load(); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *TextBackend) load() error {
	f, err := os.Open(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			b.logger.Debug("cache file not found, starting empty", zap.String("path", b.path))
			return nil
		}
		return &transbasket.CacheError{Message: "opening cache file", Cause: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	loaded, skipped := 0, 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec textRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			b.logger.Warn("skipping malformed cache line",
				zap.Int("line", lineNum), zap.Error(err))
			skipped++
			continue
		}
		if !validRecord(&rec) {
			b.logger.Warn("skipping invalid cache entry", zap.Int("line", lineNum))
			skipped++
			continue
		}

		b.entries = append(b.entries, &Entry{
			ID:             rec.ID,
			Hash:           rec.Hash,
			FromLang:       rec.From,
			ToLang:         rec.To,
			SourceText:     rec.Source,
			TranslatedText: rec.Target,
			Count:          rec.Count,
			LastUsed:       rec.LastUsed,
			CreatedAt:      rec.CreatedAt,
		})
		loaded++

		if rec.ID >= b.nextID {
			b.nextID = rec.ID + 1
		}
	}
	if err := scanner.Err(); err != nil {
		return &transbasket.CacheError{Message: "reading cache file", Cause: err}
	}

	b.logger.Info("loaded translation cache",
		zap.String("path", b.path), zap.Int("entries", loaded), zap.Int("skipped", skipped))
	return nil
}

func validRecord(rec *textRecord) bool {
	return rec.ID >= 1 &&
		len(rec.Hash) == transbasket.HashLen &&
		len(rec.From) == 3 &&
		len(rec.To) == 3 &&
		rec.Count >= 1 &&
		rec.LastUsed >= rec.CreatedAt
}

// Lookup scans for the triple's hash and touches LastUsed on a hit.
func (b *TextBackend) Lookup(fromLang, toLang, text string) (*Entry, error) {
	if fromLang == "" || toLang == "" || text == "" {
		return nil, &transbasket.CacheError{Message: "lookup requires non-empty languages and text"}
	}

	hash := transbasket.Hash(fromLang, toLang, text)
	for _, e := range b.entries {
		if e.Hash == hash {
			e.LastUsed = b.now().Unix()
			return e, nil
		}
	}
	return nil, nil
}

// Add appends a fresh entry with the next id.
func (b *TextBackend) Add(fromLang, toLang, sourceText, translatedText string) error {
	if fromLang == "" || toLang == "" || sourceText == "" || translatedText == "" {
		return &transbasket.CacheError{Message: "add requires non-empty fields"}
	}

	hash := transbasket.Hash(fromLang, toLang, sourceText)
	for _, e := range b.entries {
		if e.Hash == hash {
			return &transbasket.CacheError{Message: fmt.Sprintf("entry already exists for hash %s", hash)}
		}
	}

	now := b.now().Unix()
	e := &Entry{
		ID:             b.nextID,
		Hash:           hash,
		FromLang:       fromLang,
		ToLang:         toLang,
		SourceText:     sourceText,
		TranslatedText: translatedText,
		Count:          1,
		LastUsed:       now,
		CreatedAt:      now,
	}
	b.nextID++
	b.entries = append(b.entries, e)
	return nil
}

func (b *TextBackend) findByHash(hash string) *Entry {
	for _, e := range b.entries {
		if e.Hash == hash {
			return e
		}
	}
	return nil
}

// UpdateCount increments the stored entry's count and mirrors the new
// state into e, which may be a caller-held copy.
func (b *TextBackend) UpdateCount(e *Entry) error {
	if e == nil {
		return &transbasket.CacheError{Message: "update requires an entry"}
	}

	stored := b.findByHash(e.Hash)
	if stored == nil {
		return &transbasket.CacheError{Message: fmt.Sprintf("no entry for hash %s", e.Hash)}
	}

	stored.Count++
	stored.LastUsed = b.now().Unix()
	e.Count = stored.Count
	e.LastUsed = stored.LastUsed
	return nil
}

// UpdateTranslation replaces the stored translation and restarts
// confirmation at 1.
func (b *TextBackend) UpdateTranslation(e *Entry, translation string) error {
	if e == nil || translation == "" {
		return &transbasket.CacheError{Message: "update requires an entry and a translation"}
	}

	stored := b.findByHash(e.Hash)
	if stored == nil {
		return &transbasket.CacheError{Message: fmt.Sprintf("no entry for hash %s", e.Hash)}
	}

	stored.TranslatedText = translation
	stored.Count = 1
	stored.LastUsed = b.now().Unix()
	e.TranslatedText = translation
	e.Count = stored.Count
	e.LastUsed = stored.LastUsed
	return nil
}

// Save rewrites the whole file, one JSON object per line. The write goes
// to a temporary file in the same directory and is renamed over the
// target, so a crash mid-save leaves the previous file intact.
func (b *TextBackend) Save() error {
	dir := filepath.Dir(b.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".tmp*")
	if err != nil {
		return &transbasket.CacheError{Message: "creating temp cache file", Cause: err}
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	for _, e := range b.entries {
		rec := textRecord{
			ID:        e.ID,
			Hash:      e.Hash,
			From:      e.FromLang,
			To:        e.ToLang,
			Source:    e.SourceText,
			Target:    e.TranslatedText,
			Count:     e.Count,
			LastUsed:  e.LastUsed,
			CreatedAt: e.CreatedAt,
		}
		data, err := json.Marshal(&rec)
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return &transbasket.CacheError{Message: "encoding cache entry", Cause: err}
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return &transbasket.CacheError{Message: "writing cache file", Cause: err}
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &transbasket.CacheError{Message: "flushing cache file", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &transbasket.CacheError{Message: "closing cache file", Cause: err}
	}

	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return &transbasket.CacheError{Message: "replacing cache file", Cause: err}
	}
	return nil
}

// Cleanup compacts the slice in place, dropping entries unused for more
// than days days.
func (b *TextBackend) Cleanup(days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	cutoff := b.now().Unix() - int64(days)*86400
	kept := b.entries[:0]
	removed := 0
	for _, e := range b.entries {
		if e.LastUsed < cutoff {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Release the tail so dropped entries can be collected.
	for i := len(kept); i < len(b.entries); i++ {
		b.entries[i] = nil
	}
	b.entries = kept
	return removed, nil
}

// Stats counts totals in a single pass.
func (b *TextBackend) Stats(threshold, days int) (Stats, error) {
	cutoff := b.now().Unix() - int64(days)*86400

	s := Stats{Total: len(b.entries)}
	for _, e := range b.entries {
		if e.Count >= threshold {
			s.Active++
		}
		if e.LastUsed < cutoff {
			s.Expired++
		}
	}
	return s, nil
}

// Iterate visits entries in insertion order, which is ascending id order
// because ids are assigned sequentially and cleanup preserves order.
func (b *TextBackend) Iterate(fn func(*Entry) error) error {
	for _, e := range b.entries {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes the entry with the given id.
func (b *TextBackend) Remove(id int64) error {
	for i, e := range b.entries {
		if e.ID == id {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			return nil
		}
	}
	return &transbasket.CacheError{Message: fmt.Sprintf("no entry with id %d", id)}
}

// Close persists the in-memory state one final time.
func (b *TextBackend) Close() error {
	return b.Save()
}

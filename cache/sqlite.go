package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ZaguanLabs/transbasket"
)

const sqlCreateTable = `
CREATE TABLE IF NOT EXISTS trans_cache (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  hash TEXT NOT NULL UNIQUE,
  from_lang TEXT NOT NULL,
  to_lang TEXT NOT NULL,
  source_text TEXT NOT NULL,
  translated_text TEXT NOT NULL,
  count INTEGER DEFAULT 1,
  last_used INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  CHECK(length(hash) = 64),
  CHECK(length(from_lang) = 3),
  CHECK(length(to_lang) = 3),
  CHECK(count >= 1)
);`

var sqlCreateIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_hash ON trans_cache(hash);",
	"CREATE INDEX IF NOT EXISTS idx_lang_pair ON trans_cache(from_lang, to_lang);",
	"CREATE INDEX IF NOT EXISTS idx_last_used ON trans_cache(last_used);",
	"CREATE INDEX IF NOT EXISTS idx_count ON trans_cache(count DESC);",
	"CREATE INDEX IF NOT EXISTS idx_lang_hash ON trans_cache(from_lang, to_lang, hash);",
}

const sqlSelectEntry = `SELECT id, hash, from_lang, to_lang, source_text, translated_text,
count, last_used, created_at FROM trans_cache`

// SQLiteOptions configures the SQLite backend.
type SQLiteOptions struct {
	Path        string
	JournalMode string // default "WAL"
	Synchronous string // default "NORMAL"
	Logger      *zap.Logger
}

// SQLiteBackend stores entries in an embedded SQLite database, one row
// per entry. Statements for the hot operations are prepared once at
// init and reused. The database file stays readable by the standard
// sqlite3 command-line tool.
type SQLiteBackend struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	now    func() time.Time

	stmtLookup            *sql.Stmt
	stmtInsert            *sql.Stmt
	stmtUpdateCount       *sql.Stmt
	stmtUpdateTranslation *sql.Stmt
	stmtDeleteOld         *sql.Stmt
	stmtCountAll          *sql.Stmt
}

var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend opens (creating if missing) the database at
// opts.Path, applies the schema and pragmas, and prepares statements.
func NewSQLiteBackend(opts SQLiteOptions) (*SQLiteBackend, error) {
	if opts.Path == "" {
		return nil, &transbasket.CacheError{Message: "sqlite backend requires a database path"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, &transbasket.CacheError{Message: "opening database", Cause: err}
	}

	// A single connection serializes all statements at the driver level
	// and lets prepared statements be shared across request goroutines.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db, path: opts.Path, logger: logger, now: time.Now}

	if err := b.applyPragmas(opts.JournalMode, opts.Synchronous); err != nil {
		db.Close()
		return nil, err
	}
	if err := b.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := b.prepareStatements(); err != nil {
		b.Close()
		return nil, err
	}

	logger.Info("sqlite cache initialized", zap.String("path", opts.Path))
	return b, nil
}

func (b *SQLiteBackend) applyPragmas(journalMode, synchronous string) error {
	if journalMode == "" {
		journalMode = "WAL"
	}
	if synchronous == "" {
		synchronous = "NORMAL"
	}
	if !safePragmaValue(journalMode) || !safePragmaValue(synchronous) {
		return &transbasket.CacheError{Message: "invalid pragma value"}
	}

	pragmas := []string{
		fmt.Sprintf("PRAGMA journal_mode=%s;", journalMode),
		fmt.Sprintf("PRAGMA synchronous=%s;", synchronous),
		"PRAGMA cache_size=2000;",
		"PRAGMA mmap_size=268435456;",
	}
	for _, p := range pragmas {
		if _, err := b.db.Exec(p); err != nil {
			return &transbasket.CacheError{Message: "applying pragma", Cause: err}
		}
	}
	return nil
}

// safePragmaValue restricts pragma values to bare identifiers; they
// cannot be bound as statement parameters.
func safePragmaValue(v string) bool {
	for _, r := range v {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
			return false
		}
	}
	return v != ""
}

func (b *SQLiteBackend) applySchema() error {
	if _, err := b.db.Exec(sqlCreateTable); err != nil {
		return &transbasket.CacheError{Message: "creating table", Cause: err}
	}
	for _, idx := range sqlCreateIndexes {
		if _, err := b.db.Exec(idx); err != nil {
			return &transbasket.CacheError{Message: "creating index", Cause: err}
		}
	}
	return nil
}

func (b *SQLiteBackend) prepareStatements() error {
	prepare := func(dst **sql.Stmt, query string) error {
		stmt, err := b.db.Prepare(query)
		if err != nil {
			return &transbasket.CacheError{Message: "preparing statement", Cause: err}
		}
		*dst = stmt
		return nil
	}

	steps := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&b.stmtLookup, sqlSelectEntry + " WHERE hash = ?;"},
		{&b.stmtInsert, `INSERT INTO trans_cache (hash, from_lang, to_lang, source_text,
translated_text, count, last_used, created_at) VALUES (?, ?, ?, ?, ?, 1, ?, ?);`},
		{&b.stmtUpdateCount, "UPDATE trans_cache SET count = count + 1, last_used = ? WHERE hash = ?;"},
		{&b.stmtUpdateTranslation, "UPDATE trans_cache SET translated_text = ?, count = 1, last_used = ? WHERE hash = ?;"},
		{&b.stmtDeleteOld, "DELETE FROM trans_cache WHERE last_used < ?;"},
		{&b.stmtCountAll, "SELECT COUNT(*) FROM trans_cache;"},
	}
	for _, s := range steps {
		if err := prepare(s.dst, s.query); err != nil {
			return err
		}
	}
	return nil
}

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Hash, &e.FromLang, &e.ToLang,
		&e.SourceText, &e.TranslatedText, &e.Count, &e.LastUsed, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Lookup fetches the row for the triple's hash. LastUsed is not touched
// here; confirmations and reconciliation update it.
func (b *SQLiteBackend) Lookup(fromLang, toLang, text string) (*Entry, error) {
	if fromLang == "" || toLang == "" || text == "" {
		return nil, &transbasket.CacheError{Message: "lookup requires non-empty languages and text"}
	}

	hash := transbasket.Hash(fromLang, toLang, text)
	e, err := scanEntry(b.stmtLookup.QueryRow(hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &transbasket.CacheError{Message: "lookup failed", Cause: err}
	}
	return e, nil
}

// Add inserts a fresh row; the unique hash index rejects duplicates.
func (b *SQLiteBackend) Add(fromLang, toLang, sourceText, translatedText string) error {
	if fromLang == "" || toLang == "" || sourceText == "" || translatedText == "" {
		return &transbasket.CacheError{Message: "add requires non-empty fields"}
	}

	hash := transbasket.Hash(fromLang, toLang, sourceText)
	now := b.now().Unix()

	if _, err := b.stmtInsert.Exec(hash, fromLang, toLang, sourceText, translatedText, now, now); err != nil {
		return &transbasket.CacheError{Message: "insert failed", Cause: err}
	}
	return nil
}

// UpdateCount increments the row's count atomically and mirrors the new
// state into e.
func (b *SQLiteBackend) UpdateCount(e *Entry) error {
	if e == nil {
		return &transbasket.CacheError{Message: "update requires an entry"}
	}

	now := b.now().Unix()
	res, err := b.stmtUpdateCount.Exec(now, e.Hash)
	if err != nil {
		return &transbasket.CacheError{Message: "update count failed", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &transbasket.CacheError{Message: fmt.Sprintf("no entry for hash %s", e.Hash)}
	}

	e.Count++
	e.LastUsed = now
	return nil
}

// UpdateTranslation replaces the row's translation and resets its count.
func (b *SQLiteBackend) UpdateTranslation(e *Entry, translation string) error {
	if e == nil || translation == "" {
		return &transbasket.CacheError{Message: "update requires an entry and a translation"}
	}

	now := b.now().Unix()
	res, err := b.stmtUpdateTranslation.Exec(translation, now, e.Hash)
	if err != nil {
		return &transbasket.CacheError{Message: "update translation failed", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &transbasket.CacheError{Message: fmt.Sprintf("no entry for hash %s", e.Hash)}
	}

	e.TranslatedText = translation
	e.Count = 1
	e.LastUsed = now
	return nil
}

// Save is a no-op: committed statements are already durable.
func (b *SQLiteBackend) Save() error {
	return nil
}

// Cleanup deletes rows unused for more than days days.
func (b *SQLiteBackend) Cleanup(days int) (int, error) {
	if days <= 0 {
		return 0, nil
	}

	cutoff := b.now().Unix() - int64(days)*86400
	res, err := b.stmtDeleteOld.Exec(cutoff)
	if err != nil {
		return 0, &transbasket.CacheError{Message: "cleanup failed", Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &transbasket.CacheError{Message: "cleanup row count", Cause: err}
	}
	return int(n), nil
}

// Stats reports totals; the threshold and age queries are prepared on
// demand since stats runs rarely.
func (b *SQLiteBackend) Stats(threshold, days int) (Stats, error) {
	var s Stats

	if err := b.stmtCountAll.QueryRow().Scan(&s.Total); err != nil {
		return s, &transbasket.CacheError{Message: "stats total", Cause: err}
	}
	if err := b.db.QueryRow("SELECT COUNT(*) FROM trans_cache WHERE count >= ?;", threshold).Scan(&s.Active); err != nil {
		return s, &transbasket.CacheError{Message: "stats active", Cause: err}
	}

	cutoff := b.now().Unix() - int64(days)*86400
	if err := b.db.QueryRow("SELECT COUNT(*) FROM trans_cache WHERE last_used < ?;", cutoff).Scan(&s.Expired); err != nil {
		return s, &transbasket.CacheError{Message: "stats expired", Cause: err}
	}
	return s, nil
}

// Iterate streams rows in ascending id order.
func (b *SQLiteBackend) Iterate(fn func(*Entry) error) error {
	rows, err := b.db.Query(sqlSelectEntry + " ORDER BY id;")
	if err != nil {
		return &transbasket.CacheError{Message: "iterate query", Cause: err}
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return &transbasket.CacheError{Message: "iterate scan", Cause: err}
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &transbasket.CacheError{Message: "iterate rows", Cause: err}
	}
	return nil
}

// Remove deletes the row with the given id.
func (b *SQLiteBackend) Remove(id int64) error {
	res, err := b.db.Exec("DELETE FROM trans_cache WHERE id = ?;", id)
	if err != nil {
		return &transbasket.CacheError{Message: "remove failed", Cause: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &transbasket.CacheError{Message: fmt.Sprintf("no entry with id %d", id)}
	}
	return nil
}

// Close finalizes every prepared statement, then closes the database.
func (b *SQLiteBackend) Close() error {
	stmts := []*sql.Stmt{
		b.stmtLookup, b.stmtInsert, b.stmtUpdateCount,
		b.stmtUpdateTranslation, b.stmtDeleteOld, b.stmtCountAll,
	}

	var errs []string
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := b.db.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return &transbasket.CacheError{Message: "closing backend: " + strings.Join(errs, "; ")}
	}
	return nil
}

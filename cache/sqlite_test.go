package cache

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteBackend(t *testing.T) *SQLiteBackend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trans_cache.db")
	b, err := NewSQLiteBackend(SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestSQLiteBackend_AddAndLookup(t *testing.T) {
	b := newTestSQLiteBackend(t)

	if err := b.Add("kor", "eng", "안녕하세요", "Hello"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	e, err := b.Lookup("kor", "eng", "안녕하세요")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e == nil {
		t.Fatal("Lookup returned nil for existing entry")
	}
	if e.Count != 1 {
		t.Errorf("fresh entry count = %d, want 1", e.Count)
	}
	if e.TranslatedText != "Hello" {
		t.Errorf("translation = %q, want %q", e.TranslatedText, "Hello")
	}
	if e.LastUsed < e.CreatedAt {
		t.Errorf("last_used %d < created_at %d", e.LastUsed, e.CreatedAt)
	}
}

func TestSQLiteBackend_LookupMiss(t *testing.T) {
	b := newTestSQLiteBackend(t)

	e, err := b.Lookup("eng", "kor", "missing")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if e != nil {
		t.Error("Lookup should return nil for a missing entry")
	}
}

func TestSQLiteBackend_AddDuplicateFails(t *testing.T) {
	b := newTestSQLiteBackend(t)

	if err := b.Add("eng", "ger", "dog", "Hund"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := b.Add("eng", "ger", "dog", "Wauwau"); err == nil {
		t.Error("second Add with the same triple should fail on the unique hash")
	}
}

func TestSQLiteBackend_UpdateCount(t *testing.T) {
	b := newTestSQLiteBackend(t)

	b.Add("eng", "spa", "cat", "gato")
	e, _ := b.Lookup("eng", "spa", "cat")

	for k := 1; k <= 4; k++ {
		if err := b.UpdateCount(e); err != nil {
			t.Fatalf("UpdateCount %d failed: %v", k, err)
		}
		if e.Count != 1+k {
			t.Errorf("after %d updates count = %d, want %d", k, e.Count, 1+k)
		}
	}

	stored, _ := b.Lookup("eng", "spa", "cat")
	if stored.Count != 5 {
		t.Errorf("stored count = %d, want 5", stored.Count)
	}
}

func TestSQLiteBackend_UpdateTranslation(t *testing.T) {
	b := newTestSQLiteBackend(t)

	b.Add("kor", "eng", "인사", "Hi")
	e, _ := b.Lookup("kor", "eng", "인사")
	b.UpdateCount(e)

	if err := b.UpdateTranslation(e, "Greeting"); err != nil {
		t.Fatalf("UpdateTranslation failed: %v", err)
	}

	stored, _ := b.Lookup("kor", "eng", "인사")
	if stored.Count != 1 {
		t.Errorf("count after replacement = %d, want 1", stored.Count)
	}
	if stored.TranslatedText != "Greeting" {
		t.Errorf("translation = %q, want %q", stored.TranslatedText, "Greeting")
	}
}

func TestSQLiteBackend_UpdateUnknownHashFails(t *testing.T) {
	b := newTestSQLiteBackend(t)

	ghost := &Entry{Hash: "0000000000000000000000000000000000000000000000000000000000000000"}
	if err := b.UpdateCount(ghost); err == nil {
		t.Error("UpdateCount on a missing hash should fail")
	}
	if err := b.UpdateTranslation(ghost, "x"); err == nil {
		t.Error("UpdateTranslation on a missing hash should fail")
	}
}

func TestSQLiteBackend_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trans_cache.db")

	b, err := NewSQLiteBackend(SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("NewSQLiteBackend failed: %v", err)
	}
	b.Add("kor", "eng", "안녕하세요", "Hello")
	e, _ := b.Lookup("kor", "eng", "안녕하세요")
	b.UpdateCount(e)
	want := *e
	if err := b.Save(); err != nil { // no-op, but part of the contract
		t.Fatalf("Save failed: %v", err)
	}
	b.Close()

	reopened, err := NewSQLiteBackend(SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Lookup("kor", "eng", "안녕하세요")
	if err != nil || got == nil {
		t.Fatalf("Lookup after reopen failed: %v", err)
	}
	if *got != want {
		t.Errorf("reopened entry differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestSQLiteBackend_Cleanup(t *testing.T) {
	b := newTestSQLiteBackend(t)

	now := time.Now()
	b.now = func() time.Time { return now }

	b.Add("kor", "eng", "하나", "one")
	b.Add("kor", "eng", "둘", "two")
	b.Add("kor", "eng", "셋", "three")

	b.now = func() time.Time { return now.Add(31 * 24 * time.Hour) }

	removed, err := b.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed = %d, want 3", removed)
	}

	s, _ := b.Stats(1, 30)
	if s.Total != 0 {
		t.Errorf("total after cleanup = %d, want 0", s.Total)
	}
}

func TestSQLiteBackend_Stats(t *testing.T) {
	b := newTestSQLiteBackend(t)

	b.Add("kor", "eng", "하나", "one")
	b.Add("kor", "eng", "둘", "two")

	e, _ := b.Lookup("kor", "eng", "하나")
	for i := 0; i < 4; i++ {
		b.UpdateCount(e)
	}

	s, err := b.Stats(5, 30)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if s.Total != 2 || s.Active != 1 || s.Expired != 0 {
		t.Errorf("stats = %+v, want total 2, active 1, expired 0", s)
	}
}

func TestSQLiteBackend_IterateAscendingIDs(t *testing.T) {
	b := newTestSQLiteBackend(t)

	b.Add("eng", "kor", "a", "가")
	b.Add("eng", "kor", "b", "나")
	b.Add("eng", "kor", "c", "다")

	var ids []int64
	err := b.Iterate(func(e *Entry) error {
		ids = append(ids, e.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("Iterate failed: %v", err)
	}

	if len(ids) != 3 {
		t.Fatalf("iterated %d entries, want 3", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i] <= ids[i-1] {
			t.Errorf("ids not ascending: %v", ids)
		}
	}
}

func TestSQLiteBackend_Remove(t *testing.T) {
	b := newTestSQLiteBackend(t)

	b.Add("eng", "kor", "a", "가")
	e, _ := b.Lookup("eng", "kor", "a")

	if err := b.Remove(e.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got, _ := b.Lookup("eng", "kor", "a"); got != nil {
		t.Error("removed entry still present")
	}
	if err := b.Remove(999); err == nil {
		t.Error("removing an unknown id should fail")
	}
}

func TestSQLiteBackend_SchemaRejectsBadRows(t *testing.T) {
	b := newTestSQLiteBackend(t)

	// CHECK constraints guard direct writes that bypass Add.
	_, err := b.db.Exec(`INSERT INTO trans_cache
		(hash, from_lang, to_lang, source_text, translated_text, count, last_used, created_at)
		VALUES ('deadbeef', 'eng', 'kor', 's', 't', 1, 0, 0);`)
	if err == nil {
		t.Error("short hash should violate the length check")
	}

	_, err = b.db.Exec(`INSERT INTO trans_cache
		(hash, from_lang, to_lang, source_text, translated_text, count, last_used, created_at)
		VALUES ('` + "1111111111111111111111111111111111111111111111111111111111111111" + `', 'english', 'kor', 's', 't', 1, 0, 0);`)
	if err == nil {
		t.Error("long language code should violate the length check")
	}
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileLog_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "interactions.jsonl")
	log, err := NewFileLog(p)
	if err != nil {
		t.Fatalf("init log: %v", err)
	}

	r1 := Record{Timestamp: time.Unix(1, 0).UTC(), UserID: "1", Query: "dragons", Command: "findbook", BooksFound: 2}
	r2 := Record{Timestamp: time.Unix(2, 0).UTC(), UserID: "2", Query: "space opera", Command: "recommend"}
	if err := log.Append(r1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := log.Append(r2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	recs, err := log.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2, got %d", len(recs))
	}
	if recs[0].UserID != "1" || recs[1].UserID != "2" {
		t.Fatalf("order mismatch: %+v", recs)
	}

	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileLog_MissingFileBehavesEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "never-written.jsonl")
	log, err := NewFileLog(p)
	if err != nil {
		t.Fatalf("init log: %v", err)
	}

	recs, err := log.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("want empty, got %+v", recs)
	}

	n, err := log.RewriteExcluding(func(Record) bool { return true })
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0 dropped, got %d", n)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("rewrite should not create the file")
	}
}

func TestFileLog_LoadSkipsMalformedLines(t *testing.T) {
	p := filepath.Join(t.TempDir(), "interactions.jsonl")
	log, err := NewFileLog(p)
	if err != nil {
		t.Fatalf("init log: %v", err)
	}
	if err := log.Append(Record{UserID: "1", Query: "ok"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("{this is not json\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	_ = f.Close()
	if err := log.Append(Record{UserID: "2", Query: "also ok"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	recs, err := log.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 parsed records, got %d: %+v", len(recs), recs)
	}
}

func TestFileLog_RewriteExcludingKeepsMalformedVerbatim(t *testing.T) {
	p := filepath.Join(t.TempDir(), "interactions.jsonl")
	log, err := NewFileLog(p)
	if err != nil {
		t.Fatalf("init log: %v", err)
	}
	if err := log.Append(Record{UserID: "42", Query: "drop me"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	garbage := "{broken line without a closing brace"
	f, _ := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	_, _ = f.WriteString(garbage + "\n")
	_ = f.Close()
	if err := log.Append(Record{UserID: "7", Query: "keep me"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	n, err := log.RewriteExcluding(func(r Record) bool { return r.UserID == "42" })
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if n != 1 {
		t.Fatalf("want 1 dropped, got %d", n)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, garbage) {
		t.Fatalf("malformed line was destroyed: %q", content)
	}
	if strings.Contains(content, "drop me") {
		t.Fatalf("matched record survived: %q", content)
	}
	if !strings.Contains(content, "keep me") {
		t.Fatalf("unrelated record lost: %q", content)
	}

	// second pass finds nothing
	n, err = log.RewriteExcluding(func(r Record) bool { return r.UserID == "42" })
	if err != nil {
		t.Fatalf("rewrite twice: %v", err)
	}
	if n != 0 {
		t.Fatalf("want 0 on second pass, got %d", n)
	}
}

func TestFileLog_NonASCIIRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "interactions.jsonl")
	log, err := NewFileLog(p)
	if err != nil {
		t.Fatalf("init log: %v", err)
	}
	rec := Record{
		UserID: "1",
		Query:  "böcker om fikon & café",
		Books:  []BookSummary{{Title: "Café Liv", Authors: []string{"Åsa Öberg"}}},
	}
	if err := log.Append(rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	recs, err := log.LoadAll()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("want 1, got %d", len(recs))
	}
	if recs[0].Query != rec.Query || recs[0].Books[0].Title != "Café Liv" {
		t.Fatalf("round trip mangled text: %+v", recs[0])
	}
	raw, _ := os.ReadFile(p)
	if !strings.Contains(string(raw), "café") {
		t.Fatalf("file should hold raw UTF-8, got %q", raw)
	}
}

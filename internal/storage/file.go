package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLog keeps records as newline-delimited JSON, one record per line.
// A single mutex serializes appends and rewrites so a rewrite can never
// lose a concurrent append and two appends can never interleave bytes.
type FileLog struct {
	path string
	mu   sync.Mutex
}

func NewFileLog(path string) (*FileLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	return &FileLog{path: path}, nil
}

func (l *FileLog) Append(rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

func (l *FileLog) LoadAll() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var recs []Record
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		recs = append(recs, rec)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return recs, nil
}

// RewriteExcluding drops every decodable line whose record matches and
// writes the rest back. Lines that do not decode are kept byte-verbatim:
// unknown-shape data must not be destroyed by a cleanup pass. Returns the
// number of records dropped.
func (l *FileLog) RewriteExcluding(match func(Record) bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("open read: %w", err)
	}
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var kept [][]byte
	dropped := 0
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err == nil && match(rec) {
			dropped++
			continue
		}
		kept = append(kept, append([]byte(nil), line...))
	}
	_ = f.Close()
	if err := s.Err(); err != nil {
		return 0, fmt.Errorf("scan: %w", err)
	}
	wf, err := os.OpenFile(l.path, os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open write: %w", err)
	}
	defer wf.Close()
	w := bufio.NewWriter(wf)
	for _, line := range kept {
		if _, err := w.Write(line); err != nil {
			return 0, fmt.Errorf("write: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return 0, fmt.Errorf("write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("flush: %w", err)
	}
	return dropped, nil
}

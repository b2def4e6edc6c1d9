// Package report persists pipeline results as an append-only JSONL file.
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

// Store appends one JSON line per report and reads them back newest-first.
// Appends are serialized by a mutex and issued as a single Write call, so
// concurrent triggers never interleave bytes within a line.
type Store struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	lastTS time.Time
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("report store path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, file: f}, nil
}

// Append assigns the record's timestamp and writes it as one JSONL line.
// Timestamps are UTC and clamped so they never decrease across appends
// within this process, even if the wall clock steps backwards.
func (s *Store) Append(r *types.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return errors.New("report store is closed")
	}

	now := time.Now().UTC()
	if now.Before(s.lastTS) {
		now = s.lastTS
	}
	r.Timestamp = now
	s.lastTS = now

	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	line = append(line, '\n')
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("append report: %w", err)
	}
	return nil
}

// Recent re-reads the file and returns up to limit records, newest first.
// Blank and unparseable lines are skipped rather than failing the read.
func (s *Store) Recent(limit int) ([]types.Report, error) {
	if limit <= 0 {
		return []types.Report{}, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Report{}, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	// Research answers can be long; give the scanner room.
	scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)

	var all []types.Report
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var r types.Report
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		all = append(all, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// File order is oldest first; callers want newest first.
	out := make([]types.Report, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/muratcankoylan/feed2context/pkg/types"
)

func newReport(i int) *types.Report {
	return &types.Report{
		PostURL:        fmt.Sprintf("https://x.com/someone/status/%d", i),
		UserNote:       fmt.Sprintf("note %d", i),
		Source:         types.SourceX,
		PostText:       fmt.Sprintf("post text %d", i),
		Query:          fmt.Sprintf("query %d", i),
		CompoundAnswer: fmt.Sprintf("answer %d", i),
	}
}

func TestStore_AppendAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "reports.jsonl")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 3; i++ {
		if err := s.Append(newReport(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	got, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent returned %d records, want 3", len(got))
	}
	// Newest first.
	for i, r := range got {
		want := newReport(2 - i)
		if r.PostURL != want.PostURL || r.PostText != want.PostText ||
			r.Query != want.Query || r.CompoundAnswer != want.CompoundAnswer ||
			r.UserNote != want.UserNote || r.Source != want.Source {
			t.Fatalf("record %d = %+v, want fields of %+v", i, r, want)
		}
		if r.Timestamp.IsZero() {
			t.Fatalf("record %d has zero timestamp", i)
		}
		if loc := r.Timestamp.Location(); loc != time.UTC {
			t.Fatalf("record %d timestamp location = %v, want UTC", i, loc)
		}
	}
	// Newest-first order means non-increasing timestamps.
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("timestamps out of order: %v before %v", got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func TestStore_RecentLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		if err := s.Append(newReport(i)); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	got, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent(2) returned %d records, want 2", len(got))
	}
	if got[0].PostText != "post text 4" || got[1].PostText != "post text 3" {
		t.Fatalf("Recent(2) = [%q, %q], want newest two", got[0].PostText, got[1].PostText)
	}

	zero, err := s.Recent(0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(zero) != 0 {
		t.Fatalf("Recent(0) returned %d records, want 0", len(zero))
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.Append(newReport(i)); err != nil {
				t.Errorf("Append(%d): %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open raw file: %v", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 8*1024*1024)
	var records []types.Report
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var r types.Report
		if err := json.Unmarshal(line, &r); err != nil {
			t.Fatalf("corrupt line %q: %v", line, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(records) != 10 {
		t.Fatalf("file holds %d intact records, want 10", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].Timestamp.Before(records[i-1].Timestamp) {
			t.Fatalf("timestamp decreased at line %d: %v after %v",
				i, records[i].Timestamp, records[i-1].Timestamp)
		}
	}
}

func TestStore_RecentSkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Append(newReport(0)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("open for garbage: %v", err)
	}
	if _, err := f.WriteString("{not json\n\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close garbage writer: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Open(resume): %v", err)
	}
	defer s2.Close()
	if err := s2.Append(newReport(1)); err != nil {
		t.Fatalf("Append(resume): %v", err)
	}

	got, err := s2.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d records, want 2 (corrupt line skipped)", len(got))
	}
	if got[0].PostText != "post text 1" || got[1].PostText != "post text 0" {
		t.Fatalf("Recent order = [%q, %q]", got[0].PostText, got[1].PostText)
	}
}

func TestStore_AppendAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.jsonl")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Append(newReport(0)); err == nil {
		t.Fatal("Append after Close succeeded, want error")
	}
}

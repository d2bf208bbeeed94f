package scrape

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RunRecord is one line of the append-only run log.
type RunRecord struct {
	RunID     string         `json:"run_id"`
	Timestamp string         `json:"timestamp"`
	Results   []SourceResult `json:"results,omitempty"`
	Error     string         `json:"error,omitempty"`
	Success   bool           `json:"success"`
}

// RunLog appends one JSON record per ingestion run to a flat file and reads
// the tail back for the stats endpoint.
type RunLog struct {
	path string
	mu   sync.Mutex
}

func NewRunLog(dir string) (*RunLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create run log dir: %w", err)
	}
	return &RunLog{path: filepath.Join(dir, "scraper.log")}, nil
}

func (l *RunLog) Append(rec RunRecord) error {
	if l == nil {
		return fmt.Errorf("nil run log")
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append run log: %w", err)
	}
	return nil
}

// LastRuns returns up to n most recent records, oldest first. A missing log
// file reads as zero runs.
func (l *RunLog) LastRuns(n int) ([]RunRecord, error) {
	if l == nil {
		return nil, fmt.Errorf("nil run log")
	}
	if n <= 0 {
		n = 10
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunRecord{}, nil
		}
		return nil, err
	}
	defer f.Close()

	records := make([]RunRecord, 0, 64)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec RunRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// A torn write should not break the stats endpoint.
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	if len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

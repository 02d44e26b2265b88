package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// FeedbackEntry is one user judgment on a reply, kept for offline review of
// routing and retrieval quality.
type FeedbackEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Reply     string    `json:"reply"`
	Rating    string    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
}

// FeedbackLog appends entries to a JSON-lines file.
type FeedbackLog struct {
	mu   sync.Mutex
	path string
}

func NewFeedbackLog(path string) *FeedbackLog {
	return &FeedbackLog{path: path}
}

func (f *FeedbackLog) Record(entry FeedbackEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open feedback log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write feedback: %w", err)
	}
	return nil
}

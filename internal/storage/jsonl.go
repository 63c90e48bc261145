package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// jsonlRecord is the on-disk shape of one persisted page.
type jsonlRecord struct {
	RunID         string    `json:"run_id"`
	Address       string    `json:"address"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	WordCount     int       `json:"word_count"`
	Author        string    `json:"author,omitempty"`
	SiteName      string    `json:"site_name,omitempty"`
	PublishedTime string    `json:"published_time,omitempty"`
	Depth         int       `json:"depth"`
	FetchedAt     time.Time `json:"fetched_at"`
	Chunks        []string  `json:"chunks,omitempty"`
}

// JSONLStore appends one JSON object per page to a local file. Useful for
// runs without a database.
type JSONLStore struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLStore opens (or creates) the target file in append mode.
func NewJSONLStore(path string) (*JSONLStore, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl file: %w", err)
	}
	return &JSONLStore{file: file, enc: json.NewEncoder(file)}, nil
}

// SavePage writes the record as one line.
func (s *JSONLStore) SavePage(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(jsonlRecord{
		RunID:         rec.RunID,
		Address:       rec.Page.Address,
		Title:         rec.Page.Title,
		Content:       rec.Page.Content,
		WordCount:     rec.Page.WordCount,
		Author:        rec.Page.Author,
		SiteName:      rec.Page.SiteName,
		PublishedTime: rec.Page.PublishedTime,
		Depth:         rec.Page.Depth,
		FetchedAt:     rec.Page.FetchedAt,
		Chunks:        rec.Chunks,
	})
}

// Close flushes and closes the file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

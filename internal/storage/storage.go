// Package storage persists crawl results behind a narrow interface boundary.
// The crawler core never depends on it; a nil pipeline is a valid in-memory
// configuration.
package storage

import (
	"context"
	"errors"
	"fmt"

	"siteharvest/pkg/types"
)

// Record is one page ready for persistence: the immutable page record, the
// run it belongs to, and its segmented chunks.
type Record struct {
	RunID  string
	Page   types.PageRecord
	Chunks []string
}

// RecordStore persists page records into one sink.
type RecordStore interface {
	SavePage(ctx context.Context, rec Record) error
	Close() error
}

// Pipeline fans a record out to every configured store.
type Pipeline struct {
	stores []RecordStore
}

// NewPipeline constructs a pipeline over the given stores. Returns nil when
// no store is configured so callers can skip persistence with a nil check.
func NewPipeline(stores ...RecordStore) *Pipeline {
	kept := make([]RecordStore, 0, len(stores))
	for _, s := range stores {
		if s != nil {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return &Pipeline{stores: kept}
}

// Persist stores the record in every sink, joining errors.
func (p *Pipeline) Persist(ctx context.Context, rec Record) error {
	if p == nil {
		return nil
	}
	var err error
	for _, store := range p.stores {
		if serr := store.SavePage(ctx, rec); serr != nil {
			err = errors.Join(err, fmt.Errorf("save %s: %w", rec.Page.Address, serr))
		}
	}
	return err
}

// Close releases every sink.
func (p *Pipeline) Close() error {
	if p == nil {
		return nil
	}
	var err error
	for _, store := range p.stores {
		if cerr := store.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

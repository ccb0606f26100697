package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/meridian-legal/extract-cli/internal/model"
)

// ErrNotFound is returned by GetRecord when no record has the given id.
var ErrNotFound = eris.New("record not found")

// RecordFilter specifies criteria for listing extraction records.
type RecordFilter struct {
	Source     string `json:"source,omitempty"`
	Expediente string `json:"expediente,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for extraction records.
type Store interface {
	// Records
	SaveRecord(ctx context.Context, rec *model.Record) error
	SaveRecords(ctx context.Context, recs []model.Record) (int64, error)
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

package events

import (
	"context"
	"errors"
)

var ErrCategoryNotFound = errors.New("category not found")

// WriteParams is a validated payload ready for storage. CategoryID is nil
// when the event is uncategorized.
type WriteParams struct {
	Title           string
	Description     string
	LongDescription string
	Date            string
	Time            string
	Location        string
	CategoryID      *int64
	ImageFilename   string
	Requirements    []string
}

type CategoryRecord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Repository is the persistence surface for events. Reads return raw records
// so a malformed row can be skipped without failing the whole listing.
type Repository interface {
	ListRecords(ctx context.Context) ([]Record, error)
	GetRecord(ctx context.Context, id int64) (Record, error)
	Create(ctx context.Context, params WriteParams) (Record, error)
	Update(ctx context.Context, id int64, params WriteParams) (Record, error)
	Delete(ctx context.Context, id int64) error
	ListCategories(ctx context.Context) ([]CategoryRecord, error)
}

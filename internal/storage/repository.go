package storage

import (
	"context"

	"github.com/studentaffairs/portal/internal/domain/events"
)

// Repository groups data access by domain.
type Repository interface {
	Events() events.Repository

	Ping(ctx context.Context) error
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}

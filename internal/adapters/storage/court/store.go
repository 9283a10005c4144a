package court

import (
	"context"

	domain "teniszklub/internal/domain/court"
)

// Store persists courts.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Court, error)
	// List returns courts ordered by sort order.
	List(ctx context.Context, activeOnly bool) ([]domain.Court, error)
	Save(ctx context.Context, value domain.Court) error
	// SwapSortOrder exchanges the sort orders of two courts atomically.
	SwapSortOrder(ctx context.Context, a, b domain.Court) error
}

package closure

import (
	"context"
	"time"

	domain "teniszklub/internal/domain/closure"
)

// Store persists court closures.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Closure, error)
	// Create inserts a closure, returning domain.ErrDuplicate for an identical one.
	Create(ctx context.Context, value domain.Closure) error
	Delete(ctx context.Context, id string) error
	// ListForCourtOn returns the court's closures whose date range contains date.
	ListForCourtOn(ctx context.Context, courtID string, date time.Time) ([]domain.Closure, error)
	// ListOverlapping returns closures of any court intersecting [from, to] by date.
	ListOverlapping(ctx context.Context, from, to time.Time) ([]domain.Closure, error)
	List(ctx context.Context) ([]domain.Closure, error)
}

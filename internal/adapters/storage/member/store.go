package member

import (
	"context"

	domain "teniszklub/internal/domain/member"
)

// Store persists portal users.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	GetByEmail(ctx context.Context, email string) (domain.Member, error)
	// GetByIDs returns the members that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Member, error)
	// Create inserts a new member, returning domain.ErrDuplicateEmail on a taken address.
	Create(ctx context.Context, value domain.Member) error
	Save(ctx context.Context, value domain.Member) error
	List(ctx context.Context, filter ListFilter) ([]domain.Member, error)
	Count(ctx context.Context) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Role       string
	ActiveOnly bool
	ExcludeID  string
}

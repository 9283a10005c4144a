package ledger

import (
	"context"

	domain "teniszklub/internal/domain/ledger"
)

// Entry is a transaction joined with its owning account.
type Entry struct {
	domain.Transaction
	UserID      string
	AccountType domain.AccountType
}

// Store persists accounts and the append-only transaction ledger.
type Store interface {
	// Post appends tx to the user's account of the given type, creating the
	// account from newAccount when it does not exist yet.
	Post(ctx context.Context, newAccount domain.Account, tx domain.Transaction) (domain.Transaction, error)
	Accounts(ctx context.Context, userID string) ([]domain.Account, error)
	// Balance sums every transaction of every account of the user.
	Balance(ctx context.Context, userID string) (int64, error)
	BalancesByType(ctx context.Context, userID string) (map[domain.AccountType]int64, error)
	BalancesByUser(ctx context.Context) (map[string]int64, error)
	// Recent returns the newest entries, for one user or for everyone when userID is empty.
	Recent(ctx context.Context, userID string, limit int) ([]Entry, error)
}

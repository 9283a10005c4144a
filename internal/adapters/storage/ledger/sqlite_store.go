package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"teniszklub/internal/adapters/storage"
	domain "teniszklub/internal/domain/ledger"
)

// Execer is satisfied by both a database handle and an open transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ledger store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureAccount returns the id of the user's account of acct.Type, inserting
// acct first when the user has none.
// PRE: acct carries a fresh ID, UserID and a valid Type
func EnsureAccount(ctx context.Context, q Execer, acct domain.Account) (string, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, account_type, is_active, created_at) VALUES (?, ?, ?, 1, ?)
		 ON CONFLICT(user_id, account_type) DO NOTHING`,
		acct.ID, acct.UserID, string(acct.Type), storage.FormatTime(acct.CreatedAt))
	if err != nil {
		return "", fmt.Errorf("ensure %s account: %w", acct.Type, err)
	}
	var id string
	err = q.QueryRowContext(ctx, "SELECT id FROM accounts WHERE user_id = ? AND account_type = ?",
		acct.UserID, string(acct.Type)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("load %s account: %w", acct.Type, err)
	}
	return id, nil
}

// InsertTransaction appends tx. AccountID must already be resolved.
func InsertTransaction(ctx context.Context, q Execer, tx domain.Transaction) error {
	var bookingID, note any
	if tx.BookingID != "" {
		bookingID = tx.BookingID
	}
	if tx.Note != "" {
		note = tx.Note
	}
	currency := tx.Currency
	if currency == "" {
		currency = domain.Currency
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO transactions (id, account_id, booking_id, amount, currency, status_code, note, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.AccountID, bookingID, tx.Amount, currency, tx.StatusCode, note, tx.CreatedBy,
		storage.FormatTime(tx.CreatedAt))
	return err
}

// Post ensures the account and appends the transaction in one database transaction.
// PRE: tx has been validated except for AccountID
// POST: tx is persisted against the user's account of newAccount.Type
func (s *SQLiteStore) Post(ctx context.Context, newAccount domain.Account, tx domain.Transaction) (domain.Transaction, error) {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, err
	}
	defer dbtx.Rollback()

	accountID, err := EnsureAccount(ctx, dbtx, newAccount)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.AccountID = accountID
	if err := InsertTransaction(ctx, dbtx, tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Accounts lists the user's accounts in creation order.
func (s *SQLiteStore) Accounts(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, account_type, is_active, created_at FROM accounts WHERE user_id = ? ORDER BY created_at, account_type", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		var a domain.Account
		var accountType string
		var createdAt sql.NullString
		if err := rows.Scan(&a.ID, &a.UserID, &accountType, &a.IsActive, &createdAt); err != nil {
			return nil, err
		}
		a.Type = domain.AccountType(accountType)
		a.CreatedAt = storage.ParseTime(createdAt)
		results = append(results, a)
	}
	return results, rows.Err()
}

// Balance sums every transaction on the user's accounts.
func (s *SQLiteStore) Balance(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT IFNULL(SUM(t.amount), 0) FROM transactions t JOIN accounts a ON a.id = t.account_id WHERE a.user_id = ?`,
		userID).Scan(&total)
	return total, err
}

// BalancesByType sums the user's transactions per account type.
func (s *SQLiteStore) BalancesByType(ctx context.Context, userID string) (map[domain.AccountType]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.account_type, IFNULL(SUM(t.amount), 0) FROM accounts a LEFT JOIN transactions t ON t.account_id = a.id
		 WHERE a.user_id = ? GROUP BY a.account_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.AccountType]int64)
	for rows.Next() {
		var accountType string
		var sum int64
		if err := rows.Scan(&accountType, &sum); err != nil {
			return nil, err
		}
		out[domain.AccountType(accountType)] = sum
	}
	return out, rows.Err()
}

// BalancesByUser sums transactions per user across all accounts.
func (s *SQLiteStore) BalancesByUser(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.user_id, IFNULL(SUM(t.amount), 0) FROM accounts a LEFT JOIN transactions t ON t.account_id = a.id GROUP BY a.user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var userID string
		var sum int64
		if err := rows.Scan(&userID, &sum); err != nil {
			return nil, err
		}
		out[userID] = sum
	}
	return out, rows.Err()
}

// Recent lists the newest entries, newest first.
// PRE: limit > 0
func (s *SQLiteStore) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	query := `SELECT t.id, t.account_id, IFNULL(t.booking_id, ''), t.amount, t.currency, t.status_code, IFNULL(t.note, ''),
		t.created_by, t.created_at, a.user_id, a.account_type
		FROM transactions t JOIN accounts a ON a.id = t.account_id`
	var args []any
	if userID != "" {
		query += " WHERE a.user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Entry
	for rows.Next() {
		var e Entry
		var accountType string
		var createdAt sql.NullString
		if err := rows.Scan(&e.ID, &e.AccountID, &e.BookingID, &e.Amount, &e.Currency, &e.StatusCode, &e.Note,
			&e.CreatedBy, &createdAt, &e.UserID, &accountType); err != nil {
			return nil, err
		}
		e.CreatedAt = storage.ParseTime(createdAt)
		e.AccountType = domain.AccountType(accountType)
		results = append(results, e)
	}
	return results, rows.Err()
}

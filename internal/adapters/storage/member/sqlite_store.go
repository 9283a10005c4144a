package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"teniszklub/internal/adapters/storage"
	"teniszklub/internal/domain/feerules"
	domain "teniszklub/internal/domain/member"
)

const selectColumns = "SELECT id, email, full_name, password_hash, role, member_category, is_active, membership_requested, failed_logins, locked_until, created_at FROM users"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new member store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	return scanOne(row.Scan)
}

// GetByEmail retrieves a Member by its normalized email.
// PRE: email is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE email = ?", domain.NormalizeEmail(email))
	return scanOne(row.Scan)
}

// GetByIDs retrieves the Members among ids that exist.
func (s *SQLiteStore) GetByIDs(ctx context.Context, ids []string) ([]domain.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// Create inserts a new Member.
// PRE: entity has been validated and carries a fresh ID
// POST: Entity is persisted, or domain.ErrDuplicateEmail if the email is taken
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, full_name, password_hash, role, member_category, is_active, membership_requested, failed_logins, locked_until, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.ID, domain.NormalizeEmail(entity.Email), strings.TrimSpace(entity.FullName), entity.PasswordHash,
		entity.Role, string(entity.Category), entity.IsActive, entity.MembershipRequested,
		entity.FailedLogins, storage.FormatTime(entity.LockedUntil), storage.FormatTime(entity.CreatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicateEmail
	}
	return err
}

// Save updates the mutable fields of an existing Member.
// PRE: entity has been validated
// POST: Entity is persisted, or domain.ErrNotFound if it does not exist
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET full_name = ?, password_hash = ?, role = ?, member_category = ?, is_active = ?,
		 membership_requested = ?, failed_logins = ?, locked_until = ? WHERE id = ?`,
		strings.TrimSpace(entity.FullName), entity.PasswordHash, entity.Role, string(entity.Category),
		entity.IsActive, entity.MembershipRequested, entity.FailedLogins,
		storage.FormatTime(entity.LockedUntil), entity.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List retrieves Members ordered by name.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	var where []string
	var args []any
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = 1")
	}
	if filter.ExcludeID != "" {
		where = append(where, "id <> ?")
		args = append(args, filter.ExcludeID)
	}
	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY full_name COLLATE NOCASE, email"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// Count returns the number of users.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func scanOne(scan func(dest ...any) error) (domain.Member, error) {
	m, err := scanMember(scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("scan member: %w", err)
	}
	return m, nil
}

func scanAll(rows *sql.Rows) ([]domain.Member, error) {
	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var category string
	var lockedUntil, createdAt sql.NullString
	err := scan(&m.ID, &m.Email, &m.FullName, &m.PasswordHash, &m.Role, &category,
		&m.IsActive, &m.MembershipRequested, &m.FailedLogins, &lockedUntil, &createdAt)
	if err != nil {
		return domain.Member{}, err
	}
	m.Category = feerules.MemberCategory(category)
	if !m.Category.IsValid() {
		m.Category = feerules.CategoryPalyaberlo
	}
	m.LockedUntil = storage.ParseTime(lockedUntil)
	m.CreatedAt = storage.ParseTime(createdAt)
	return m, nil
}

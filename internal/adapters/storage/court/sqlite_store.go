package court

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"teniszklub/internal/adapters/storage"
	domain "teniszklub/internal/domain/court"
)

const selectColumns = "SELECT id, name, is_active, sort_order, has_lighting, is_mufuves, created_at FROM courts"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new court store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Court by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Court, error) {
	c, err := scanCourt(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Court{}, domain.ErrNotFound
	}
	return c, err
}

// List retrieves courts ordered by sort order, optionally only active ones.
func (s *SQLiteStore) List(ctx context.Context, activeOnly bool) ([]domain.Court, error) {
	query := selectColumns
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY sort_order, name"
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Court
	for rows.Next() {
		c, err := scanCourt(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// Save persists a Court to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Court) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courts (id, name, is_active, sort_order, has_lighting, is_mufuves, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, is_active=excluded.is_active, sort_order=excluded.sort_order,
		 has_lighting=excluded.has_lighting, is_mufuves=excluded.is_mufuves`,
		entity.ID, entity.Name, entity.IsActive, entity.SortOrder, entity.HasLighting, entity.IsMufuves,
		storage.FormatTime(entity.CreatedAt),
	)
	return err
}

// SwapSortOrder exchanges the sort orders of a and b in one transaction.
// PRE: a and b were read from the store
// POST: a has b's former sort order and vice versa, or nothing changed
func (s *SQLiteStore) SwapSortOrder(ctx context.Context, a, b domain.Court) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, step := range []struct {
		id    string
		order int
	}{{a.ID, b.SortOrder}, {b.ID, a.SortOrder}} {
		res, err := tx.ExecContext(ctx, "UPDATE courts SET sort_order = ? WHERE id = ?", step.order, step.id)
		if err != nil {
			return fmt.Errorf("swap sort order: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
	}
	return tx.Commit()
}

func scanCourt(scan func(dest ...any) error) (domain.Court, error) {
	var c domain.Court
	var createdAt sql.NullString
	if err := scan(&c.ID, &c.Name, &c.IsActive, &c.SortOrder, &c.HasLighting, &c.IsMufuves, &createdAt); err != nil {
		return domain.Court{}, err
	}
	c.CreatedAt = storage.ParseTime(createdAt)
	return c, nil
}

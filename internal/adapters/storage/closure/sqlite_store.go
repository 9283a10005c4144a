package closure

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"teniszklub/internal/adapters/storage"
	domain "teniszklub/internal/domain/closure"
)

const selectColumns = "SELECT id, court_id, start_date, end_date, start_hour, end_hour, reason, created_by, created_at FROM court_closures"

const orderBy = " ORDER BY start_date, IFNULL(start_hour, -1), court_id"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new closure store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Closure by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Closure, error) {
	c, err := scanClosure(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Closure{}, domain.ErrNotFound
	}
	return c, err
}

// Create persists a new Closure.
// PRE: entity has been validated
// POST: Entity is persisted, or domain.ErrDuplicate if an identical closure exists
func (s *SQLiteStore) Create(ctx context.Context, entity domain.Closure) error {
	var reason any
	if entity.Reason != "" {
		reason = entity.Reason
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO court_closures (id, court_id, start_date, end_date, start_hour, end_hour, reason, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entity.ID, entity.CourtID,
		entity.StartDate.Format(storage.DateLayout), entity.EndDate.Format(storage.DateLayout),
		nullableHour(entity.StartHour), nullableHour(entity.EndHour),
		reason, entity.CreatedBy, storage.FormatTime(entity.CreatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	return err
}

// Delete removes a Closure.
// PRE: id is non-empty
// POST: Entity is removed, or domain.ErrNotFound
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM court_closures WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListForCourtOn retrieves the court's closures covering date.
func (s *SQLiteStore) ListForCourtOn(ctx context.Context, courtID string, date time.Time) ([]domain.Closure, error) {
	d := date.Format(storage.DateLayout)
	return s.query(ctx, selectColumns+" WHERE court_id = ? AND start_date <= ? AND end_date >= ?"+orderBy, courtID, d, d)
}

// ListOverlapping retrieves closures intersecting the inclusive date range.
func (s *SQLiteStore) ListOverlapping(ctx context.Context, from, to time.Time) ([]domain.Closure, error) {
	return s.query(ctx, selectColumns+" WHERE start_date <= ? AND end_date >= ?"+orderBy,
		to.Format(storage.DateLayout), from.Format(storage.DateLayout))
}

// List retrieves all closures ordered by start date and hour.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Closure, error) {
	return s.query(ctx, selectColumns+orderBy)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Closure, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Closure
	for rows.Next() {
		c, err := scanClosure(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

func scanClosure(scan func(dest ...any) error) (domain.Closure, error) {
	var c domain.Closure
	var startDate, endDate string
	var startHour, endHour sql.NullInt64
	var reason, createdAt sql.NullString
	if err := scan(&c.ID, &c.CourtID, &startDate, &endDate, &startHour, &endHour, &reason, &c.CreatedBy, &createdAt); err != nil {
		return domain.Closure{}, err
	}
	c.StartDate, _ = time.Parse(storage.DateLayout, startDate)
	c.EndDate, _ = time.Parse(storage.DateLayout, endDate)
	if startHour.Valid && endHour.Valid {
		sh, eh := int(startHour.Int64), int(endHour.Int64)
		c.StartHour, c.EndHour = &sh, &eh
	}
	c.Reason = reason.String
	c.CreatedAt = storage.ParseTime(createdAt)
	return c, nil
}

func nullableHour(h *int) any {
	if h == nil {
		return nil
	}
	return *h
}

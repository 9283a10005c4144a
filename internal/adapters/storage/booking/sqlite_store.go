package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"teniszklub/internal/adapters/storage"
	ledgerstore "teniszklub/internal/adapters/storage/ledger"
	domain "teniszklub/internal/domain/booking"
)

const selectColumns = "SELECT id, court_id, booker_user_id, starts_at, ends_at, game_type, status, is_peak, is_coaching, created_at, cancelled_at FROM bookings"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new booking store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts booking, players and charge in one transaction.
// PRE: b has been validated; players contain exactly one booker row
// POST: everything is persisted, or nothing is
func (s *SQLiteStore) Create(ctx context.Context, b domain.Booking, players []domain.Player, charge *Charge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (id, court_id, booker_user_id, starts_at, ends_at, game_type, status, is_peak, is_coaching, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CourtID, b.BookerID, storage.FormatTime(b.StartsAt), storage.FormatTime(b.EndsAt),
		string(b.GameType), string(domain.StatusActive), b.IsPeak, b.IsCoaching, storage.FormatTime(b.CreatedAt))
	if storage.IsUniqueViolation(err) {
		return domain.ErrSlotTaken
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := insertPlayers(ctx, tx, players); err != nil {
		return err
	}

	if charge != nil {
		accountID, err := ledgerstore.EnsureAccount(ctx, tx, charge.Account)
		if err != nil {
			return err
		}
		debit := charge.Transaction
		debit.AccountID = accountID
		debit.BookingID = b.ID
		if err := ledgerstore.InsertTransaction(ctx, tx, debit); err != nil {
			return fmt.Errorf("insert booking charge: %w", err)
		}
	}
	return tx.Commit()
}

func insertPlayers(ctx context.Context, tx *sql.Tx, players []domain.Player) error {
	for _, p := range players {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO booking_players (booking_id, user_id, is_booker) VALUES (?, ?, ?)",
			p.BookingID, p.UserID, p.IsBooker)
		if err != nil {
			return fmt.Errorf("insert booking player %s: %w", p.UserID, err)
		}
	}
	return nil
}

// GetByID retrieves a Booking by its ID.
// PRE: id is non-empty
// POST: Returns the entity or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Booking, error) {
	b, err := scanBooking(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrNotFound
	}
	return b, err
}

// HasActiveAt reports whether the court already has an active booking at startsAt.
func (s *SQLiteStore) HasActiveAt(ctx context.Context, courtID string, startsAt time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE court_id = ? AND starts_at = ? AND status = ?",
		courtID, storage.FormatTime(startsAt), string(domain.StatusActive)).Scan(&n)
	return n > 0, err
}

// List retrieves bookings matching filter ordered by start time.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Booking, error) {
	where, args := filterClause(filter)
	query := selectColumns
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY starts_at, court_id"
	return s.query(ctx, s.db, query, args...)
}

// Players retrieves the player rows of the given bookings, bookers first.
func (s *SQLiteStore) Players(ctx context.Context, bookingIDs []string) ([]domain.Player, error) {
	if len(bookingIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(bookingIDs)
	rows, err := s.db.QueryContext(ctx,
		"SELECT booking_id, user_id, is_booker FROM booking_players WHERE booking_id IN ("+in+") ORDER BY booking_id, is_booker DESC, rowid",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Player
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.BookingID, &p.UserID, &p.IsBooker); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// PartnerIDs retrieves users who played in a booking together with userID.
// PRE: limit > 0
func (s *SQLiteStore) PartnerIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT other.user_id FROM booking_players mine
		 JOIN booking_players other ON other.booking_id = mine.booking_id
		 WHERE mine.user_id = ? AND other.user_id <> ? ORDER BY other.user_id LIMIT ?`,
		userID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceOpponents rewrites game type and opponents in one transaction.
// PRE: opponents are normalized and validated against gameType
// POST: the booking has exactly the given opponents, or domain.ErrNotFound
func (s *SQLiteStore) ReplaceOpponents(ctx context.Context, bookingID, bookerID string, gameType domain.GameType, opponents []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET game_type = ? WHERE id = ? AND booker_user_id = ? AND status = ?",
		string(gameType), bookingID, bookerID, string(domain.StatusActive))
	if err != nil {
		return fmt.Errorf("update game type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM booking_players WHERE booking_id = ? AND is_booker = 0", bookingID); err != nil {
		return fmt.Errorf("delete opponents: %w", err)
	}

	players := domain.Players(bookingID, bookerID, opponents)[1:]
	if err := insertPlayers(ctx, tx, players); err != nil {
		return err
	}
	return tx.Commit()
}

// CancelOwned flips the owned active bookings among ids to cancelled.
// POST: returned bookings are the ones this call cancelled
func (s *SQLiteStore) CancelOwned(ctx context.Context, bookerID string, ids []string, now time.Time) ([]domain.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	where, args := filterClause(ListFilter{IDs: ids, BookerID: bookerID, Status: domain.StatusActive})
	owned, err := s.query(ctx, tx, selectColumns+" WHERE "+where+" ORDER BY starts_at", args...)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return nil, nil
	}

	ownedIDs := make([]string, len(owned))
	for i, b := range owned {
		ownedIDs[i] = b.ID
	}
	in, inArgs := inClause(ownedIDs)
	updateArgs := append([]any{string(domain.StatusCancelled), storage.FormatTime(now)}, inArgs...)
	if _, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status = ?, cancelled_at = ? WHERE id IN ("+in+")", updateArgs...); err != nil {
		return nil, fmt.Errorf("cancel bookings: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return owned, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) query(ctx context.Context, q querier, query string, args ...any) ([]domain.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	return results, rows.Err()
}

func filterClause(f ListFilter) (string, []any) {
	var where []string
	var args []any
	if len(f.IDs) > 0 {
		in, inArgs := inClause(f.IDs)
		where = append(where, "id IN ("+in+")")
		args = append(args, inArgs...)
	}
	if f.BookerID != "" {
		where = append(where, "booker_user_id = ?")
		args = append(args, f.BookerID)
	}
	if f.CourtID != "" {
		where = append(where, "court_id = ?")
		args = append(args, f.CourtID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		where = append(where, "starts_at >= ?")
		args = append(args, storage.FormatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "starts_at < ?")
		args = append(args, storage.FormatTime(f.To))
	}
	return strings.Join(where, " AND "), args
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

func scanBooking(scan func(dest ...any) error) (domain.Booking, error) {
	var b domain.Booking
	var gameType, status string
	var startsAt, endsAt, createdAt, cancelledAt sql.NullString
	if err := scan(&b.ID, &b.CourtID, &b.BookerID, &startsAt, &endsAt, &gameType, &status,
		&b.IsPeak, &b.IsCoaching, &createdAt, &cancelledAt); err != nil {
		return domain.Booking{}, err
	}
	b.GameType = domain.GameType(gameType)
	b.Status = domain.Status(status)
	b.StartsAt = storage.ParseTime(startsAt)
	b.EndsAt = storage.ParseTime(endsAt)
	b.CreatedAt = storage.ParseTime(createdAt)
	b.CancelledAt = storage.ParseTime(cancelledAt)
	return b, nil
}

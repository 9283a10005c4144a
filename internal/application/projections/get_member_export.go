package projections

import (
	"context"
	"time"

	bookingstore "teniszklub/internal/adapters/storage/booking"
	"teniszklub/internal/domain/export"
)

// ExportTransactionsLimit caps the ledger rows of one export.
const ExportTransactionsLimit = 10000

// GetMemberExportQuery carries query parameters.
type GetMemberExportQuery struct {
	UserID string
	Format string
	Now    time.Time
}

// GetMemberExportDeps holds dependencies for GetMemberExport.
type GetMemberExportDeps struct {
	Members  MemberStore
	Courts   CourtStore
	Bookings BookingStore
	Ledger   LedgerStore
}

// QueryGetMemberExport collects everything stored about one member.
// PRE: Format is json or csv
// POST: Bookings are oldest first, Transactions newest first
func QueryGetMemberExport(ctx context.Context, query GetMemberExportQuery, deps GetMemberExportDeps) (export.Data, error) {
	m, err := deps.Members.GetByID(ctx, query.UserID)
	if err != nil {
		return export.Data{}, err
	}
	courts, err := deps.Courts.List(ctx, false)
	if err != nil {
		return export.Data{}, err
	}
	courtNames := make(map[string]string, len(courts))
	for _, c := range courts {
		courtNames[c.ID] = c.Name
	}
	bookings, err := deps.Bookings.List(ctx, bookingstore.ListFilter{BookerID: m.ID})
	if err != nil {
		return export.Data{}, err
	}
	entries, err := deps.Ledger.Recent(ctx, m.ID, ExportTransactionsLimit)
	if err != nil {
		return export.Data{}, err
	}

	data := export.Data{
		Member: export.MemberData{
			ID:                  m.ID,
			Name:                m.DisplayName(),
			Email:               m.Email,
			Role:                m.Role,
			Category:            string(m.Category),
			IsActive:            m.IsActive,
			MembershipRequested: m.MembershipRequested,
			CreatedAt:           m.CreatedAt,
		},
		Bookings:     make([]export.BookingRecord, 0, len(bookings)),
		Transactions: make([]export.TransactionRecord, 0, len(entries)),
	}
	for _, b := range bookings {
		rec := export.BookingRecord{
			ID:         b.ID,
			CourtName:  courtNames[b.CourtID],
			StartsAt:   b.StartsAt,
			GameType:   string(b.GameType),
			Status:     string(b.Status),
			IsPeak:     b.IsPeak,
			IsCoaching: b.IsCoaching,
		}
		if !b.CancelledAt.IsZero() {
			cancelledAt := b.CancelledAt
			rec.CancelledAt = &cancelledAt
		}
		data.Bookings = append(data.Bookings, rec)
	}
	for _, e := range entries {
		data.Transactions = append(data.Transactions, export.TransactionRecord{
			ID:          e.ID,
			AccountType: string(e.AccountType),
			BookingID:   e.BookingID,
			AmountFt:    e.Amount,
			StatusCode:  e.StatusCode,
			Note:        e.Note,
			CreatedAt:   e.CreatedAt,
		})
	}
	if err := data.Finalize(query.Format, query.Now); err != nil {
		return export.Data{}, err
	}
	return data, nil
}

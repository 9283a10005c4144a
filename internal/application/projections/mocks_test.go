package projections

import (
	"context"
	"sort"
	"time"

	bookingstore "teniszklub/internal/adapters/storage/booking"
	ledgerstore "teniszklub/internal/adapters/storage/ledger"
	memberstore "teniszklub/internal/adapters/storage/member"
	domainBooking "teniszklub/internal/domain/booking"
	domainClosure "teniszklub/internal/domain/closure"
	domainCourt "teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	domainLedger "teniszklub/internal/domain/ledger"
	domainMember "teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

type mockMemberStore struct {
	members []domainMember.Member
}

func (s *mockMemberStore) GetByID(_ context.Context, id string) (domainMember.Member, error) {
	for _, m := range s.members {
		if m.ID == id {
			return m, nil
		}
	}
	return domainMember.Member{}, domainMember.ErrNotFound
}

func (s *mockMemberStore) GetByIDs(_ context.Context, ids []string) ([]domainMember.Member, error) {
	var out []domainMember.Member
	for _, m := range s.members {
		for _, id := range ids {
			if m.ID == id {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (s *mockMemberStore) List(_ context.Context, filter memberstore.ListFilter) ([]domainMember.Member, error) {
	var out []domainMember.Member
	for _, m := range s.members {
		if m.ID == filter.ExcludeID {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

type mockCourtStore struct {
	courts []domainCourt.Court
}

func (s *mockCourtStore) List(_ context.Context, activeOnly bool) ([]domainCourt.Court, error) {
	var out []domainCourt.Court
	for _, c := range s.courts {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

type mockClosureStore struct {
	closures []domainClosure.Closure
	from, to time.Time
}

func (s *mockClosureStore) ListOverlapping(_ context.Context, from, to time.Time) ([]domainClosure.Closure, error) {
	s.from, s.to = from, to
	var out []domainClosure.Closure
	for _, c := range s.closures {
		if !c.StartDate.After(to) && !c.EndDate.Before(from) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *mockClosureStore) List(context.Context) ([]domainClosure.Closure, error) {
	return s.closures, nil
}

type mockBookingStore struct {
	bookings     []domainBooking.Booking
	players      []domainBooking.Player
	partners     []string
	partnerLimit int
}

func (s *mockBookingStore) List(_ context.Context, f bookingstore.ListFilter) ([]domainBooking.Booking, error) {
	var out []domainBooking.Booking
	for _, b := range s.bookings {
		if f.BookerID != "" && b.BookerID != f.BookerID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && b.StartsAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !b.StartsAt.Before(f.To) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *mockBookingStore) Players(_ context.Context, ids []string) ([]domainBooking.Player, error) {
	var out []domainBooking.Player
	for _, p := range s.players {
		for _, id := range ids {
			if p.BookingID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (s *mockBookingStore) PartnerIDs(_ context.Context, _ string, limit int) ([]string, error) {
	s.partnerLimit = limit
	return s.partners, nil
}

// add stores a booking with its player rows.
func (s *mockBookingStore) add(b domainBooking.Booking, opponents ...string) {
	s.bookings = append(s.bookings, b)
	s.players = append(s.players, domainBooking.Players(b.ID, b.BookerID, opponents)...)
}

type mockLedgerStore struct {
	byUser map[string]map[domainLedger.AccountType]int64
	recent []ledgerstore.Entry
	limit  int
}

func (s *mockLedgerStore) Balance(_ context.Context, userID string) (int64, error) {
	var total int64
	for _, v := range s.byUser[userID] {
		total += v
	}
	return total, nil
}

func (s *mockLedgerStore) BalancesByType(_ context.Context, userID string) (map[domainLedger.AccountType]int64, error) {
	out := make(map[domainLedger.AccountType]int64)
	for k, v := range s.byUser[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *mockLedgerStore) BalancesByUser(ctx context.Context) (map[string]int64, error) {
	out := make(map[string]int64)
	for id := range s.byUser {
		out[id], _ = s.Balance(ctx, id)
	}
	return out, nil
}

func (s *mockLedgerStore) Recent(_ context.Context, userID string, limit int) ([]ledgerstore.Entry, error) {
	s.limit = limit
	var out []ledgerstore.Entry
	for _, e := range s.recent {
		if userID == "" || e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type mockRulesStore struct {
	rules feerules.Rules
	hours nonmember.AllowedHours
}

func newMockRulesStore() *mockRulesStore {
	return &mockRulesStore{rules: feerules.Defaults(), hours: nonmember.Defaults()}
}

func (s *mockRulesStore) FeeRules(context.Context) (feerules.Rules, error) { return s.rules, nil }

func (s *mockRulesStore) AllowedHours(context.Context) (nonmember.AllowedHours, error) {
	return s.hours, nil
}

func projMember(id, name string, category feerules.MemberCategory) domainMember.Member {
	return domainMember.Member{ID: id, Email: id + "@example.com", FullName: name, Role: domainMember.RoleMember, Category: category, IsActive: true}
}

func projBooking(id, courtID, bookerID string, startsAt time.Time) domainBooking.Booking {
	return domainBooking.Booking{
		ID:       id,
		CourtID:  courtID,
		BookerID: bookerID,
		StartsAt: startsAt,
		EndsAt:   startsAt.Add(time.Hour),
		GameType: domainBooking.GameSingles,
		Status:   domainBooking.StatusActive,
		IsPeak:   domainBooking.IsPeakHour(startsAt.Hour()),
	}
}

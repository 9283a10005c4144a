package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"teniszklub/internal/adapters/email"
	"teniszklub/internal/adapters/lock"
	bookingstore "teniszklub/internal/adapters/storage/booking"
	memberstore "teniszklub/internal/adapters/storage/member"
	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/booking"
	"teniszklub/internal/domain/closure"
	"teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/member"
	"teniszklub/internal/domain/nonmember"
)

// --- Mock member store ---

type mockMemberStore struct {
	members map[string]member.Member
	saveErr error
}

func newMockMemberStore(ms ...member.Member) *mockMemberStore {
	s := &mockMemberStore{members: make(map[string]member.Member)}
	for _, m := range ms {
		s.members[m.ID] = m
	}
	return s
}

func (s *mockMemberStore) GetByID(_ context.Context, id string) (member.Member, error) {
	m, ok := s.members[id]
	if !ok {
		return member.Member{}, member.ErrNotFound
	}
	return m, nil
}

func (s *mockMemberStore) GetByIDs(_ context.Context, ids []string) ([]member.Member, error) {
	var out []member.Member
	for _, id := range ids {
		if m, ok := s.members[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *mockMemberStore) GetByEmail(_ context.Context, email string) (member.Member, error) {
	for _, m := range s.members {
		if m.Email == member.NormalizeEmail(email) {
			return m, nil
		}
	}
	return member.Member{}, member.ErrNotFound
}

func (s *mockMemberStore) Create(_ context.Context, m member.Member) error {
	for _, existing := range s.members {
		if existing.Email == m.Email {
			return member.ErrDuplicateEmail
		}
	}
	s.members[m.ID] = m
	return nil
}

func (s *mockMemberStore) Save(_ context.Context, m member.Member) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.members[m.ID]; !ok {
		return member.ErrNotFound
	}
	s.members[m.ID] = m
	return nil
}

func (s *mockMemberStore) List(_ context.Context, filter memberstore.ListFilter) ([]member.Member, error) {
	var out []member.Member
	for _, m := range s.members {
		if filter.ExcludeID != "" && m.ID == filter.ExcludeID {
			continue
		}
		if filter.Role != "" && m.Role != filter.Role {
			continue
		}
		if filter.ActiveOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (s *mockMemberStore) Count(_ context.Context) (int, error) {
	return len(s.members), nil
}

// --- Mock court store ---

type mockCourtStore struct {
	courts map[string]court.Court
	getErr error
}

func newMockCourtStore(cs ...court.Court) *mockCourtStore {
	s := &mockCourtStore{courts: make(map[string]court.Court)}
	for _, c := range cs {
		s.courts[c.ID] = c
	}
	return s
}

func (s *mockCourtStore) GetByID(_ context.Context, id string) (court.Court, error) {
	if s.getErr != nil {
		return court.Court{}, s.getErr
	}
	c, ok := s.courts[id]
	if !ok {
		return court.Court{}, court.ErrNotFound
	}
	return c, nil
}

func (s *mockCourtStore) List(_ context.Context, activeOnly bool) ([]court.Court, error) {
	var out []court.Court
	for _, c := range s.courts {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (s *mockCourtStore) Save(_ context.Context, c court.Court) error {
	s.courts[c.ID] = c
	return nil
}

func (s *mockCourtStore) SwapSortOrder(_ context.Context, a, b court.Court) error {
	ca, okA := s.courts[a.ID]
	cb, okB := s.courts[b.ID]
	if !okA || !okB {
		return court.ErrNotFound
	}
	ca.SortOrder, cb.SortOrder = cb.SortOrder, ca.SortOrder
	s.courts[a.ID], s.courts[b.ID] = ca, cb
	return nil
}

// --- Mock closure store ---

type mockClosureStore struct {
	closures []closure.Closure
}

func (s *mockClosureStore) Create(_ context.Context, c closure.Closure) error {
	for _, existing := range s.closures {
		if existing.CourtID == c.CourtID && existing.StartDate.Equal(c.StartDate) && existing.EndDate.Equal(c.EndDate) &&
			hourOr(existing.StartHour) == hourOr(c.StartHour) && hourOr(existing.EndHour) == hourOr(c.EndHour) {
			return closure.ErrDuplicate
		}
	}
	s.closures = append(s.closures, c)
	return nil
}

func hourOr(h *int) int {
	if h == nil {
		return -1
	}
	return *h
}

func (s *mockClosureStore) Delete(_ context.Context, id string) error {
	for i, c := range s.closures {
		if c.ID == id {
			s.closures = append(s.closures[:i], s.closures[i+1:]...)
			return nil
		}
	}
	return closure.ErrNotFound
}

func (s *mockClosureStore) ListForCourtOn(_ context.Context, courtID string, date time.Time) ([]closure.Closure, error) {
	var out []closure.Closure
	for _, c := range s.closures {
		if c.CourtID == courtID && c.Contains(date) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *mockClosureStore) List(_ context.Context) ([]closure.Closure, error) {
	return append([]closure.Closure(nil), s.closures...), nil
}

// --- Mock booking store ---

type mockBookingStore struct {
	bookings  map[string]booking.Booking
	players   map[string][]booking.Player
	charges   []bookingstore.Charge
	createErr error
	// raceSlot makes Create report a lost race after the pre-check passed.
	raceSlot bool
}

func newMockBookingStore() *mockBookingStore {
	return &mockBookingStore{
		bookings: make(map[string]booking.Booking),
		players:  make(map[string][]booking.Player),
	}
}

func (s *mockBookingStore) Create(_ context.Context, b booking.Booking, players []booking.Player, charge *bookingstore.Charge) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.raceSlot {
		return booking.ErrSlotTaken
	}
	for _, existing := range s.bookings {
		if existing.IsActive() && existing.CourtID == b.CourtID && existing.StartsAt.Equal(b.StartsAt) {
			return booking.ErrSlotTaken
		}
	}
	s.bookings[b.ID] = b
	s.players[b.ID] = players
	if charge != nil {
		s.charges = append(s.charges, *charge)
	}
	return nil
}

func (s *mockBookingStore) GetByID(_ context.Context, id string) (booking.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (s *mockBookingStore) HasActiveAt(_ context.Context, courtID string, startsAt time.Time) (bool, error) {
	for _, b := range s.bookings {
		if b.IsActive() && b.CourtID == courtID && b.StartsAt.Equal(startsAt) {
			return true, nil
		}
	}
	return false, nil
}

func (s *mockBookingStore) List(_ context.Context, f bookingstore.ListFilter) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, b := range s.bookings {
		if f.BookerID != "" && b.BookerID != f.BookerID {
			continue
		}
		if f.CourtID != "" && b.CourtID != f.CourtID {
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
		if len(f.IDs) > 0 && !contains(f.IDs, b.ID) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (s *mockBookingStore) ReplaceOpponents(_ context.Context, bookingID, bookerID string, gameType booking.GameType, opponents []string) error {
	b, ok := s.bookings[bookingID]
	if !ok || b.BookerID != bookerID || !b.IsActive() {
		return booking.ErrNotFound
	}
	b.GameType = gameType
	s.bookings[bookingID] = b
	s.players[bookingID] = booking.Players(bookingID, bookerID, opponents)
	return nil
}

func (s *mockBookingStore) CancelOwned(_ context.Context, bookerID string, ids []string, now time.Time) ([]booking.Booking, error) {
	var out []booking.Booking
	for _, id := range ids {
		b, ok := s.bookings[id]
		if !ok || b.BookerID != bookerID || !b.IsActive() {
			continue
		}
		out = append(out, b)
		b.Status = booking.StatusCancelled
		b.CancelledAt = now
		s.bookings[id] = b
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// --- Mock ledger store ---

type mockLedgerStore struct {
	balances map[string]int64
	posted   []ledger.Transaction
	accounts []ledger.Account
}

func newMockLedgerStore() *mockLedgerStore {
	return &mockLedgerStore{balances: make(map[string]int64)}
}

func (s *mockLedgerStore) Balance(_ context.Context, userID string) (int64, error) {
	return s.balances[userID], nil
}

func (s *mockLedgerStore) Post(_ context.Context, acct ledger.Account, tx ledger.Transaction) (ledger.Transaction, error) {
	tx.AccountID = acct.ID
	s.accounts = append(s.accounts, acct)
	s.posted = append(s.posted, tx)
	s.balances[acct.UserID] += tx.Amount
	return tx, nil
}

// --- Mock rules store ---

type mockRulesStore struct {
	rules feerules.Rules
	hours nonmember.AllowedHours
	err   error
}

func newMockRulesStore() *mockRulesStore {
	return &mockRulesStore{rules: feerules.Defaults(), hours: nonmember.Defaults()}
}

func (s *mockRulesStore) FeeRules(context.Context) (feerules.Rules, error) {
	return s.rules, s.err
}

func (s *mockRulesStore) SaveFeeRules(_ context.Context, r feerules.Rules, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.rules = r
	return nil
}

func (s *mockRulesStore) AllowedHours(context.Context) (nonmember.AllowedHours, error) {
	return s.hours, s.err
}

func (s *mockRulesStore) SaveAllowedHours(_ context.Context, t nonmember.AllowedHours, _ time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.hours = t
	return nil
}

// --- Mock audit, mail and lock ---

type mockAudit struct {
	events []audit.Event
}

func (a *mockAudit) Save(_ context.Context, e audit.Event) error {
	a.events = append(a.events, e)
	return nil
}

type mockMailer struct {
	sent []email.SendRequest
	err  error
}

func (m *mockMailer) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	if m.err != nil {
		return email.SendResult{}, m.err
	}
	m.sent = append(m.sent, req)
	return email.SendResult{MessageID: "mock"}, nil
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("lock backend down")
}

var _ lock.Locker = failingLocker{}

// --- Helpers ---

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

var (
	adminActor  = Actor{ID: "admin", Role: member.RoleAdmin}
	memberActor = Actor{ID: "anna", Role: member.RoleMember}
)

func testMember(id, name string, category feerules.MemberCategory) member.Member {
	return member.Member{
		ID:       id,
		Email:    id + "@example.com",
		FullName: name,
		Role:     member.RoleMember,
		Category: category,
		IsActive: true,
	}
}

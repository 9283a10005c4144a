package projections

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	memberstore "teniszklub/internal/adapters/storage/member"
	"teniszklub/internal/application/listutil"
	"teniszklub/internal/domain/feerules"
	domainLedger "teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/nonmember"
)

// AdminPaymentsLimit caps the club-wide transaction history.
const AdminPaymentsLimit = 300

// AdminMember is a user row of the admin member and payment pages.
type AdminMember struct {
	ID                  string                  `json:"id"`
	Email               string                  `json:"email"`
	Name                string                  `json:"name"`
	Role                string                  `json:"role"`
	Category            feerules.MemberCategory `json:"category"`
	IsActive            bool                    `json:"isActive"`
	MembershipRequested bool                    `json:"membershipRequested"`
	BalanceFt           int64                   `json:"balanceFt"`
	DebtFt              int64                   `json:"debtFt"`
	CreatedAt           time.Time               `json:"createdAt"`
}

// GetAdminMembersResult carries the query result.
type GetAdminMembersResult struct {
	Members []AdminMember `json:"members"`
}

// GetAdminMembersDeps holds dependencies for GetAdminMembers.
type GetAdminMembersDeps struct {
	Members MemberStore
	Ledger  LedgerStore
}

// QueryGetAdminMembers lists every user with balance and debt.
// POST: members are ordered by name; users without transactions have zero balance
func QueryGetAdminMembers(ctx context.Context, deps GetAdminMembersDeps) (GetAdminMembersResult, error) {
	members, err := deps.Members.List(ctx, memberstore.ListFilter{})
	if err != nil {
		return GetAdminMembersResult{}, err
	}
	balances, err := deps.Ledger.BalancesByUser(ctx)
	if err != nil {
		return GetAdminMembersResult{}, err
	}
	out := make([]AdminMember, 0, len(members))
	for _, m := range members {
		balance := balances[m.ID]
		out = append(out, AdminMember{
			ID:                  m.ID,
			Email:               m.Email,
			Name:                m.DisplayName(),
			Role:                m.Role,
			Category:            m.Category,
			IsActive:            m.IsActive,
			MembershipRequested: m.MembershipRequested,
			BalanceFt:           balance,
			DebtFt:              domainLedger.Debt(balance),
			CreatedAt:           m.CreatedAt,
		})
	}
	return GetAdminMembersResult{Members: out}, nil
}

// Sortable columns of the admin member list; the first is the default.
var AdminMemberSortColumns = []string{"name", "email", "balance", "created"}

// AdminMemberPage is one filtered, sorted page of the admin member list.
type AdminMemberPage struct {
	Members []AdminMember     `json:"members"`
	Page    listutil.PageInfo `json:"page"`
}

// PageAdminMembers narrows members to those matching the search and
// category of p, orders them by p.Sort and cuts out the requested page.
// Search matches name or e-mail case-insensitively.
// POST: ties are broken by name so paging is stable
func PageAdminMembers(members []AdminMember, p listutil.Params) AdminMemberPage {
	needle := strings.ToLower(strings.TrimSpace(p.Search))
	matched := make([]AdminMember, 0, len(members))
	for _, m := range members {
		if p.Category != "" && string(m.Category) != p.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(m.Name), needle) &&
			!strings.Contains(strings.ToLower(m.Email), needle) {
			continue
		}
		matched = append(matched, m)
	}

	slices.SortStableFunc(matched, func(a, b AdminMember) int {
		var c int
		switch p.Sort {
		case "name":
			c = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		case "email":
			c = cmp.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
		case "balance":
			c = cmp.Compare(a.BalanceFt, b.BalanceFt)
		case "created":
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if p.Dir == listutil.Desc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
		return c
	})

	info := listutil.NewPageInfo(p.Page, p.PerPage, len(matched))
	return AdminMemberPage{Members: listutil.Window(matched, info), Page: info}
}

// GetAdminPaymentsResult carries the query result.
type GetAdminPaymentsResult struct {
	Members      []AdminMember              `json:"members"`
	Transactions []TransactionView          `json:"transactions"`
	AccountTypes []domainLedger.AccountType `json:"accountTypes"`
}

// QueryGetAdminPayments lists balances per member and the latest
// transactions of the whole club.
func QueryGetAdminPayments(ctx context.Context, deps GetAdminMembersDeps) (GetAdminPaymentsResult, error) {
	members, err := QueryGetAdminMembers(ctx, deps)
	if err != nil {
		return GetAdminPaymentsResult{}, err
	}
	names := make(map[string]string, len(members.Members))
	for _, m := range members.Members {
		names[m.ID] = m.Name
	}

	recent, err := deps.Ledger.Recent(ctx, "", AdminPaymentsLimit)
	if err != nil {
		return GetAdminPaymentsResult{}, err
	}
	txs := make([]TransactionView, 0, len(recent))
	for _, e := range recent {
		txs = append(txs, TransactionView{
			ID:          e.ID,
			UserID:      e.UserID,
			MemberName:  names[e.UserID],
			AccountType: e.AccountType,
			BookingID:   e.BookingID,
			AmountFt:    e.Amount,
			StatusCode:  e.StatusCode,
			Note:        e.Note,
			CreatedAt:   e.CreatedAt,
		})
	}
	return GetAdminPaymentsResult{
		Members:      members.Members,
		Transactions: txs,
		AccountTypes: domainLedger.AccountTypes,
	}, nil
}

// GetAdminCourtsDeps holds dependencies for the court and closure admin pages.
type GetAdminCourtsDeps struct {
	Courts   CourtStore
	Closures ClosureStore
}

// GetAdminClosuresResult carries the query result.
type GetAdminClosuresResult struct {
	Closures []ClosureView `json:"closures"`
	Courts   []CourtView   `json:"courts"`
}

// QueryGetAdminClosures lists every closure with its court name.
// POST: closures are ordered by start date, then start hour
func QueryGetAdminClosures(ctx context.Context, deps GetAdminCourtsDeps) (GetAdminClosuresResult, error) {
	courts, err := deps.Courts.List(ctx, false)
	if err != nil {
		return GetAdminClosuresResult{}, err
	}
	closures, err := deps.Closures.List(ctx)
	if err != nil {
		return GetAdminClosuresResult{}, err
	}
	return GetAdminClosuresResult{
		Closures: ClosureViews(closures, courtNames(courts)),
		Courts:   CourtViews(courts),
	}, nil
}

// QueryGetAdminCourts lists every court, inactive ones included.
func QueryGetAdminCourts(ctx context.Context, deps GetAdminCourtsDeps) ([]CourtView, error) {
	courts, err := deps.Courts.List(ctx, false)
	if err != nil {
		return nil, err
	}
	return CourtViews(courts), nil
}

// GetAdminSettingsResult carries the query result.
type GetAdminSettingsResult struct {
	FeeRules     feerules.Rules         `json:"feeRules"`
	AllowedHours nonmember.AllowedHours `json:"nonMemberAllowedHours"`
	Weekdays     []nonmember.Weekday    `json:"weekdays"`
}

// QueryGetAdminSettings returns both rule tables for editing.
func QueryGetAdminSettings(ctx context.Context, rules RulesStore) (GetAdminSettingsResult, error) {
	fees, err := rules.FeeRules(ctx)
	if err != nil {
		return GetAdminSettingsResult{}, err
	}
	hours, err := rules.AllowedHours(ctx)
	if err != nil {
		return GetAdminSettingsResult{}, err
	}
	return GetAdminSettingsResult{FeeRules: fees, AllowedHours: hours, Weekdays: nonmember.Weekdays}, nil
}

package projections

import (
	"context"
	"time"

	domainLedger "teniszklub/internal/domain/ledger"
)

// FinanceTransactionsLimit caps the member's transaction history.
const FinanceTransactionsLimit = 80

// GetFinanceDashboardQuery carries query parameters.
type GetFinanceDashboardQuery struct {
	UserID string
}

// AccountBalance is the balance of one typed account.
type AccountBalance struct {
	Type      domainLedger.AccountType `json:"accountType"`
	BalanceFt int64                    `json:"balanceFt"`
}

// TransactionView is a ledger entry as rendered to pages and JSON clients.
type TransactionView struct {
	ID          string                   `json:"id"`
	UserID      string                   `json:"userId,omitempty"`
	MemberName  string                   `json:"memberName,omitempty"`
	AccountType domainLedger.AccountType `json:"accountType"`
	BookingID   string                   `json:"bookingId,omitempty"`
	AmountFt    int64                    `json:"amountFt"`
	StatusCode  string                   `json:"statusCode"`
	Note        string                   `json:"note"`
	CreatedAt   time.Time                `json:"createdAt"`
}

// GetFinanceDashboardResult carries the query result.
type GetFinanceDashboardResult struct {
	Accounts     []AccountBalance  `json:"accounts"`
	Transactions []TransactionView `json:"transactions"`
	TotalFt      int64             `json:"totalFt"`
	DebtFt       int64             `json:"debtFt"`
}

// GetFinanceDashboardDeps holds dependencies for GetFinanceDashboard.
type GetFinanceDashboardDeps struct {
	Ledger LedgerStore
}

// QueryGetFinanceDashboard summarizes the user's accounts.
// POST: Accounts lists every account type, zero when never used; TotalFt is
// their sum over all transactions
func QueryGetFinanceDashboard(ctx context.Context, query GetFinanceDashboardQuery, deps GetFinanceDashboardDeps) (GetFinanceDashboardResult, error) {
	byType, err := deps.Ledger.BalancesByType(ctx, query.UserID)
	if err != nil {
		return GetFinanceDashboardResult{}, err
	}
	recent, err := deps.Ledger.Recent(ctx, query.UserID, FinanceTransactionsLimit)
	if err != nil {
		return GetFinanceDashboardResult{}, err
	}

	result := GetFinanceDashboardResult{
		Accounts:     make([]AccountBalance, 0, len(domainLedger.AccountTypes)),
		Transactions: make([]TransactionView, 0, len(recent)),
	}
	for _, t := range domainLedger.AccountTypes {
		result.Accounts = append(result.Accounts, AccountBalance{Type: t, BalanceFt: byType[t]})
		result.TotalFt += byType[t]
	}
	result.DebtFt = domainLedger.Debt(result.TotalFt)
	for _, e := range recent {
		result.Transactions = append(result.Transactions, TransactionView{
			ID:          e.ID,
			AccountType: e.AccountType,
			BookingID:   e.BookingID,
			AmountFt:    e.Amount,
			StatusCode:  e.StatusCode,
			Note:        e.Note,
			CreatedAt:   e.CreatedAt,
		})
	}
	return result, nil
}

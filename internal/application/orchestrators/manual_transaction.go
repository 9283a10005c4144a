package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/ledger"
	"teniszklub/internal/domain/member"
)

// ManualTransactionInput carries input for the orchestrator. Positive
// amounts credit the member, negative ones debit.
type ManualTransactionInput struct {
	Actor       Actor
	UserID      string
	AccountType ledger.AccountType
	AmountFt    int64
	Note        string
}

// ManualTransactionDeps holds dependencies for ManualTransaction.
type ManualTransactionDeps struct {
	Members    MemberReader
	Ledger     LedgerStore
	Audit      AuditSaver
	Now        func() time.Time
	GenerateID func() string
}

// ExecuteManualTransaction posts an admin ledger entry, opening the account
// on first use.
// PRE: Actor is an admin
// POST: status is H for credits and I for debits; the note is never blank
func ExecuteManualTransaction(ctx context.Context, input ManualTransactionInput, deps ManualTransactionDeps) (ledger.Transaction, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return ledger.Transaction{}, err
	}
	if strings.TrimSpace(input.UserID) == "" {
		return ledger.Transaction{}, newError(KindValidation, MsgMemberRequired, ledger.ErrEmptyUser)
	}
	if input.AmountFt == 0 {
		return ledger.Transaction{}, newError(KindValidation, MsgZeroAmount, ledger.ErrZeroAmount)
	}
	if !input.AccountType.Valid() {
		return ledger.Transaction{}, validationError(ledger.ErrInvalidAccountType)
	}
	if _, err := deps.Members.GetByID(ctx, input.UserID); errors.Is(err, member.ErrNotFound) {
		return ledger.Transaction{}, notFoundError(err)
	} else if err != nil {
		return ledger.Transaction{}, storageError("load_member_failed", MsgSaveFailed, err)
	}

	now := deps.Now()
	tx := ledger.Transaction{
		ID:         deps.GenerateID(),
		Amount:     input.AmountFt,
		Currency:   ledger.Currency,
		StatusCode: ledger.ManualStatus(input.AmountFt),
		Note:       ledger.ManualNote(input.Note),
		CreatedBy:  input.Actor.ID,
		CreatedAt:  now,
	}
	account := ledger.Account{
		ID:        deps.GenerateID(),
		UserID:    input.UserID,
		Type:      input.AccountType,
		IsActive:  true,
		CreatedAt: now,
	}
	posted, err := deps.Ledger.Post(ctx, account, tx)
	if err != nil {
		return ledger.Transaction{}, storageError("post_manual_transaction_failed", MsgSaveFailed, err)
	}

	slog.Info("ledger_event", "event", "manual_transaction_posted", "transaction_id", posted.ID,
		"user_id", input.UserID, "account_type", input.AccountType, "amount_ft", posted.Amount, "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, input.Actor.ID, audit.CategoryBilling, audit.ActionCreate).
		WithResource("transaction", posted.ID).
		WithDescription(posted.Note).
		WithMetadata(auditMetadata(map[string]any{
			"user_id":      input.UserID,
			"account_type": input.AccountType,
			"amount_ft":    posted.Amount,
		})))
	return posted, nil
}

// Package ledger is the append-only per-member money ledger. Negative amounts
// are charges, positive amounts are payments and credits.
package ledger

import (
	"errors"
	"strings"
	"time"
)

// AccountType separates a member's balances by purpose.
type AccountType string

// Account types
const (
	AccountMembership AccountType = "membership"
	AccountBase       AccountType = "base"
	AccountLighting   AccountType = "lighting"
	AccountExtra      AccountType = "extra"
)

// AccountTypes lists every account type in display order.
var AccountTypes = []AccountType{AccountMembership, AccountBase, AccountLighting, AccountExtra}

// Transaction status codes
const (
	StatusCharge = "N" // booking fee posted by the system
	StatusCredit = "H" // manual credit or payment
	StatusDebit  = "I" // manual debit
)

// Currency is the only currency the club books in.
const Currency = "HUF"

// DefaultManualNote is used when an admin posts an entry without a note.
const DefaultManualNote = "Manual admin entry"

// Domain errors
var (
	ErrInvalidAccountType = errors.New("account type must be one of: membership, base, lighting, extra")
	ErrZeroAmount         = errors.New("amount cannot be zero")
	ErrEmptyUser          = errors.New("member is required")
	ErrEmptyAccount       = errors.New("account is required")
)

// Account is one of a member's typed balances, created lazily on first use.
type Account struct {
	ID        string
	UserID    string
	Type      AccountType
	IsActive  bool
	CreatedAt time.Time
}

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID         string
	AccountID  string
	BookingID  string
	Amount     int64
	Currency   string
	StatusCode string
	Note       string
	CreatedBy  string
	CreatedAt  time.Time
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	for _, v := range AccountTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Validate checks if the Transaction has valid data.
// PRE: Transaction struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if t.Amount == 0 {
		return ErrZeroAmount
	}
	return nil
}

// ManualStatus returns the status code for an admin entry of amount.
func ManualStatus(amount int64) string {
	if amount >= 0 {
		return StatusCredit
	}
	return StatusDebit
}

// ManualNote trims note, falling back to DefaultManualNote.
func ManualNote(note string) string {
	if n := strings.TrimSpace(note); n != "" {
		return n
	}
	return DefaultManualNote
}

// BookingCharge builds the debit posted for a booking fee.
// PRE: fee > 0
func BookingCharge(accountID, bookingID, createdBy, note string, fee int64, now time.Time) Transaction {
	return Transaction{
		AccountID:  accountID,
		BookingID:  bookingID,
		Amount:     -fee,
		Currency:   Currency,
		StatusCode: StatusCharge,
		Note:       note,
		CreatedBy:  createdBy,
		CreatedAt:  now,
	}
}

// Balance sums transaction amounts.
func Balance(txs []Transaction) int64 {
	var total int64
	for _, tx := range txs {
		total += tx.Amount
	}
	return total
}

// Debt is the unpaid part of a balance: max(0, -balance).
func Debt(balance int64) int64 {
	if balance < 0 {
		return -balance
	}
	return 0
}

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Format constants for export file format.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Version is the layout version written into every export.
const Version = "1"

// Domain errors.
var (
	ErrInvalidFormat = errors.New("invalid format: must be 'json' or 'csv'")
	ErrEmptyMemberID = errors.New("member id is required")
)

// Data is a member's personal data export: profile, bookings and ledger.
type Data struct {
	Member         MemberData          `json:"member"`
	Bookings       []BookingRecord     `json:"bookings"`
	Transactions   []TransactionRecord `json:"transactions"`
	ExportMetadata Metadata            `json:"export_metadata"`
}

// MemberData represents the member profile.
type MemberData struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Role                string    `json:"role"`
	Category            string    `json:"category"`
	IsActive            bool      `json:"is_active"`
	MembershipRequested bool      `json:"membership_requested"`
	CreatedAt           time.Time `json:"created_at"`
}

// BookingRecord is one booking the member made, active or cancelled.
type BookingRecord struct {
	ID          string     `json:"id"`
	CourtName   string     `json:"court_name"`
	StartsAt    time.Time  `json:"starts_at"`
	GameType    string     `json:"game_type"`
	Status      string     `json:"status"`
	IsPeak      bool       `json:"is_peak"`
	IsCoaching  bool       `json:"is_coaching"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// TransactionRecord is one ledger entry of the member.
type TransactionRecord struct {
	ID          string    `json:"id"`
	AccountType string    `json:"account_type"`
	BookingID   string    `json:"booking_id,omitempty"`
	AmountFt    int64     `json:"amount_ft"`
	StatusCode  string    `json:"status_code"`
	Note        string    `json:"note"`
	CreatedAt   time.Time `json:"created_at"`
}

// Metadata contains information about the export itself.
type Metadata struct {
	ExportDate  time.Time `json:"export_date"`
	Format      string    `json:"format"`
	Version     string    `json:"version"`
	RecordCount int       `json:"record_count"`
}

// ParseFormat validates a requested format; empty means JSON.
func ParseFormat(format string) (string, error) {
	switch format {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	}
	return "", ErrInvalidFormat
}

// Finalize stamps the metadata for format at now.
// PRE: Member.ID is set
// POST: RecordCount counts bookings plus transactions
func (d *Data) Finalize(format string, now time.Time) error {
	if d.Member.ID == "" {
		return ErrEmptyMemberID
	}
	d.ExportMetadata = Metadata{
		ExportDate:  now,
		Format:      format,
		Version:     Version,
		RecordCount: len(d.Bookings) + len(d.Transactions),
	}
	return nil
}

// ToJSON serializes the Data to JSON format.
func (d *Data) ToJSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ToCSV renders the ledger as a spreadsheet: one row per transaction, oldest
// first, with a running balance column.
func (d *Data) ToCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "account", "amount_ft", "balance_ft", "status", "booking_id", "note"}); err != nil {
		return nil, err
	}
	var balance int64
	for i := len(d.Transactions) - 1; i >= 0; i-- {
		tx := d.Transactions[i]
		balance += tx.AmountFt
		if err := w.Write([]string{
			tx.CreatedAt.UTC().Format(time.RFC3339),
			tx.AccountType,
			strconv.FormatInt(tx.AmountFt, 10),
			strconv.FormatInt(balance, 10),
			tx.StatusCode,
			tx.BookingID,
			tx.Note,
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

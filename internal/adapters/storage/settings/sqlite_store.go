package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"teniszklub/internal/adapters/storage"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/nonmember"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new settings store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// feeRuleKeys maps stored snake_case keys onto Rules fields.
var feeRuleKeys = []struct {
	key   string
	field func(*feerules.Rules) *int64
}{
	{"base_rate_ft", func(r *feerules.Rules) *int64 { return &r.BaseRateFt }},
	{"non_member_peak_rate_ft", func(r *feerules.Rules) *int64 { return &r.NonMemberPeakRateFt }},
	{"non_member_offpeak_rate_ft", func(r *feerules.Rules) *int64 { return &r.NonMemberOffpeakRateFt }},
	{"diak_offpeak_discount_pct", func(r *feerules.Rules) *int64 { return &r.DiakOffpeakDiscountPct }},
	{"coaching_rate_ft", func(r *feerules.Rules) *int64 { return &r.CoachingRateFt }},
	{"versenyzoi_free_offpeak_hours_per_week", func(r *feerules.Rules) *int64 { return &r.VersenyzoiFreeOffpeakHoursPerWeek }},
	{"lighting_fee_ft", func(r *feerules.Rules) *int64 { return &r.LightingFeeFt }},
	{"mufuves_fee_ft", func(r *feerules.Rules) *int64 { return &r.MufuvesFeeFt }},
	{"debt_lockout_ft", func(r *feerules.Rules) *int64 { return &r.DebtLockoutFt }},
	{"late_cancel_minutes", func(r *feerules.Rules) *int64 { return &r.LateCancelMinutes }},
}

// FeeRules loads the rate table.
// POST: every field is populated and clamped into its valid domain
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) FeeRules(ctx context.Context) (feerules.Rules, error) {
	raw, err := s.get(ctx, KeyFeeRules)
	if err != nil {
		return feerules.Rules{}, err
	}
	return DecodeFeeRules(raw), nil
}

// DecodeFeeRules parses a stored rate table. Missing or unparseable fields
// keep their default.
func DecodeFeeRules(raw string) feerules.Rules {
	rules := feerules.Defaults()
	if raw == "" {
		return rules
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		slog.Warn("settings_event", "event", "setting_unreadable", "key", KeyFeeRules, "error", err)
		return rules
	}
	for _, k := range feeRuleKeys {
		if v, ok := wholeNumber(fields[k.key]); ok {
			*k.field(&rules) = v
		}
	}
	return rules.Normalize()
}

// wholeNumber accepts a JSON number or numeric string, rounded half away from zero.
func wholeNumber(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	return d.Round(0).IntPart(), true
}

// SaveFeeRules clamps and stores the rate table.
// POST: the stored value decodes to rules.Normalize()
func (s *SQLiteStore) SaveFeeRules(ctx context.Context, rules feerules.Rules, now time.Time) error {
	rules = rules.Normalize()
	out := make(map[string]int64, len(feeRuleKeys))
	for _, k := range feeRuleKeys {
		out[k.key] = *k.field(&rules)
	}
	return s.put(ctx, KeyFeeRules, out, now)
}

// AllowedHours loads the non-member hour table.
// POST: every weekday is present with valid, sorted, merged ranges
// INVARIANT: Store state is not mutated
func (s *SQLiteStore) AllowedHours(ctx context.Context) (nonmember.AllowedHours, error) {
	raw, err := s.get(ctx, KeyNonMemberAllowedHours)
	if err != nil {
		return nil, err
	}
	return DecodeAllowedHours(raw), nil
}

// DecodeAllowedHours parses a stored hour table. A weekday that is missing or
// not a list of ranges takes its default.
func DecodeAllowedHours(raw string) nonmember.AllowedHours {
	if raw == "" {
		return nonmember.Defaults()
	}
	var days map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		slog.Warn("settings_event", "event", "setting_unreadable", "key", KeyNonMemberAllowedHours, "error", err)
		return nonmember.Defaults()
	}
	table := make(nonmember.AllowedHours, len(days))
	for _, day := range nonmember.Weekdays {
		value, ok := days[string(day)]
		if !ok {
			continue
		}
		var ranges []nonmember.HourRange
		if err := json.Unmarshal(value, &ranges); err != nil {
			continue
		}
		if ranges == nil {
			ranges = []nonmember.HourRange{}
		}
		table[day] = ranges
	}
	return nonmember.Normalize(table)
}

// SaveAllowedHours normalizes and stores the hour table.
func (s *SQLiteStore) SaveAllowedHours(ctx context.Context, table nonmember.AllowedHours, now time.Time) error {
	return s.put(ctx, KeyNonMemberAllowedHours, nonmember.Normalize(table), now)
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (s *SQLiteStore) put(ctx context.Context, key string, value any, now time.Time) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), storage.FormatTime(now))
	return err
}

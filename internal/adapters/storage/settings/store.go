package settings

import (
	"context"
	"time"

	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/nonmember"
)

// Setting keys
const (
	KeyFeeRules              = "fee_rules"
	KeyNonMemberAllowedHours = "non_member_allowed_hours"
)

// Store persists the club-wide rule tables. Reads never fail on a missing or
// garbled value; they fall back to defaults.
type Store interface {
	FeeRules(ctx context.Context) (feerules.Rules, error)
	SaveFeeRules(ctx context.Context, rules feerules.Rules, now time.Time) error
	AllowedHours(ctx context.Context) (nonmember.AllowedHours, error)
	SaveAllowedHours(ctx context.Context, table nonmember.AllowedHours, now time.Time) error
}

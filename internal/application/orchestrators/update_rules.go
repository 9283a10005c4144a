package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"teniszklub/internal/domain/audit"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/nonmember"
)

// UpdateFeeRulesInput carries input for the orchestrator.
type UpdateFeeRulesInput struct {
	Actor Actor
	Rules feerules.Rules
}

// UpdateRulesDeps holds dependencies for the rule-table orchestrators.
type UpdateRulesDeps struct {
	Rules RulesStore
	Audit AuditSaver
	Now   func() time.Time
}

// ExecuteUpdateFeeRules clamps and stores the rate table. Out-of-range input
// is normalized, never rejected.
// PRE: Actor is an admin
// POST: the stored table equals the returned, normalized table
func ExecuteUpdateFeeRules(ctx context.Context, input UpdateFeeRulesInput, deps UpdateRulesDeps) (feerules.Rules, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return feerules.Rules{}, err
	}

	rules := input.Rules.Normalize()
	now := deps.Now()
	if err := deps.Rules.SaveFeeRules(ctx, rules, now); err != nil {
		return feerules.Rules{}, storageError("save_fee_rules_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "fee_rules_updated", "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, input.Actor.ID, audit.CategoryFees, audit.ActionUpdate).
		WithResource("settings", "fee_rules").
		WithDescription("fee rules updated").
		WithMetadata(auditMetadata(rules)))
	return rules, nil
}

// UpdateNonMemberHoursInput carries input for the orchestrator.
type UpdateNonMemberHoursInput struct {
	Actor Actor
	Hours nonmember.AllowedHours
}

// ExecuteUpdateNonMemberHours normalizes and stores the court-renter hour
// table. A weekday saved with no ranges is unrestricted.
// PRE: Actor is an admin
// POST: every weekday has valid, sorted, merged ranges
func ExecuteUpdateNonMemberHours(ctx context.Context, input UpdateNonMemberHoursInput, deps UpdateRulesDeps) (nonmember.AllowedHours, error) {
	if err := requireAdmin(input.Actor); err != nil {
		return nil, err
	}

	table := nonmember.Normalize(input.Hours)
	now := deps.Now()
	if err := deps.Rules.SaveAllowedHours(ctx, table, now); err != nil {
		return nil, storageError("save_allowed_hours_failed", MsgSaveFailed, err)
	}

	slog.Info("admin_event", "event", "non_member_hours_updated", "actor_id", input.Actor.ID)
	recordAudit(ctx, deps.Audit, audit.NewEvent(now, input.Actor.ID, audit.CategoryFees, audit.ActionUpdate).
		WithResource("settings", "non_member_allowed_hours").
		WithDescription("non-member hours updated").
		WithMetadata(auditMetadata(table)))
	return table, nil
}

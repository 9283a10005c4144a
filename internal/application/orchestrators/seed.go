package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"teniszklub/internal/domain/court"
	"teniszklub/internal/domain/feerules"
	"teniszklub/internal/domain/member"
)

// DefaultCourtCount is the number of courts a fresh database starts with.
const DefaultCourtCount = 4

// SeedDeps holds stores needed for first-run seeding.
type SeedDeps struct {
	Members    MemberStore
	Courts     CourtStore
	Now        func() time.Time
	GenerateID func() string
}

// SeedAdminInput names the bootstrap admin.
type SeedAdminInput struct {
	Email    string
	Password string
	FullName string
}

// ExecuteSeedAdmin creates the bootstrap admin unless a user with that email
// already exists. It is idempotent.
// PRE: Database is migrated
// POST: a user with input.Email exists
func ExecuteSeedAdmin(ctx context.Context, input SeedAdminInput, deps SeedDeps) error {
	if input.Email == "" || input.Password == "" {
		return nil
	}
	email := member.NormalizeEmail(input.Email)
	if _, err := deps.Members.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, member.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	name := input.FullName
	if name == "" {
		name = "Administrator"
	}
	m := member.Member{
		ID:        deps.GenerateID(),
		Email:     email,
		FullName:  name,
		Role:      member.RoleAdmin,
		Category:  feerules.CategoryNormal,
		IsActive:  true,
		CreatedAt: deps.Now(),
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("admin seed: %w", err)
	}
	if err := m.SetPassword(input.Password); err != nil {
		return fmt.Errorf("admin seed: %w", err)
	}
	if err := deps.Members.Create(ctx, m); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("seed_event", "event", "admin_seeded", "user_id", m.ID)
	return nil
}

// ExecuteSeedCourts creates the default courts when none exist.
// PRE: Database is migrated
// POST: at least one court exists
func ExecuteSeedCourts(ctx context.Context, deps SeedDeps) error {
	existing, err := deps.Courts.List(ctx, false)
	if err != nil {
		return fmt.Errorf("list courts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	now := deps.Now()
	for i := 1; i <= DefaultCourtCount; i++ {
		c := court.Court{
			ID:        deps.GenerateID(),
			Name:      fmt.Sprintf("Court %d", i),
			IsActive:  true,
			SortOrder: i,
			CreatedAt: now,
		}
		if err := deps.Courts.Save(ctx, c); err != nil {
			return fmt.Errorf("create court %d: %w", i, err)
		}
	}
	slog.Info("seed_event", "event", "courts_seeded", "count", DefaultCourtCount)
	return nil
}

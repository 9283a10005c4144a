package member

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"teniszklub/internal/domain/feerules"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength    = 254
	MaxFullNameLength = 120
	MinPasswordLength = 8
)

// Role constants
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Login lockout policy.
const (
	MaxFailedLogins = 5
	LockoutDuration = 15 * time.Minute
)

// UnnamedPlayer is shown wherever a member has no usable name.
const UnnamedPlayer = "Unnamed player"

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleMember}

// Domain errors
var (
	ErrEmptyEmail       = errors.New("email cannot be empty")
	ErrInvalidEmail     = errors.New("email must contain '@'")
	ErrEmailTooLong     = errors.New("email cannot exceed 254 characters")
	ErrEmptyFullName    = errors.New("full name cannot be empty")
	ErrFullNameTooLong  = errors.New("full name cannot exceed 120 characters")
	ErrInvalidRole      = errors.New("role must be one of: admin, member")
	ErrInvalidCategory  = errors.New("member category must be one of: normal, diak, versenyzoi, palyaberlo")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWrongPassword    = errors.New("incorrect password")
	ErrDuplicateEmail   = errors.New("an account with this email already exists")
	ErrNotFound         = errors.New("member not found")
)

// Member is a portal user: a club member, a court renter or an admin.
type Member struct {
	ID                  string
	Email               string
	FullName            string
	PasswordHash        string
	Role                string
	Category            feerules.MemberCategory
	IsActive            bool
	MembershipRequested bool
	FailedLogins        int
	LockedUntil         time.Time
	CreatedAt           time.Time
}

// Validate checks if the Member has valid data.
// PRE: Member struct is populated
// POST: Returns nil if valid, error otherwise
func (m *Member) Validate() error {
	email := strings.TrimSpace(m.Email)
	if email == "" {
		return ErrEmptyEmail
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	name := strings.TrimSpace(m.FullName)
	if name == "" {
		return ErrEmptyFullName
	}
	if len(name) > MaxFullNameLength {
		return ErrFullNameTooLong
	}
	if !IsValidRole(m.Role) {
		return ErrInvalidRole
	}
	if !m.Category.IsValid() {
		return ErrInvalidCategory
	}
	return nil
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName returns the trimmed full name, or a placeholder.
// INVARIANT: Member fields are not mutated
func (m *Member) DisplayName() string {
	if name := strings.TrimSpace(m.FullName); name != "" {
		return name
	}
	return UnnamedPlayer
}

// SetPassword hashes and stores a password using bcrypt with cost 12.
// PRE: plaintext is non-empty and >= 8 characters
// POST: PasswordHash is set to bcrypt hash
func (m *Member) SetPassword(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if len(plaintext) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), 12)
	if err != nil {
		return err
	}
	m.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// PRE: PasswordHash is set
// INVARIANT: Member fields are not mutated
func (m *Member) CheckPassword(plaintext string) error {
	if m.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsLocked returns true if the member is locked out of login at now.
// INVARIANT: Member fields are not mutated
func (m *Member) IsLocked(now time.Time) bool {
	return !m.LockedUntil.IsZero() && now.Before(m.LockedUntil)
}

// RecordFailedLogin increments the failed login counter and locks the member
// after MaxFailedLogins failures.
// POST: FailedLogins incremented; LockedUntil set if >= MaxFailedLogins
func (m *Member) RecordFailedLogin(now time.Time) {
	m.FailedLogins++
	if m.FailedLogins >= MaxFailedLogins {
		m.LockedUntil = now.Add(LockoutDuration)
	}
}

// ResetFailedLogins clears the failed login counter and lock.
// POST: FailedLogins is 0, LockedUntil is zero
func (m *Member) ResetFailedLogins() {
	m.FailedLogins = 0
	m.LockedUntil = time.Time{}
}

// IsAdmin returns true if the member has admin role.
// INVARIANT: Member fields are not mutated
func (m *Member) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// ApplyCategory sets the category. Promoting to any member category also
// activates the user and settles a pending membership request.
// POST: Category is c; if c is not palyaberlo, IsActive and !MembershipRequested
func (m *Member) ApplyCategory(c feerules.MemberCategory) error {
	if !c.IsValid() {
		return ErrInvalidCategory
	}
	m.Category = c
	if c != feerules.CategoryPalyaberlo {
		m.IsActive = true
		m.MembershipRequested = false
	}
	return nil
}

// IsValidRole reports whether role is a known role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

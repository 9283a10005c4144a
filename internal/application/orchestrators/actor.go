package orchestrators

import (
	"strings"

	"teniszklub/internal/domain/member"
)

// Actor is the signed-in user an action runs as, resolved from the session.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == member.RoleAdmin
}

func requireSignedIn(a Actor) error {
	if strings.TrimSpace(a.ID) == "" {
		return newError(KindAuthorization, MsgSignInRequired, nil)
	}
	return nil
}

func requireAdmin(a Actor) error {
	if err := requireSignedIn(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return newError(KindAuthorization, MsgAdminRequired, nil)
	}
	return nil
}

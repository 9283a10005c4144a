package orchestrators

import (
	"context"
	"strings"

	"teniszklub/internal/domain/member"
)

// PlayerName pairs a user id with the name shown for it.
type PlayerName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resolvePlayerNames looks up ids, keeping their order. Unknown users get the
// unnamed placeholder.
func resolvePlayerNames(ctx context.Context, members MemberReader, ids []string) ([]PlayerName, error) {
	out := make([]PlayerName, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	found, err := members.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(found))
	for _, m := range found {
		names[m.ID] = m.DisplayName()
	}
	for _, id := range ids {
		name, ok := names[id]
		if !ok {
			name = member.UnnamedPlayer
		}
		out = append(out, PlayerName{ID: id, Name: name})
	}
	return out, nil
}

// uniqueIDs trims, drops blanks and deduplicates ids.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package projections

import (
	"context"

	domainBooking "teniszklub/internal/domain/booking"
	domainMember "teniszklub/internal/domain/member"
)

// Player is a user id with the name shown for it.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// playerIndex groups the non-booker players of each booking and resolves
// every name involved in one member lookup.
type playerIndex struct {
	opponents map[string][]string
	names     map[string]string
}

func loadPlayers(ctx context.Context, bookings BookingStore, members MemberStore, list []domainBooking.Booking) (playerIndex, error) {
	idx := playerIndex{opponents: make(map[string][]string), names: make(map[string]string)}
	if len(list) == 0 {
		return idx, nil
	}
	ids := make([]string, len(list))
	userIDs := make([]string, 0, len(list))
	seen := make(map[string]bool)
	for i, b := range list {
		ids[i] = b.ID
		if !seen[b.BookerID] {
			seen[b.BookerID] = true
			userIDs = append(userIDs, b.BookerID)
		}
	}

	players, err := bookings.Players(ctx, ids)
	if err != nil {
		return idx, err
	}
	for _, p := range players {
		if p.IsBooker {
			continue
		}
		idx.opponents[p.BookingID] = append(idx.opponents[p.BookingID], p.UserID)
		if !seen[p.UserID] {
			seen[p.UserID] = true
			userIDs = append(userIDs, p.UserID)
		}
	}

	found, err := members.GetByIDs(ctx, userIDs)
	if err != nil {
		return idx, err
	}
	for _, m := range found {
		idx.names[m.ID] = m.DisplayName()
	}
	return idx, nil
}

func (idx playerIndex) name(userID string) string {
	if n, ok := idx.names[userID]; ok {
		return n
	}
	return domainMember.UnnamedPlayer
}

func (idx playerIndex) opponentsOf(bookingID string) []Player {
	ids := idx.opponents[bookingID]
	out := make([]Player, len(ids))
	for i, id := range ids {
		out[i] = Player{ID: id, Name: idx.name(id)}
	}
	return out
}

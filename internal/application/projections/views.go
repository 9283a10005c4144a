package projections

import (
	domainClosure "teniszklub/internal/domain/closure"
	domainCourt "teniszklub/internal/domain/court"
)

// CourtView is a court as rendered to pages and JSON clients.
type CourtView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	IsActive    bool   `json:"isActive"`
	SortOrder   int    `json:"sortOrder"`
	HasLighting bool   `json:"hasLighting"`
	IsMufuves   bool   `json:"isMufuves"`
}

// ClosureView is a court closure with dates as YYYY-MM-DD.
type ClosureView struct {
	ID        string `json:"id"`
	CourtID   string `json:"courtId"`
	CourtName string `json:"courtName,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartHour *int   `json:"startHour"`
	EndHour   *int   `json:"endHour"`
	Reason    string `json:"reason,omitempty"`
}

const dateLayout = "2006-01-02"

// CourtViews converts courts keeping their order.
func CourtViews(courts []domainCourt.Court) []CourtView {
	out := make([]CourtView, len(courts))
	for i, c := range courts {
		out[i] = CourtView{
			ID:          c.ID,
			Name:        c.Name,
			IsActive:    c.IsActive,
			SortOrder:   c.SortOrder,
			HasLighting: c.HasLighting,
			IsMufuves:   c.IsMufuves,
		}
	}
	return out
}

// ClosureViews converts closures keeping their order. names maps court ids to
// names and may be nil.
func ClosureViews(closures []domainClosure.Closure, names map[string]string) []ClosureView {
	out := make([]ClosureView, len(closures))
	for i, c := range closures {
		out[i] = ClosureView{
			ID:        c.ID,
			CourtID:   c.CourtID,
			CourtName: names[c.CourtID],
			StartDate: c.StartDate.Format(dateLayout),
			EndDate:   c.EndDate.Format(dateLayout),
			StartHour: c.StartHour,
			EndHour:   c.EndHour,
			Reason:    c.Reason,
		}
	}
	return out
}

func courtNames(courts []domainCourt.Court) map[string]string {
	names := make(map[string]string, len(courts))
	for _, c := range courts {
		names[c.ID] = c.Name
	}
	return names
}

// Blocks reports whether the closure makes date (YYYY-MM-DD) and hour
// unbookable. A closure without both hours covers whole days.
func (c ClosureView) Blocks(date string, hour int) bool {
	if date < c.StartDate || date > c.EndDate {
		return false
	}
	if c.StartHour == nil || c.EndHour == nil {
		return true
	}
	return hour >= *c.StartHour && hour < *c.EndHour
}

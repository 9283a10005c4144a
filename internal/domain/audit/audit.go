package audit

import (
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the area of the portal they touch.
type Category string

const (
	CategoryFees     Category = "fees"
	CategoryCourt    Category = "court"
	CategoryClosure  Category = "closure"
	CategoryMember   Category = "member"
	CategoryBilling  Category = "billing"
	CategorySecurity Category = "security"
)

// Action represents the action that occurred.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionMove   Action = "move"
	ActionLogin  Action = "login"
)

// Severity represents the severity level of an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is a single audit log entry recorded for an admin mutation or a
// security-relevant member action.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	ActorID      string    `json:"actor_id"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Description  string    `json:"description"`
	Metadata     string    `json:"metadata"`
}

// NewEvent creates an info-level event stamped with now.
// PRE: actorID and action are non-empty
func NewEvent(now time.Time, actorID string, category Category, action Action) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: now,
		Category:  category,
		Action:    action,
		Severity:  SeverityInfo,
		ActorID:   actorID,
	}
}

// WithSeverity sets the severity level.
func (e Event) WithSeverity(s Severity) Event {
	e.Severity = s
	return e
}

// WithResource sets resource information.
func (e Event) WithResource(resourceType, resourceID string) Event {
	e.ResourceType = resourceType
	e.ResourceID = resourceID
	return e
}

// WithDescription sets the event description.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithMetadata sets optional JSON metadata.
// PRE: metadata is valid JSON or empty
func (e Event) WithMetadata(metadata string) Event {
	e.Metadata = metadata
	return e
}

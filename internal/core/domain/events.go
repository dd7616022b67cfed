package domain

import "time"

// MemberProvisionedEvent is emitted after a provisioning flow completes, on
// either the self-service or the administrative path.
type MemberProvisionedEvent struct {
	EventID              string         `json:"event_id"`
	UserID               string         `json:"user_id"`
	Email                string         `json:"email"`
	Document             string         `json:"document"`
	Role                 Role           `json:"role"`
	Method               string         `json:"method"`
	RequiresConfirmation bool           `json:"requires_confirmation"`
	ProvisionedAt        time.Time      `json:"provisioned_at"`
	Metadata             map[string]any `json:"metadata,omitempty"`
}

// Provisioning methods recorded on MemberProvisionedEvent.
const (
	ProvisionMethodSelfService = "self_service"
	ProvisionMethodAdmin       = "admin"
)

package types

import "time"

// SessionStatus represents the lifecycle state of a consultation session.
// The wire values are fixed for interoperability: exactly
// scheduled|active|completed|cancelled.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is one of the four wire values
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionActive, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Session represents a consultation driven through the booking lifecycle
type Session struct {
	ID                     string           `json:"id"`
	UserID                 string           `json:"user_id"`
	ProviderID             string           `json:"provider_id"`
	Type                   ConsultationType `json:"type"`
	Urgency                UrgencyTier      `json:"urgency"`
	ScheduledAt            time.Time        `json:"scheduled_at"`
	DurationMinutes        int              `json:"duration_minutes"`
	Status                 SessionStatus    `json:"status"`
	MeetingURL             string           `json:"meeting_url"`
	Notes                  string           `json:"notes"`
	FollowUpRequired       bool             `json:"follow_up_required"`
	Cost                   float64          `json:"cost"`
	HealthSummaryGenerated bool             `json:"health_summary_generated"`
	TriggerEvent           *TriggerEvent    `json:"trigger_event,omitempty"`
	SlotID                 string           `json:"slot_id,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// ScheduleRequest is the input to a session booking call
type ScheduleRequest struct {
	UserID           string           `json:"user_id"`
	ProviderID       string           `json:"provider_id"`
	Type             ConsultationType `json:"type"`
	Urgency          UrgencyTier      `json:"urgency"`
	PreferredTime    *time.Time       `json:"preferred_time,omitempty"`
	FollowUpRequired bool             `json:"follow_up_required,omitempty"`
	TriggerEvent     *TriggerEvent    `json:"trigger_event,omitempty"`
}

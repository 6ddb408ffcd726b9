package types

import "time"

// HealthFlag is an opaque risk-signal token produced by upstream health
// monitoring (e.g. "high_heart_rate", "diabetes_risk"). The engine never
// validates flag semantics; unknown flags fall through to the lowest
// urgency tier and the generalist specialty.
type HealthFlag string

// UrgencyTier represents how quickly a user needs professional attention
type UrgencyTier string

const (
	TierCritical UrgencyTier = "critical"
	TierHigh     UrgencyTier = "high"
	TierMedium   UrgencyTier = "medium"
	TierLow      UrgencyTier = "low"
)

// Severity returns the rank of a tier, lower is more severe
func (t UrgencyTier) Severity() int {
	switch t {
	case TierCritical:
		return 0
	case TierHigh:
		return 1
	case TierMedium:
		return 2
	case TierLow:
		return 3
	default:
		return 4
	}
}

// Valid reports whether the tier is one of the four known values
func (t UrgencyTier) Valid() bool {
	return t.Severity() < 4
}

// TierPolicy carries the per-tier routing rules: the maximum acceptable
// wait before a consultation and whether sessions at this tier may be
// booked without human confirmation.
type TierPolicy struct {
	MaxWait      time.Duration `json:"max_wait"`
	AutoSchedule bool          `json:"auto_schedule"`
}

// DefaultTierPolicies returns the built-in tier policy table. Only the
// critical tier is eligible for automatic scheduling.
func DefaultTierPolicies() map[UrgencyTier]TierPolicy {
	return map[UrgencyTier]TierPolicy{
		TierCritical: {MaxWait: 15 * time.Minute, AutoSchedule: true},
		TierHigh:     {MaxWait: 24 * time.Hour, AutoSchedule: false},
		TierMedium:   {MaxWait: 72 * time.Hour, AutoSchedule: false},
		TierLow:      {MaxWait: 7 * 24 * time.Hour, AutoSchedule: false},
	}
}

// Specialty is a closed category of medical expertise used to filter
// providers. Unmapped flags resolve to SpecialtyGeneralPractitioner.
type Specialty string

const (
	SpecialtyCardiology          Specialty = "cardiology"
	SpecialtyEndocrinology       Specialty = "endocrinology"
	SpecialtyMentalHealth        Specialty = "mental_health"
	SpecialtyPulmonology         Specialty = "pulmonology"
	SpecialtyNeurology           Specialty = "neurology"
	SpecialtyGeneralPractitioner Specialty = "general_practitioner"
)

// ConsultationType represents the kind of session being booked
type ConsultationType string

const (
	ConsultEmergency    ConsultationType = "emergency"
	ConsultRoutine      ConsultationType = "routine"
	ConsultFollowUp     ConsultationType = "follow_up"
	ConsultMentalHealth ConsultationType = "mental_health"
)

// Valid reports whether the consultation type is a known value
func (c ConsultationType) Valid() bool {
	switch c {
	case ConsultEmergency, ConsultRoutine, ConsultFollowUp, ConsultMentalHealth:
		return true
	}
	return false
}

// TriggerEvent records what set off a triage request
type TriggerEvent struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// MatchConstraints carries the optional caller preferences applied when
// filtering providers. Empty fields impose no constraint.
type MatchConstraints struct {
	Language  string `json:"language,omitempty"`
	Insurance string `json:"insurance,omitempty"`
}

// TriageRequest is the input to a triage call
type TriageRequest struct {
	UserID       string            `json:"user_id"`
	Flags        []HealthFlag      `json:"flags"`
	TriggerEvent *TriggerEvent     `json:"trigger_event,omitempty"`
	Constraints  *MatchConstraints `json:"constraints,omitempty"`
}

// TriageResult is the immutable outcome of a triage call. It is a complete
// artifact on its own: scheduling failures after its construction never
// invalidate it.
type TriageResult struct {
	UserID             string       `json:"user_id"`
	Flags              []HealthFlag `json:"flags"`
	Urgency            UrgencyTier  `json:"urgency"`
	Specialty          Specialty    `json:"specialty"`
	ReferralReason     string       `json:"referral_reason"`
	Shortlist          []*Provider  `json:"shortlist"`
	AutoSchedule       bool         `json:"auto_schedule"`
	EstimatedWait      string       `json:"estimated_wait"`
	ScheduledSessionID string       `json:"scheduled_session_id,omitempty"`
	Degraded           bool         `json:"degraded,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

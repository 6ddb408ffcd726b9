package types

import "time"

// Provider represents a care professional in the directory
type Provider struct {
	ID                string             `json:"id" db:"id"`
	Name              string             `json:"name" db:"name"`
	Specialties       []Specialty        `json:"specialties" db:"specialties"`
	Rating            float64            `json:"rating" db:"rating"`
	ConsultationTypes []ConsultationType `json:"consultation_types" db:"consultation_types"`
	UrgencyTiers      []UrgencyTier      `json:"urgency_tiers" db:"urgency_tiers"`
	Languages         []string           `json:"languages" db:"languages"`
	InsuranceNetworks []string           `json:"insurance_networks" db:"insurance_networks"`
	WeeklySchedule    WeeklySchedule     `json:"weekly_schedule,omitempty"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// HasSpecialty reports whether the provider declares the given specialty
func (p *Provider) HasSpecialty(s Specialty) bool {
	for _, have := range p.Specialties {
		if have == s {
			return true
		}
	}
	return false
}

// SupportsUrgency reports whether the provider accepts sessions at the tier
func (p *Provider) SupportsUrgency(t UrgencyTier) bool {
	for _, have := range p.UrgencyTiers {
		if have == t {
			return true
		}
	}
	return false
}

// SpeaksLanguage reports whether the provider supports the language
func (p *Provider) SpeaksLanguage(lang string) bool {
	for _, have := range p.Languages {
		if have == lang {
			return true
		}
	}
	return false
}

// AcceptsInsurance reports whether the provider accepts the insurance network
func (p *Provider) AcceptsInsurance(network string) bool {
	for _, have := range p.InsuranceNetworks {
		if have == network {
			return true
		}
	}
	return false
}

// WeeklySchedule maps a weekday to the provider's open intervals on that day
type WeeklySchedule map[time.Weekday][]ScheduleInterval

// ScheduleInterval is an open interval within a working day, clock times
// in "15:04" format, local to the directory's time zone.
type ScheduleInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// AvailabilitySlot is a bookable block of a provider's calendar. Once a
// booking flips Available to false the slot stays claimed until it is
// explicitly released, e.g. when a session is cancelled before its
// scheduled time.
type AvailabilitySlot struct {
	ID        string        `json:"id"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Available bool          `json:"available"`
}

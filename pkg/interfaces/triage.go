package interfaces

import (
	"context"
	"time"

	"github.com/healthfolio/careroute/pkg/types"
)

// TriageService is the engine's external contract: classify risk, route to
// a provider, and drive consultation sessions through their lifecycle.
type TriageService interface {
	// Triage runs the full decision pipeline for a set of health flags
	Triage(ctx context.Context, req *types.TriageRequest) (*types.TriageResult, error)

	// Session lifecycle
	Schedule(ctx context.Context, req *types.ScheduleRequest) (*types.Session, error)
	UpdateSessionStatus(sessionID string, status types.SessionStatus, notes string) (bool, error)
	GetSession(sessionID string) (*types.Session, bool)
	GetUserSessions(userID string) []*types.Session

	// Directory queries
	Providers(specialty types.Specialty) []*types.Provider

	// Service management
	Start(addr string) error
	Stop() error
}

// ProviderDirectory owns the provider roster and its availability slots.
// Slot flags mutate only through Reserve/Release; both are mutually
// exclusive per provider.
type ProviderDirectory interface {
	Register(provider *types.Provider) error
	Get(providerID string) (*types.Provider, bool)
	List(specialty types.Specialty) []*types.Provider
	NextAvailableSlot(providerID string, after time.Time) (*types.AvailabilitySlot, bool)
	ReserveSlot(providerID string, notBefore time.Time) (*types.AvailabilitySlot, error)
	ReleaseSlot(providerID, slotID string) error
}

// SummaryGenerator produces a formatted pre-visit narrative for a user.
// The engine treats the output as opaque text and tolerates failure.
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, userID, audience string) (string, error)
}

// NotificationService accepts (recipient, message) pairs. Delivery
// guarantees are its concern, not the engine's; failures are recorded by
// callers, never raised as fatal.
type NotificationService interface {
	NotifyUser(userID, message string) error
	NotifyProvider(providerID, message string) error
	// OperatorAlert reaches a human-facing channel; used when a critical
	// triage cannot be escalated automatically.
	OperatorAlert(subject, message string) error
}

// HealthDataStore supplies the user's latest metrics on demand. Read-only
// to the routing engine.
type HealthDataStore interface {
	LatestMetrics(ctx context.Context, userID string) (map[string]float64, error)
}

package triage

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthfolio/careroute/pkg/config"
	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/monitoring"
	"github.com/healthfolio/careroute/pkg/types"
)

// consultationDurations is the fixed duration table keyed by consultation
// type, in minutes
var consultationDurations = map[types.ConsultationType]int{
	types.ConsultEmergency:    30,
	types.ConsultRoutine:      20,
	types.ConsultFollowUp:     15,
	types.ConsultMentalHealth: 45,
}

// urgencyMultipliers scales the base fee by urgency at booking time
var urgencyMultipliers = map[types.UrgencyTier]float64{
	types.TierCritical: 1.5,
	types.TierHigh:     1.2,
	types.TierMedium:   1.0,
	types.TierLow:      0.8,
}

const summaryPlaceholderNote = "Pre-visit summary unavailable; provider will review health data during the session."

// Scheduler creates consultation sessions and drives them through the
// booking lifecycle. It owns the active and historical session indexes
// exclusively.
type Scheduler struct {
	directory interfaces.ProviderDirectory
	summaries interfaces.SummaryGenerator
	notifier  interfaces.NotificationService
	health    interfaces.HealthDataStore
	logger    *logger.Logger
	metrics   *monitoring.MetricsCollector
	cfg       *config.TriageConfig

	mu      sync.RWMutex
	active  map[string]*types.Session
	history map[string]*types.Session

	now func() time.Time
}

// NewScheduler creates a session scheduler
func NewScheduler(
	directory interfaces.ProviderDirectory,
	summaries interfaces.SummaryGenerator,
	notifier interfaces.NotificationService,
	health interfaces.HealthDataStore,
	cfg *config.TriageConfig,
	log *logger.Logger,
	metrics *monitoring.MetricsCollector,
) *Scheduler {
	return &Scheduler{
		directory: directory,
		summaries: summaries,
		notifier:  notifier,
		health:    health,
		logger:    log,
		metrics:   metrics,
		cfg:       cfg,
		active:    make(map[string]*types.Session),
		history:   make(map[string]*types.Session),
		now:       time.Now,
	}
}

// Schedule books a consultation session. The provider must exist; the
// scheduled time is the future preferred time when supplied, otherwise
// the provider's next open slot. Summary generation and notifications are
// degradation-tolerant: their failure never blocks the booking.
func (s *Scheduler) Schedule(ctx context.Context, req *types.ScheduleRequest) (*types.Session, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	provider, ok := s.directory.Get(req.ProviderID)
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeProviderNotFound,
			fmt.Sprintf("provider %s not found", req.ProviderID))
	}

	now := s.now()
	var scheduledAt time.Time
	var slotID string

	if req.PreferredTime != nil && req.PreferredTime.After(now) {
		scheduledAt = *req.PreferredTime
		// Hold the nearest roster block when one exists. Preferred-time
		// bookings (the emergency path included) must not fail on slot
		// exhaustion, so a missing hold only degrades.
		if slot, err := s.directory.ReserveSlot(req.ProviderID, scheduledAt); err == nil {
			slotID = slot.ID
		} else {
			s.logger.WithFields(map[string]interface{}{
				"provider_id": req.ProviderID,
				"user_id":     req.UserID,
			}).Warn("No roster slot held for preferred-time booking")
		}
	} else {
		slot, err := s.directory.ReserveSlot(req.ProviderID, now)
		if err != nil {
			return nil, err
		}
		scheduledAt = slot.StartTime
		slotID = slot.ID
	}

	cost := math.Round(s.baseFee(req.Type) * urgencyMultipliers[req.Urgency])

	notes, summaryGenerated := s.prepareVisitNotes(ctx, req.UserID)

	session := &types.Session{
		ID:                     uuid.New().String(),
		UserID:                 req.UserID,
		ProviderID:             req.ProviderID,
		Type:                   req.Type,
		Urgency:                req.Urgency,
		ScheduledAt:            scheduledAt,
		DurationMinutes:        consultationDurations[req.Type],
		Status:                 types.SessionScheduled,
		MeetingURL:             fmt.Sprintf("https://meet.healthfolio.io/consult/%s", uuid.New().String()),
		Notes:                  notes,
		FollowUpRequired:       req.FollowUpRequired,
		Cost:                   cost,
		HealthSummaryGenerated: summaryGenerated,
		TriggerEvent:           req.TriggerEvent,
		SlotID:                 slotID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	s.mu.Lock()
	s.active[session.ID] = session
	s.mu.Unlock()

	s.notifyBooked(session, provider)

	s.metrics.RecordSessionScheduled(string(session.Type), string(session.Urgency))
	s.logger.WithFields(map[string]interface{}{
		"session_id":  session.ID,
		"provider_id": session.ProviderID,
		"user_id":     session.UserID,
		"scheduled":   session.ScheduledAt,
		"urgency":     session.Urgency,
	}).Info("Session scheduled")

	return session, nil
}

// UpdateStatus transitions a session through the lifecycle state machine.
// Unknown sessions return false without error: not-found is routine in a
// lookup-heavy service and callers must check. Updates against a terminal
// session are idempotent no-ops that return true and re-fire no side
// effects. Illegal transitions between live states are rejected.
func (s *Scheduler) UpdateStatus(sessionID string, newStatus types.SessionStatus, notes string) (bool, error) {
	if !newStatus.Valid() {
		return false, types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown session status %q", newStatus), nil)
	}

	s.mu.Lock()

	session, ok := s.active[sessionID]
	if !ok {
		_, done := s.history[sessionID]
		s.mu.Unlock()
		if done {
			// Terminal already; repeated updates succeed without altering
			// anything so retried calls stay safe
			return true, nil
		}
		return false, nil
	}

	if !legalTransition(session.Status, newStatus) {
		current := session.Status
		s.mu.Unlock()
		return false, types.NewValidationError(types.ErrCodeIllegalTransition,
			fmt.Sprintf("cannot transition session from %s to %s", current, newStatus), nil)
	}

	now := s.now()
	session.Status = newStatus
	session.UpdatedAt = now
	if notes != "" {
		session.Notes = appendNote(session.Notes, now, notes)
	}

	if newStatus.Terminal() {
		delete(s.active, sessionID)
		s.history[sessionID] = session
	}
	s.mu.Unlock()

	// A cancellation before the scheduled time returns the held slot to
	// availability
	if newStatus == types.SessionCancelled && session.SlotID != "" && session.ScheduledAt.After(now) {
		if err := s.directory.ReleaseSlot(session.ProviderID, session.SlotID); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to release slot on cancellation")
		}
	}

	s.notifyStatusChange(session, newStatus)

	s.metrics.RecordSessionTransition(string(newStatus))
	s.logger.WithFields(map[string]interface{}{
		"session_id": sessionID,
		"status":     newStatus,
	}).Info("Session status updated")

	return true, nil
}

// GetSession returns a session from the active or historical index
func (s *Scheduler) GetSession(sessionID string) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if session, ok := s.active[sessionID]; ok {
		return session, true
	}
	if session, ok := s.history[sessionID]; ok {
		return session, true
	}
	return nil, false
}

// GetUserSessions returns all sessions for a user, active and historical
func (s *Scheduler) GetUserSessions(userID string) []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sessions []*types.Session
	for _, session := range s.active {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	for _, session := range s.history {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	return sessions
}

// legalTransition encodes the session state machine: scheduled -> active
// -> completed, with cancelled reachable from scheduled or active. No
// transitions leave a terminal state.
func legalTransition(from, to types.SessionStatus) bool {
	switch from {
	case types.SessionScheduled:
		return to == types.SessionActive || to == types.SessionCancelled
	case types.SessionActive:
		return to == types.SessionCompleted || to == types.SessionCancelled
	default:
		return false
	}
}

func (s *Scheduler) validateRequest(req *types.ScheduleRequest) error {
	if req == nil {
		return types.NewValidationError(types.ErrCodeInvalidInput, "request body is required", nil)
	}
	if req.UserID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "user ID is required",
			map[string]interface{}{"field": "user_id"})
	}
	if req.ProviderID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "provider ID is required",
			map[string]interface{}{"field": "provider_id"})
	}
	if !req.Type.Valid() {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown consultation type %q", req.Type),
			map[string]interface{}{"field": "type"})
	}
	if !req.Urgency.Valid() {
		return types.NewValidationError(types.ErrCodeInvalidInput,
			fmt.Sprintf("unknown urgency tier %q", req.Urgency),
			map[string]interface{}{"field": "urgency"})
	}
	return nil
}

func (s *Scheduler) baseFee(t types.ConsultationType) float64 {
	if fee, ok := s.cfg.BaseFees[string(t)]; ok {
		return fee
	}
	return config.DefaultTriage().BaseFees[string(t)]
}

// prepareVisitNotes requests the pre-visit summary under the configured
// deadline. Failure degrades to a placeholder, optionally enriched with
// the user's latest metrics; it never blocks the booking.
func (s *Scheduler) prepareVisitNotes(ctx context.Context, userID string) (string, bool) {
	timeout := time.Duration(s.cfg.SummaryTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	summaryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, err := s.summaries.GenerateSummary(summaryCtx, userID, "clinician")
	if err == nil {
		return summary, true
	}

	s.logger.Degradation("summary_generator", "schedule", err)
	s.metrics.RecordDegradedDependency("summary_generator")

	notes := summaryPlaceholderNote
	if metrics, merr := s.health.LatestMetrics(summaryCtx, userID); merr == nil && len(metrics) > 0 {
		notes = fmt.Sprintf("%s Latest metrics on file: %d readings.", notes, len(metrics))
	}
	return notes, false
}

// notifyBooked dispatches booking notifications to both parties,
// best-effort
func (s *Scheduler) notifyBooked(session *types.Session, provider *types.Provider) {
	when := session.ScheduledAt.Format("January 2, 2006 at 3:04 PM")

	userMsg := fmt.Sprintf(
		"Your %s consultation with %s is scheduled for %s. Join: %s",
		session.Type, provider.Name, when, session.MeetingURL,
	)
	if err := s.notifier.NotifyUser(session.UserID, userMsg); err != nil {
		s.logger.Degradation("notifications", "notify_user", err)
		s.metrics.RecordDegradedDependency("notifications")
	}

	providerMsg := fmt.Sprintf(
		"New %s consultation (%s urgency) booked for %s. Session: %s",
		session.Type, session.Urgency, when, session.ID,
	)
	if err := s.notifier.NotifyProvider(session.ProviderID, providerMsg); err != nil {
		s.logger.Degradation("notifications", "notify_provider", err)
		s.metrics.RecordDegradedDependency("notifications")
	}
}

// notifyStatusChange tells the user about lifecycle transitions,
// best-effort
func (s *Scheduler) notifyStatusChange(session *types.Session, status types.SessionStatus) {
	var msg string
	switch status {
	case types.SessionActive:
		msg = fmt.Sprintf("Your consultation has started. Join: %s", session.MeetingURL)
	case types.SessionCompleted:
		msg = "Your consultation is complete. Any follow-up recommendations will appear in your plan."
	case types.SessionCancelled:
		msg = fmt.Sprintf("Your consultation scheduled for %s has been cancelled.",
			session.ScheduledAt.Format("January 2, 2006 at 3:04 PM"))
	default:
		return
	}

	if err := s.notifier.NotifyUser(session.UserID, msg); err != nil {
		s.logger.Degradation("notifications", "notify_status_change", err)
		s.metrics.RecordDegradedDependency("notifications")
	}
}

// appendNote appends a timestamped note entry
func appendNote(existing string, at time.Time, note string) string {
	stamped := fmt.Sprintf("[%s] %s", at.Format(time.RFC3339), note)
	if existing == "" {
		return stamped
	}
	return existing + "\n" + stamped
}

package triage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/healthfolio/careroute/pkg/config"
	"github.com/healthfolio/careroute/pkg/database"
	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/monitoring"
	"github.com/healthfolio/careroute/pkg/types"
)

// flagPhrases translates risk flags into the wording used in referral
// reasons. Flags without a phrase fall back to the raw token with
// underscores spaced out.
var flagPhrases = map[types.HealthFlag]string{
	"chest_pain":            "chest pain",
	"breathing_difficulty":  "difficulty breathing",
	"stroke_symptoms":       "possible stroke symptoms",
	"loss_of_consciousness": "loss of consciousness",
	"severe_bleeding":       "severe bleeding",
	"critical_heart_rate":   "a critically abnormal heart rate",
	"high_heart_rate":       "an elevated heart rate",
	"irregular_heartbeat":   "an irregular heartbeat",
	"high_blood_pressure":   "elevated blood pressure",
	"high_fever":            "a high fever",
	"low_oxygen_saturation": "low blood oxygen",
	"diabetes_risk":         "elevated diabetes risk indicators",
	"high_blood_sugar":      "elevated blood sugar",
	"thyroid_abnormal":      "abnormal thyroid readings",
	"chronic_headache":      "recurring headaches",
	"anxiety":               "anxiety indicators",
	"depression_risk":       "depression risk indicators",
	"sleep_disorder":        "disrupted sleep patterns",
	"elevated_cholesterol":  "elevated cholesterol",
	"routine_checkup":       "a routine check-up request",
	"mild_fatigue":          "mild fatigue",
	"seasonal_allergies":    "seasonal allergies",
	"minor_weight_change":   "a minor weight change",
}

// urgencyWording parameterizes the referral-reason template per tier
var urgencyWording = map[types.UrgencyTier]string{
	types.TierCritical: "Immediate specialist attention is required",
	types.TierHigh:     "Prompt specialist attention is recommended",
	types.TierMedium:   "A specialist consultation is recommended",
	types.TierLow:      "A routine consultation is suggested",
}

// Service is the triage orchestrator: the engine's entry point. It
// sequences classifier, resolver, matcher, and scheduler, and assembles
// the triage result returned to the caller.
type Service struct {
	config  *config.Config
	logger  *logger.Logger
	metrics *monitoring.MetricsCollector

	classifier *Classifier
	resolver   *SpecialtyResolver
	directory  interfaces.ProviderDirectory
	matcher    *Matcher
	scheduler  *Scheduler
	notifier   interfaces.NotificationService

	server *http.Server
	now    func() time.Time
}

// New creates the triage service with its default collaborators. When
// roster import is enabled, the provider directory is seeded from the
// configured database; an import failure degrades to an empty directory
// rather than blocking startup.
func New(cfg *config.Config, log *logger.Logger) interfaces.TriageService {
	metrics := monitoring.NewMetricsCollector("triage")
	directory := NewDirectory(cfg.Triage.SlotHorizonDays, cfg.Triage.SlotIntervalMinutes, log)

	if cfg.Database.ImportRoster {
		if err := importRoster(cfg, log, directory); err != nil {
			log.Degradation("roster_database", "startup_import", err)
			metrics.RecordDegradedDependency("roster_database")
		}
	}

	health := NewEmptyHealthDataStore()
	summaries := NewLogSummaryGenerator(health, log)
	notifier := NewLogNotificationService(log)

	return NewWithCollaborators(cfg, log, metrics, directory, summaries, notifier, health)
}

// NewWithCollaborators wires the service with explicit collaborators;
// tests and embedding callers inject doubles here.
func NewWithCollaborators(
	cfg *config.Config,
	log *logger.Logger,
	metrics *monitoring.MetricsCollector,
	directory interfaces.ProviderDirectory,
	summaries interfaces.SummaryGenerator,
	notifier interfaces.NotificationService,
	health interfaces.HealthDataStore,
) *Service {
	scheduler := NewScheduler(directory, summaries, notifier, health, &cfg.Triage, log, metrics)
	matcher := NewMatcher(directory, cfg.Triage.ShortlistMax, cfg.Triage.RatingEpsilon, log)

	return &Service{
		config:     cfg,
		logger:     log,
		metrics:    metrics,
		classifier: NewClassifier(),
		resolver:   NewSpecialtyResolver(),
		directory:  directory,
		matcher:    matcher,
		scheduler:  scheduler,
		notifier:   notifier,
		now:        time.Now,
	}
}

func importRoster(cfg *config.Config, log *logger.Logger, directory interfaces.ProviderDirectory) error {
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to roster database: %w", err)
	}
	defer db.Close()

	store := NewRosterStore(db.DB, log)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return store.Import(ctx, directory)
}

// Triage runs the full decision pipeline. Any unexpected fault inside the
// pipeline is caught at this boundary and converted to the safe default
// result; an ambiguous triage outcome is safer than a crashed decision
// pipeline, and the degradation is logged.
func (s *Service) Triage(ctx context.Context, req *types.TriageRequest) (result *types.TriageResult, err error) {
	if req == nil || req.UserID == "" {
		return nil, types.NewValidationError(types.ErrCodeInvalidInput, "user ID is required",
			map[string]interface{}{"field": "user_id"})
	}

	started := s.now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(map[string]interface{}{
				"user_id": req.UserID,
				"panic":   fmt.Sprint(r),
			}).Error("Triage pipeline fault, returning safe default result")
			s.metrics.RecordSystemError("triage_panic", "orchestrator")
			result = s.safeDefaultResult(req)
			err = nil
		}
	}()

	tier := s.classifier.Classify(req.Flags)
	specialty := s.resolver.Resolve(req.Flags)
	shortlist := s.matcher.Match(specialty, tier, req.Constraints)

	result = &types.TriageResult{
		UserID:         req.UserID,
		Flags:          req.Flags,
		Urgency:        tier,
		Specialty:      specialty,
		ReferralReason: referralReason(tier, req.Flags),
		Shortlist:      shortlist,
		AutoSchedule:   s.classifier.Policy(tier).AutoSchedule,
		EstimatedWait:  s.waitEstimate(tier, len(shortlist)),
		CreatedAt:      started,
	}

	s.metrics.RecordTriage(string(tier), result.AutoSchedule, s.now().Sub(started))
	s.logger.WithFields(map[string]interface{}{
		"user_id":       req.UserID,
		"urgency":       tier,
		"specialty":     specialty,
		"shortlist":     len(shortlist),
		"auto_schedule": result.AutoSchedule,
	}).Info("Triage completed")

	if result.AutoSchedule {
		s.escalate(ctx, req, result)
	}

	return result, nil
}

// escalate drives the automatic emergency booking for a critical triage.
// Scheduling failure never invalidates the already complete triage
// result, but a missed critical case must never fail silently: an empty
// shortlist or a failed booking raises an operator alert.
func (s *Service) escalate(ctx context.Context, req *types.TriageRequest, result *types.TriageResult) {
	if len(result.Shortlist) == 0 {
		s.metrics.RecordEscalationFailure("empty_shortlist")
		s.logger.Escalation(req.UserID, false, map[string]interface{}{
			"reason":    "empty_shortlist",
			"specialty": result.Specialty,
		})
		if err := s.notifier.OperatorAlert(
			"Critical triage without available provider",
			fmt.Sprintf("User %s triaged critical for %s but no provider matched; manual intervention required. Advise the user to contact emergency services.",
				req.UserID, result.Specialty),
		); err != nil {
			s.logger.Degradation("notifications", "operator_alert", err)
		}
		return
	}

	preferred := s.now().Add(time.Duration(s.config.Triage.EmergencyOffsetMinutes) * time.Minute)
	top := result.Shortlist[0]

	session, err := s.scheduler.Schedule(ctx, &types.ScheduleRequest{
		UserID:           req.UserID,
		ProviderID:       top.ID,
		Type:             types.ConsultEmergency,
		Urgency:          result.Urgency,
		PreferredTime:    &preferred,
		FollowUpRequired: true,
		TriggerEvent:     req.TriggerEvent,
	})
	if err != nil {
		s.metrics.RecordEscalationFailure("schedule_error")
		s.logger.Escalation(req.UserID, false, map[string]interface{}{
			"reason":      "schedule_error",
			"provider_id": top.ID,
			"error":       err.Error(),
		})
		if alertErr := s.notifier.OperatorAlert(
			"Critical escalation booking failed",
			fmt.Sprintf("User %s triaged critical but booking with provider %s failed: %v", req.UserID, top.ID, err),
		); alertErr != nil {
			s.logger.Degradation("notifications", "operator_alert", alertErr)
		}
		return
	}

	result.ScheduledSessionID = session.ID
	s.logger.Escalation(req.UserID, true, map[string]interface{}{
		"session_id":  session.ID,
		"provider_id": top.ID,
		"scheduled":   session.ScheduledAt,
	})
}

// safeDefaultResult is the fallback when the decision pipeline faults:
// tier medium, generalist specialty, best-effort shortlist, no automatic
// scheduling.
func (s *Service) safeDefaultResult(req *types.TriageRequest) *types.TriageResult {
	var shortlist []*types.Provider
	func() {
		// The matcher may be the faulting component; a failed best-effort
		// shortlist leaves the default result empty
		defer func() { _ = recover() }()
		shortlist = s.matcher.Match(types.SpecialtyGeneralPractitioner, types.TierMedium, req.Constraints)
	}()

	return &types.TriageResult{
		UserID:         req.UserID,
		Flags:          req.Flags,
		Urgency:        types.TierMedium,
		Specialty:      types.SpecialtyGeneralPractitioner,
		ReferralReason: "A consultation is recommended; automated risk assessment was unavailable.",
		Shortlist:      shortlist,
		AutoSchedule:   false,
		EstimatedWait:  s.waitEstimate(types.TierMedium, len(shortlist)),
		Degraded:       true,
		CreatedAt:      s.now(),
	}
}

// referralReason substitutes flag phrases into a template parameterized
// by urgency wording
func referralReason(tier types.UrgencyTier, flags []types.HealthFlag) string {
	wording := urgencyWording[tier]

	if len(flags) == 0 {
		return wording + " for a general health review."
	}

	phrases := make([]string, 0, len(flags))
	for _, f := range flags {
		phrase, ok := flagPhrases[f]
		if !ok {
			phrase = strings.ReplaceAll(string(f), "_", " ")
		}
		phrases = append(phrases, phrase)
	}

	return fmt.Sprintf("%s based on: %s.", wording, strings.Join(phrases, ", "))
}

// waitEstimate maps a tier to its configured wait string, or reports that
// no providers are available when the shortlist came back empty
func (s *Service) waitEstimate(tier types.UrgencyTier, shortlistSize int) string {
	if shortlistSize == 0 {
		return "no providers available"
	}
	if estimate, ok := s.config.Triage.WaitEstimates[string(tier)]; ok {
		return estimate
	}
	return config.DefaultTriage().WaitEstimates[string(tier)]
}

// Schedule books a consultation session
func (s *Service) Schedule(ctx context.Context, req *types.ScheduleRequest) (*types.Session, error) {
	return s.scheduler.Schedule(ctx, req)
}

// UpdateSessionStatus transitions a session through its lifecycle
func (s *Service) UpdateSessionStatus(sessionID string, status types.SessionStatus, notes string) (bool, error) {
	return s.scheduler.UpdateStatus(sessionID, status, notes)
}

// GetSession returns a session by ID
func (s *Service) GetSession(sessionID string) (*types.Session, bool) {
	return s.scheduler.GetSession(sessionID)
}

// GetUserSessions returns all sessions for a user
func (s *Service) GetUserSessions(userID string) []*types.Session {
	return s.scheduler.GetUserSessions(userID)
}

// Providers lists directory providers, optionally filtered by specialty
func (s *Service) Providers(specialty types.Specialty) []*types.Provider {
	return s.directory.List(specialty)
}

// RegisterProvider adds a provider to the directory
func (s *Service) RegisterProvider(provider *types.Provider) error {
	return s.directory.Register(provider)
}

// Start starts the triage service HTTP server
func (s *Service) Start(addr string) error {
	router := mux.NewRouter()
	s.setupRoutes(router)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.Infof("Starting Triage Service on %s", addr)
	return s.server.ListenAndServe()
}

// Stop stops the triage service
func (s *Service) Stop() error {
	if s.server != nil {
		s.logger.Info("Stopping Triage Service")
		return s.server.Close()
	}
	return nil
}

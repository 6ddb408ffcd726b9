package triage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/types"
)

// RosterStore reads the provider roster from PostgreSQL to seed the
// in-memory directory at startup. The decision path never queries the
// database; the roster schema is owned by the directory-management system
// upstream.
type RosterStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewRosterStore creates a roster store over an open database handle
func NewRosterStore(db *sql.DB, log *logger.Logger) *RosterStore {
	return &RosterStore{db: db, logger: log}
}

// Import loads all active providers and their weekly schedules into the
// directory
func (r *RosterStore) Import(ctx context.Context, directory interfaces.ProviderDirectory) error {
	providers, err := r.LoadProviders(ctx)
	if err != nil {
		return fmt.Errorf("failed to load provider roster: %w", err)
	}

	imported := 0
	for _, provider := range providers {
		if err := directory.Register(provider); err != nil {
			r.logger.WithError(err).WithField("provider_id", provider.ID).Warn("Skipping provider on import")
			continue
		}
		imported++
	}

	r.logger.WithFields(map[string]interface{}{
		"loaded":   len(providers),
		"imported": imported,
	}).Info("Provider roster imported")

	return nil
}

// LoadProviders reads all active providers with their weekly schedules
func (r *RosterStore) LoadProviders(ctx context.Context) ([]*types.Provider, error) {
	query := `
		SELECT id, name, specialties, rating, consultation_types, urgency_tiers,
		       languages, insurance_networks, created_at, updated_at
		FROM providers
		WHERE is_active = true
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query providers: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*types.Provider)
	var providers []*types.Provider

	for rows.Next() {
		var (
			p                 types.Provider
			specialties       []string
			consultationTypes []string
			urgencyTiers      []string
		)

		err := rows.Scan(
			&p.ID,
			&p.Name,
			pq.Array(&specialties),
			&p.Rating,
			pq.Array(&consultationTypes),
			pq.Array(&urgencyTiers),
			pq.Array(&p.Languages),
			pq.Array(&p.InsuranceNetworks),
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider row: %w", err)
		}

		for _, s := range specialties {
			p.Specialties = append(p.Specialties, types.Specialty(s))
		}
		for _, c := range consultationTypes {
			p.ConsultationTypes = append(p.ConsultationTypes, types.ConsultationType(c))
		}
		for _, u := range urgencyTiers {
			p.UrgencyTiers = append(p.UrgencyTiers, types.UrgencyTier(u))
		}
		p.WeeklySchedule = make(types.WeeklySchedule)

		byID[p.ID] = &p
		providers = append(providers, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider rows: %w", err)
	}

	if err := r.loadSchedules(ctx, byID); err != nil {
		return nil, err
	}

	return providers, nil
}

// loadSchedules attaches weekly schedule intervals to the loaded providers
func (r *RosterStore) loadSchedules(ctx context.Context, byID map[string]*types.Provider) error {
	if len(byID) == 0 {
		return nil
	}

	query := `
		SELECT provider_id, weekday, start_time, end_time
		FROM provider_schedules
		ORDER BY provider_id, weekday, start_time`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query provider schedules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			providerID string
			weekday    int
			start, end string
		)
		if err := rows.Scan(&providerID, &weekday, &start, &end); err != nil {
			return fmt.Errorf("failed to scan schedule row: %w", err)
		}

		provider, ok := byID[providerID]
		if !ok {
			// Schedule rows for inactive providers are expected; skip them
			continue
		}
		if weekday < 0 || weekday > 6 {
			return fmt.Errorf("invalid weekday %d for provider %s", weekday, providerID)
		}

		day := time.Weekday(weekday)
		provider.WeeklySchedule[day] = append(provider.WeeklySchedule[day], types.ScheduleInterval{
			Start: start,
			End:   end,
		})
	}

	return rows.Err()
}

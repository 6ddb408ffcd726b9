package triage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/types"
)

// Directory is the in-memory provider roster. It owns every availability
// slot; slot flags mutate only through ReserveSlot and ReleaseSlot, both
// serialized per provider, so a slot claimed by one booking can never be
// claimed by a concurrent one.
type Directory struct {
	mu        sync.RWMutex
	providers map[string]*providerEntry

	horizonDays  int
	slotInterval time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

type providerEntry struct {
	mu       sync.Mutex
	provider *types.Provider
	// slots sorted by start time, generated from the weekly schedule
	slots []*types.AvailabilitySlot
}

// NewDirectory creates an empty provider directory
func NewDirectory(horizonDays, slotIntervalMinutes int, log *logger.Logger) *Directory {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	if slotIntervalMinutes <= 0 {
		slotIntervalMinutes = 30
	}
	return &Directory{
		providers:    make(map[string]*providerEntry),
		horizonDays:  horizonDays,
		slotInterval: time.Duration(slotIntervalMinutes) * time.Minute,
		logger:       log,
		now:          time.Now,
	}
}

var _ interfaces.ProviderDirectory = (*Directory)(nil)

// Register adds a provider and generates its availability slots from the
// weekly schedule over the rolling horizon
func (d *Directory) Register(provider *types.Provider) error {
	if provider == nil || provider.ID == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "provider ID is required", nil)
	}
	if provider.Name == "" {
		return types.NewValidationError(types.ErrCodeInvalidInput, "provider name is required", nil)
	}

	slots, err := d.generateSlots(provider.WeeklySchedule)
	if err != nil {
		return fmt.Errorf("failed to generate slots for provider %s: %w", provider.ID, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.providers[provider.ID]; exists {
		return types.NewConflictError(types.ErrCodeInvalidInput,
			fmt.Sprintf("provider %s is already registered", provider.ID))
	}

	now := d.now()
	if provider.CreatedAt.IsZero() {
		provider.CreatedAt = now
	}
	provider.UpdatedAt = now

	d.providers[provider.ID] = &providerEntry{
		provider: provider,
		slots:    slots,
	}

	d.logger.WithFields(map[string]interface{}{
		"provider_id": provider.ID,
		"slots":       len(slots),
	}).Info("Provider registered")

	return nil
}

// Get returns a provider by ID
func (d *Directory) Get(providerID string) (*types.Provider, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	entry, ok := d.providers[providerID]
	if !ok {
		return nil, false
	}
	return entry.provider, true
}

// List returns providers declaring the given specialty, or all providers
// when specialty is empty. Output is sorted by ID for determinism.
func (d *Directory) List(specialty types.Specialty) []*types.Provider {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]*types.Provider, 0, len(d.providers))
	for _, entry := range d.providers {
		if specialty == "" || entry.provider.HasSpecialty(specialty) {
			result = append(result, entry.provider)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// NextAvailableSlot returns the provider's earliest open slot at or after
// the given time without claiming it
func (d *Directory) NextAvailableSlot(providerID string, after time.Time) (*types.AvailabilitySlot, bool) {
	entry, ok := d.entry(providerID)
	if !ok {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	for _, slot := range entry.slots {
		if slot.Available && !slot.StartTime.Before(after) {
			copied := *slot
			return &copied, true
		}
	}
	return nil, false
}

// ReserveSlot atomically claims the provider's earliest open slot at or
// after notBefore. Two concurrent reservations against the same provider
// can never claim the same slot: the second caller receives the next open
// slot, or a NO_AVAILABLE_SLOT error when none remains.
func (d *Directory) ReserveSlot(providerID string, notBefore time.Time) (*types.AvailabilitySlot, error) {
	entry, ok := d.entry(providerID)
	if !ok {
		return nil, types.NewNotFoundError(types.ErrCodeProviderNotFound,
			fmt.Sprintf("provider %s not found", providerID))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	for _, slot := range entry.slots {
		if slot.Available && !slot.StartTime.Before(notBefore) {
			slot.Available = false
			copied := *slot
			return &copied, nil
		}
	}

	return nil, types.NewConflictError(types.ErrCodeNoAvailableSlot,
		fmt.Sprintf("provider %s has no open slot at or after %s", providerID, notBefore.Format(time.RFC3339)))
}

// ReleaseSlot returns a claimed slot to availability, e.g. when a session
// is cancelled before its scheduled time
func (d *Directory) ReleaseSlot(providerID, slotID string) error {
	entry, ok := d.entry(providerID)
	if !ok {
		return types.NewNotFoundError(types.ErrCodeProviderNotFound,
			fmt.Sprintf("provider %s not found", providerID))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	for _, slot := range entry.slots {
		if slot.ID == slotID {
			slot.Available = true
			return nil
		}
	}

	return types.NewNotFoundError(types.ErrCodeNoAvailableSlot,
		fmt.Sprintf("slot %s not found for provider %s", slotID, providerID))
}

func (d *Directory) entry(providerID string) (*providerEntry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entry, ok := d.providers[providerID]
	return entry, ok
}

// generateSlots expands a weekly schedule into concrete slots over the
// rolling horizon, starting today
func (d *Directory) generateSlots(schedule types.WeeklySchedule) ([]*types.AvailabilitySlot, error) {
	if len(schedule) == 0 {
		return nil, nil
	}

	now := d.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var slots []*types.AvailabilitySlot
	for day := 0; day < d.horizonDays; day++ {
		date := midnight.AddDate(0, 0, day)
		intervals, ok := schedule[date.Weekday()]
		if !ok {
			continue
		}

		for _, interval := range intervals {
			open, err := atClockTime(date, interval.Start)
			if err != nil {
				return nil, err
			}
			close, err := atClockTime(date, interval.End)
			if err != nil {
				return nil, err
			}
			if !close.After(open) {
				return nil, fmt.Errorf("interval end %q must be after start %q", interval.End, interval.Start)
			}

			for cursor := open; !cursor.Add(d.slotInterval).After(close); cursor = cursor.Add(d.slotInterval) {
				// Past slots on day zero are never bookable
				if cursor.Before(now) {
					continue
				}
				slots = append(slots, &types.AvailabilitySlot{
					ID:        uuid.New().String(),
					StartTime: cursor,
					Duration:  d.slotInterval,
					Available: true,
				})
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots, nil
}

// atClockTime combines a date with a "15:04" clock string
func atClockTime(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule time %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

package triage

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/types"
)

// testBaseTime is a Monday at 08:00 UTC; fixtures schedule their hours
// relative to it
var testBaseTime = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

func newTestDirectory() *Directory {
	d := NewDirectory(7, 30, logger.New("debug"))
	d.now = func() time.Time { return testBaseTime }
	return d
}

func testProvider(id, name string, rating float64, specialties ...types.Specialty) *types.Provider {
	return &types.Provider{
		ID:          id,
		Name:        name,
		Specialties: specialties,
		Rating:      rating,
		ConsultationTypes: []types.ConsultationType{
			types.ConsultEmergency, types.ConsultRoutine,
			types.ConsultFollowUp, types.ConsultMentalHealth,
		},
		UrgencyTiers: []types.UrgencyTier{
			types.TierCritical, types.TierHigh, types.TierMedium, types.TierLow,
		},
		Languages:         []string{"english"},
		InsuranceNetworks: []string{"acme-health"},
		WeeklySchedule: types.WeeklySchedule{
			time.Monday: {{Start: "09:00", End: "12:00"}},
		},
	}
}

func TestRegister_GeneratesSlotsFromWeeklySchedule(t *testing.T) {
	directory := newTestDirectory()

	err := directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology))
	require.NoError(t, err)

	// Monday 09:00-12:00 at 30-minute intervals yields six slots
	claimed := 0
	for {
		slot, err := directory.ReserveSlot("prov-1", testBaseTime)
		if err != nil {
			assert.True(t, types.IsType(err, types.ErrorTypeConflict))
			break
		}
		assert.False(t, slot.StartTime.Before(testBaseTime))
		claimed++
	}
	assert.Equal(t, 6, claimed)
}

func TestRegister_SkipsPastSlotsOnDayZero(t *testing.T) {
	directory := newTestDirectory()
	directory.now = func() time.Time { return testBaseTime.Add(135 * time.Minute) } // Monday 10:15

	err := directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology))
	require.NoError(t, err)

	slot, ok := directory.NextAvailableSlot("prov-1", directory.now())
	require.True(t, ok)
	assert.Equal(t, testBaseTime.Add(150*time.Minute), slot.StartTime) // Monday 10:30
}

func TestRegister_Validation(t *testing.T) {
	directory := newTestDirectory()

	err := directory.Register(nil)
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	err = directory.Register(&types.Provider{Name: "Dr. Osei"})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))

	err = directory.Register(&types.Provider{ID: "prov-1"})
	assert.True(t, types.IsType(err, types.ErrorTypeValidation))
}

func TestRegister_DuplicateProviderConflicts(t *testing.T) {
	directory := newTestDirectory()

	require.NoError(t, directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)))

	err := directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology))
	assert.True(t, types.IsType(err, types.ErrorTypeConflict))
}

func TestRegister_InvalidScheduleRejected(t *testing.T) {
	directory := newTestDirectory()

	bad := testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)
	bad.WeeklySchedule = types.WeeklySchedule{
		time.Monday: {{Start: "nine", End: "12:00"}},
	}
	assert.Error(t, directory.Register(bad))

	inverted := testProvider("prov-2", "Dr. Mensah", 4.5, types.SpecialtyCardiology)
	inverted.WeeklySchedule = types.WeeklySchedule{
		time.Monday: {{Start: "12:00", End: "09:00"}},
	}
	assert.Error(t, directory.Register(inverted))
}

func TestReserveSlot_ClaimsEarliestOpenSlot(t *testing.T) {
	directory := newTestDirectory()
	require.NoError(t, directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)))

	first, err := directory.ReserveSlot("prov-1", testBaseTime)
	require.NoError(t, err)
	assert.Equal(t, testBaseTime.Add(time.Hour), first.StartTime) // Monday 09:00

	second, err := directory.ReserveSlot("prov-1", testBaseTime)
	require.NoError(t, err)
	assert.Equal(t, testBaseTime.Add(90*time.Minute), second.StartTime) // Monday 09:30
	assert.NotEqual(t, first.ID, second.ID)
}

func TestReserveSlot_UnknownProvider(t *testing.T) {
	directory := newTestDirectory()

	_, err := directory.ReserveSlot("prov-missing", testBaseTime)
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
}

func TestNextAvailableSlot_DoesNotClaim(t *testing.T) {
	directory := newTestDirectory()
	require.NoError(t, directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)))

	first, ok := directory.NextAvailableSlot("prov-1", testBaseTime)
	require.True(t, ok)

	again, ok := directory.NextAvailableSlot("prov-1", testBaseTime)
	require.True(t, ok)
	assert.Equal(t, first.ID, again.ID)
}

func TestReleaseSlot_ReturnsSlotToAvailability(t *testing.T) {
	directory := newTestDirectory()
	require.NoError(t, directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)))

	slot, err := directory.ReserveSlot("prov-1", testBaseTime)
	require.NoError(t, err)

	next, ok := directory.NextAvailableSlot("prov-1", testBaseTime)
	require.True(t, ok)
	assert.NotEqual(t, slot.ID, next.ID)

	require.NoError(t, directory.ReleaseSlot("prov-1", slot.ID))

	next, ok = directory.NextAvailableSlot("prov-1", testBaseTime)
	require.True(t, ok)
	assert.Equal(t, slot.ID, next.ID)
}

func TestReleaseSlot_UnknownSlot(t *testing.T) {
	directory := newTestDirectory()
	require.NoError(t, directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)))

	err := directory.ReleaseSlot("prov-1", "slot-missing")
	assert.True(t, types.IsType(err, types.ErrorTypeNotFound))
}

func TestList_FiltersBySpecialtySortedByID(t *testing.T) {
	directory := newTestDirectory()
	require.NoError(t, directory.Register(testProvider("prov-2", "Dr. Mensah", 4.5, types.SpecialtyEndocrinology)))
	require.NoError(t, directory.Register(testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)))
	require.NoError(t, directory.Register(testProvider("prov-3", "Dr. Boateng", 4.2, types.SpecialtyCardiology, types.SpecialtyGeneralPractitioner)))

	all := directory.List("")
	require.Len(t, all, 3)
	assert.Equal(t, "prov-1", all[0].ID)
	assert.Equal(t, "prov-2", all[1].ID)
	assert.Equal(t, "prov-3", all[2].ID)

	cardiologists := directory.List(types.SpecialtyCardiology)
	require.Len(t, cardiologists, 2)
	assert.Equal(t, "prov-1", cardiologists[0].ID)
	assert.Equal(t, "prov-3", cardiologists[1].ID)
}

func TestReserveSlot_ConcurrentReservationsNeverShareASlot(t *testing.T) {
	directory := newTestDirectory()

	single := testProvider("prov-1", "Dr. Osei", 4.8, types.SpecialtyCardiology)
	single.WeeklySchedule = types.WeeklySchedule{
		time.Monday: {{Start: "09:00", End: "09:30"}}, // exactly one slot
	}
	require.NoError(t, directory.Register(single))

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := directory.ReserveSlot("prov-1", testBaseTime)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	claimed := 0
	for err := range results {
		if err == nil {
			claimed++
		} else {
			assert.True(t, types.IsType(err, types.ErrorTypeConflict))
		}
	}
	assert.Equal(t, 1, claimed)
}

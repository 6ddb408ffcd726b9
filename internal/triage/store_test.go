package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/types"
)

var providerColumns = []string{
	"id", "name", "specialties", "rating", "consultation_types",
	"urgency_tiers", "languages", "insurance_networks", "created_at", "updated_at",
}

var scheduleColumns = []string{"provider_id", "weekday", "start_time", "end_time"}

func TestLoadProviders(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	dbMock.ExpectQuery("SELECT id, name, specialties").WillReturnRows(
		sqlmock.NewRows(providerColumns).
			AddRow("prov-1", "Dr. Osei", "{cardiology}", 4.8,
				"{emergency,routine}", "{critical,high}",
				"{english,twi}", "{acme-health}", now, now).
			AddRow("prov-2", "Dr. Mensah", "{endocrinology,general_practitioner}", 4.5,
				"{routine,follow_up}", "{medium,low}",
				"{english}", "{unity-care}", now, now),
	)
	dbMock.ExpectQuery("SELECT provider_id, weekday").WillReturnRows(
		sqlmock.NewRows(scheduleColumns).
			AddRow("prov-1", 1, "09:00", "12:00").
			AddRow("prov-1", 3, "14:00", "17:00").
			AddRow("prov-9", 2, "09:00", "12:00"), // inactive provider, skipped
	)

	store := NewRosterStore(db, logger.New("debug"))

	providers, err := store.LoadProviders(context.Background())
	require.NoError(t, err)
	require.Len(t, providers, 2)

	first := providers[0]
	assert.Equal(t, "prov-1", first.ID)
	assert.Equal(t, "Dr. Osei", first.Name)
	assert.Equal(t, []types.Specialty{types.SpecialtyCardiology}, first.Specialties)
	assert.Equal(t, 4.8, first.Rating)
	assert.Equal(t, []types.UrgencyTier{types.TierCritical, types.TierHigh}, first.UrgencyTiers)
	assert.Equal(t, []string{"english", "twi"}, first.Languages)
	require.Len(t, first.WeeklySchedule, 2)
	assert.Equal(t, []types.ScheduleInterval{{Start: "09:00", End: "12:00"}}, first.WeeklySchedule[time.Monday])
	assert.Equal(t, []types.ScheduleInterval{{Start: "14:00", End: "17:00"}}, first.WeeklySchedule[time.Wednesday])

	second := providers[1]
	assert.True(t, second.HasSpecialty(types.SpecialtyGeneralPractitioner))
	assert.Empty(t, second.WeeklySchedule)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestLoadProviders_QueryError(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dbMock.ExpectQuery("SELECT id, name, specialties").
		WillReturnError(errors.New("connection reset"))

	store := NewRosterStore(db, logger.New("debug"))

	_, err = store.LoadProviders(context.Background())
	assert.Error(t, err)
}

func TestLoadProviders_InvalidWeekdayRejected(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	dbMock.ExpectQuery("SELECT id, name, specialties").WillReturnRows(
		sqlmock.NewRows(providerColumns).
			AddRow("prov-1", "Dr. Osei", "{cardiology}", 4.8,
				"{routine}", "{medium}", "{english}", "{acme-health}", now, now),
	)
	dbMock.ExpectQuery("SELECT provider_id, weekday").WillReturnRows(
		sqlmock.NewRows(scheduleColumns).
			AddRow("prov-1", 9, "09:00", "12:00"),
	)

	store := NewRosterStore(db, logger.New("debug"))

	_, err = store.LoadProviders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid weekday")
}

func TestImport_SkipsInvalidProviders(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	dbMock.ExpectQuery("SELECT id, name, specialties").WillReturnRows(
		sqlmock.NewRows(providerColumns).
			AddRow("prov-1", "Dr. Osei", "{cardiology}", 4.8,
				"{routine}", "{medium}", "{english}", "{acme-health}", now, now).
			AddRow("prov-2", "", "{cardiology}", 4.5,
				"{routine}", "{medium}", "{english}", "{acme-health}", now, now),
	)
	dbMock.ExpectQuery("SELECT provider_id, weekday").WillReturnRows(
		sqlmock.NewRows(scheduleColumns).
			AddRow("prov-1", 1, "09:00", "12:00"),
	)

	store := NewRosterStore(db, logger.New("debug"))
	directory := newTestDirectory()

	// The nameless provider fails directory validation and is skipped; the
	// import itself still succeeds
	require.NoError(t, store.Import(context.Background(), directory))

	assert.Len(t, directory.List(""), 1)
	_, ok := directory.Get("prov-1")
	assert.True(t, ok)
}

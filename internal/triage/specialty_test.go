package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/healthfolio/careroute/pkg/types"
)

func TestResolve_MajorityVote(t *testing.T) {
	resolver := NewSpecialtyResolver()

	specialty := resolver.Resolve([]types.HealthFlag{
		"diabetes_risk",
		"high_blood_sugar",
		"chest_pain",
	})
	assert.Equal(t, types.SpecialtyEndocrinology, specialty)
}

func TestResolve_TieBreaksByPriority(t *testing.T) {
	resolver := NewSpecialtyResolver()

	// One cardiology vote against one endocrinology vote: cardiology wins
	specialty := resolver.Resolve([]types.HealthFlag{
		"diabetes_risk",
		"chest_pain",
	})
	assert.Equal(t, types.SpecialtyCardiology, specialty)

	// Mental health outranks pulmonology in a tie
	specialty = resolver.Resolve([]types.HealthFlag{
		"breathing_difficulty",
		"anxiety",
	})
	assert.Equal(t, types.SpecialtyMentalHealth, specialty)
}

func TestResolve_DeterministicAcrossOrderings(t *testing.T) {
	resolver := NewSpecialtyResolver()

	orderings := [][]types.HealthFlag{
		{"chest_pain", "diabetes_risk", "anxiety"},
		{"anxiety", "chest_pain", "diabetes_risk"},
		{"diabetes_risk", "anxiety", "chest_pain"},
	}

	for _, flags := range orderings {
		assert.Equal(t, types.SpecialtyCardiology, resolver.Resolve(flags),
			"three-way tie must resolve identically regardless of flag order")
	}
}

func TestResolve_UnmappedFlagsCountTowardGeneralist(t *testing.T) {
	resolver := NewSpecialtyResolver()

	specialty := resolver.Resolve([]types.HealthFlag{"unknown_one", "unknown_two"})
	assert.Equal(t, types.SpecialtyGeneralPractitioner, specialty)

	// Two unmapped votes outweigh a single cardiology vote
	specialty = resolver.Resolve([]types.HealthFlag{"unknown_one", "unknown_two", "chest_pain"})
	assert.Equal(t, types.SpecialtyGeneralPractitioner, specialty)
}

func TestResolve_EmptyFlagSet(t *testing.T) {
	resolver := NewSpecialtyResolver()

	assert.Equal(t, types.SpecialtyGeneralPractitioner, resolver.Resolve(nil))
	assert.Equal(t, types.SpecialtyGeneralPractitioner, resolver.Resolve([]types.HealthFlag{}))
}

func TestResolve_SpecialistOutranksGeneralistOnTie(t *testing.T) {
	resolver := NewSpecialtyResolver()

	specialty := resolver.Resolve([]types.HealthFlag{
		"high_fever",
		"stroke_symptoms",
	})
	assert.Equal(t, types.SpecialtyNeurology, specialty)
}

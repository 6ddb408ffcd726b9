package triage

import "github.com/healthfolio/careroute/pkg/types"

// flagSpecialties is the total flag-to-specialty mapping. Flags absent
// from this table count toward the generalist default, so the resolver
// always produces a specialty.
var flagSpecialties = map[types.HealthFlag]types.Specialty{
	"chest_pain":           types.SpecialtyCardiology,
	"high_heart_rate":      types.SpecialtyCardiology,
	"critical_heart_rate":  types.SpecialtyCardiology,
	"irregular_heartbeat":  types.SpecialtyCardiology,
	"high_blood_pressure":  types.SpecialtyCardiology,
	"elevated_cholesterol": types.SpecialtyCardiology,

	"diabetes_risk":    types.SpecialtyEndocrinology,
	"high_blood_sugar": types.SpecialtyEndocrinology,
	"thyroid_abnormal": types.SpecialtyEndocrinology,

	"anxiety":         types.SpecialtyMentalHealth,
	"depression_risk": types.SpecialtyMentalHealth,
	"sleep_disorder":  types.SpecialtyMentalHealth,

	"breathing_difficulty":  types.SpecialtyPulmonology,
	"low_oxygen_saturation": types.SpecialtyPulmonology,

	"stroke_symptoms":       types.SpecialtyNeurology,
	"chronic_headache":      types.SpecialtyNeurology,
	"loss_of_consciousness": types.SpecialtyNeurology,

	"severe_bleeding":     types.SpecialtyGeneralPractitioner,
	"high_fever":          types.SpecialtyGeneralPractitioner,
	"routine_checkup":     types.SpecialtyGeneralPractitioner,
	"mild_fatigue":        types.SpecialtyGeneralPractitioner,
	"seasonal_allergies":  types.SpecialtyGeneralPractitioner,
	"minor_weight_change": types.SpecialtyGeneralPractitioner,
}

// specialtyPriority breaks ties in the specialty vote. Lower wins:
// cardiology > endocrinology > mental health > other specialist
// categories > generalist.
var specialtyPriority = map[types.Specialty]int{
	types.SpecialtyCardiology:          0,
	types.SpecialtyEndocrinology:       1,
	types.SpecialtyMentalHealth:        2,
	types.SpecialtyPulmonology:         3,
	types.SpecialtyNeurology:           4,
	types.SpecialtyGeneralPractitioner: 5,
}

// SpecialtyResolver maps health flags to a recommended medical specialty
// via weighted voting
type SpecialtyResolver struct {
	mapping  map[types.HealthFlag]types.Specialty
	priority map[types.Specialty]int
}

// NewSpecialtyResolver creates a resolver with the built-in flag mapping
func NewSpecialtyResolver() *SpecialtyResolver {
	return &SpecialtyResolver{
		mapping:  flagSpecialties,
		priority: specialtyPriority,
	}
}

// Resolve tallies occurrence counts per specialty across the flags and
// returns the specialty with the highest count. Ties are broken by the
// fixed priority order, so the result is deterministic regardless of
// flag iteration order. Empty flag sets resolve to the generalist.
func (r *SpecialtyResolver) Resolve(flags []types.HealthFlag) types.Specialty {
	if len(flags) == 0 {
		return types.SpecialtyGeneralPractitioner
	}

	votes := make(map[types.Specialty]int)
	for _, f := range flags {
		specialty, ok := r.mapping[f]
		if !ok {
			specialty = types.SpecialtyGeneralPractitioner
		}
		votes[specialty]++
	}

	best := types.SpecialtyGeneralPractitioner
	bestCount := 0
	for specialty, count := range votes {
		if count > bestCount {
			best = specialty
			bestCount = count
			continue
		}
		if count == bestCount && r.priority[specialty] < r.priority[best] {
			best = specialty
		}
	}

	return best
}

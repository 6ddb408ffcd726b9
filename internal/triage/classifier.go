package triage

import "github.com/healthfolio/careroute/pkg/types"

// tierOrder lists urgency tiers from most to least severe. Classification
// walks this order and stops at the first match, so a single critical flag
// among many low-severity flags always wins.
var tierOrder = []types.UrgencyTier{
	types.TierCritical,
	types.TierHigh,
	types.TierMedium,
	types.TierLow,
}

// Classifier maps a set of health-flag tokens to an urgency tier
type Classifier struct {
	qualifying map[types.UrgencyTier][]types.HealthFlag
	policies   map[types.UrgencyTier]types.TierPolicy
}

// NewClassifier creates a classifier with the built-in tier tables
func NewClassifier() *Classifier {
	return &Classifier{
		qualifying: map[types.UrgencyTier][]types.HealthFlag{
			types.TierCritical: {
				"chest_pain",
				"breathing_difficulty",
				"stroke_symptoms",
				"loss_of_consciousness",
				"severe_bleeding",
				"critical_heart_rate",
			},
			types.TierHigh: {
				"high_heart_rate",
				"irregular_heartbeat",
				"high_blood_pressure",
				"high_fever",
				"low_oxygen_saturation",
			},
			types.TierMedium: {
				"diabetes_risk",
				"high_blood_sugar",
				"thyroid_abnormal",
				"chronic_headache",
				"anxiety",
				"depression_risk",
				"sleep_disorder",
				"elevated_cholesterol",
			},
			types.TierLow: {
				"routine_checkup",
				"mild_fatigue",
				"seasonal_allergies",
				"minor_weight_change",
			},
		},
		policies: types.DefaultTierPolicies(),
	}
}

// Classify returns the urgency tier for a flag set. Tiers are evaluated
// most severe first; the first tier whose qualifying list intersects the
// input wins. Unknown or empty flag sets classify as low. Never errors:
// absence of known flags is not a fault condition.
func (c *Classifier) Classify(flags []types.HealthFlag) types.UrgencyTier {
	present := make(map[types.HealthFlag]bool, len(flags))
	for _, f := range flags {
		present[f] = true
	}

	for _, tier := range tierOrder {
		for _, qualifier := range c.qualifying[tier] {
			if present[qualifier] {
				return tier
			}
		}
	}

	return types.TierLow
}

// Policy returns the routing policy for a tier
func (c *Classifier) Policy(tier types.UrgencyTier) types.TierPolicy {
	return c.policies[tier]
}

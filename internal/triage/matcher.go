package triage

import (
	"sort"
	"time"

	"github.com/healthfolio/careroute/pkg/interfaces"
	"github.com/healthfolio/careroute/pkg/logger"
	"github.com/healthfolio/careroute/pkg/types"
)

// Matcher filters and ranks providers from the directory against urgency,
// specialty, language, and insurance constraints. Read-only over the
// directory.
type Matcher struct {
	directory interfaces.ProviderDirectory
	maxItems  int
	epsilon   float64
	logger    *logger.Logger
	now       func() time.Time
}

// NewMatcher creates a matcher over the given directory
func NewMatcher(directory interfaces.ProviderDirectory, maxItems int, epsilon float64, log *logger.Logger) *Matcher {
	if maxItems <= 0 {
		maxItems = 3
	}
	return &Matcher{
		directory: directory,
		maxItems:  maxItems,
		epsilon:   epsilon,
		logger:    log,
		now:       time.Now,
	}
}

type candidate struct {
	provider *types.Provider
	nextSlot time.Time
	hasSlot  bool
}

// Match returns the ranked shortlist for a specialty and urgency tier.
// Filter: the provider declares the target specialty or the generalist
// fallback, supports the tier, and satisfies any language/insurance
// constraint. Rank: rating descending; when two ratings differ by less
// than epsilon the earlier next-available slot wins and slotless
// providers sort last. An empty shortlist is a valid outcome the caller
// must handle as "no provider available".
func (m *Matcher) Match(specialty types.Specialty, tier types.UrgencyTier, constraints *types.MatchConstraints) []*types.Provider {
	now := m.now()

	var candidates []candidate
	for _, provider := range m.directory.List("") {
		if !provider.HasSpecialty(specialty) && !provider.HasSpecialty(types.SpecialtyGeneralPractitioner) {
			continue
		}
		if !provider.SupportsUrgency(tier) {
			continue
		}
		if constraints != nil {
			if constraints.Language != "" && !provider.SpeaksLanguage(constraints.Language) {
				continue
			}
			if constraints.Insurance != "" && !provider.AcceptsInsurance(constraints.Insurance) {
				continue
			}
		}

		c := candidate{provider: provider}
		if slot, ok := m.directory.NextAvailableSlot(provider.ID, now); ok {
			c.nextSlot = slot.StartTime
			c.hasSlot = true
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		diff := a.provider.Rating - b.provider.Rating
		if diff >= m.epsilon || diff <= -m.epsilon {
			return a.provider.Rating > b.provider.Rating
		}

		// Ratings tied within epsilon: soonest next slot wins, providers
		// with no future slot sort last
		switch {
		case a.hasSlot && b.hasSlot:
			return a.nextSlot.Before(b.nextSlot)
		case a.hasSlot:
			return true
		case b.hasSlot:
			return false
		default:
			return a.provider.Rating > b.provider.Rating
		}
	})

	limit := m.maxItems
	if len(candidates) < limit {
		limit = len(candidates)
	}

	shortlist := make([]*types.Provider, 0, limit)
	for _, c := range candidates[:limit] {
		shortlist = append(shortlist, c.provider)
	}

	m.logger.WithFields(map[string]interface{}{
		"specialty": specialty,
		"tier":      tier,
		"matched":   len(candidates),
		"returned":  len(shortlist),
	}).Debug("Provider match completed")

	return shortlist
}

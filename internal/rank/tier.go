package rank

import "treasury-engine/internal/config"

// Classify returns the first tier whose threshold the score meets. Tiers
// must be ordered by descending MinScore.
func Classify(score int, tiers []config.TierRule) config.TierRule {
	for _, t := range tiers {
		if score >= t.MinScore {
			return t
		}
	}
	if n := len(tiers); n > 0 {
		return tiers[n-1]
	}
	return config.TierRule{}
}

package plans

import "time"

// Tier is a subscription plan level
type Tier int

const (
	TierFree Tier = iota
	TierPro
	TierBusiness
)

// ParseTier converts a stored plan name to a Tier. Unknown values map
// to TierFree so a corrupted plan field never grants capacity.
func ParseTier(s string) Tier {
	switch s {
	case "pro":
		return TierPro
	case "business":
		return TierBusiness
	default:
		return TierFree
	}
}

func (t Tier) String() string {
	switch t {
	case TierPro:
		return "pro"
	case TierBusiness:
		return "business"
	default:
		return "free"
	}
}

// EffectiveTier computes the tier actually in force right now. The
// stored plan field is not trusted: a paid plan whose expiry has
// passed reverts to free immediately, even though the row is only
// updated later by the billing webhook or the sync worker. A nil
// expiry means a non-expiring paid plan. Pure, so it is re-evaluated
// on every check instead of being cached.
func EffectiveTier(storedPlan string, expiresAt *time.Time, now time.Time) Tier {
	tier := ParseTier(storedPlan)
	if tier == TierFree {
		return TierFree
	}
	if expiresAt != nil && expiresAt.Before(now) {
		return TierFree
	}
	return tier
}

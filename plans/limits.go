package plans

import (
	"fmt"
	"math"
)

// Unlimited is the sentinel ceiling for uncapped resources. Using a
// huge count instead of a flag keeps the enforcer on one comparison
// path.
const Unlimited = math.MaxInt32

// ResourceKind names a capacity-bounded resource
type ResourceKind string

const (
	ResourceWorkspace ResourceKind = "workspace"
	ResourceBoard     ResourceKind = "board"
	ResourceMember    ResourceKind = "member"
)

// Limits holds the ceilings for one tier. Boards and members are
// counted per workspace, workspaces per owning user.
type Limits struct {
	Workspaces          int
	BoardsPerWorkspace  int
	MembersPerWorkspace int
}

// limitTable is the single source of truth for plan ceilings,
// initialized once and never mutated.
var limitTable = map[Tier]Limits{
	TierFree:     {Workspaces: 1, BoardsPerWorkspace: 3, MembersPerWorkspace: 3},
	TierPro:      {Workspaces: 5, BoardsPerWorkspace: 10, MembersPerWorkspace: 10},
	TierBusiness: {Workspaces: Unlimited, BoardsPerWorkspace: Unlimited, MembersPerWorkspace: 50},
}

// LimitsFor returns the ceilings for a tier
func LimitsFor(tier Tier) Limits {
	limits, ok := limitTable[tier]
	if !ok {
		return limitTable[TierFree]
	}
	return limits
}

// limitFor picks the ceiling for one resource kind
func (l Limits) limitFor(kind ResourceKind) int {
	switch kind {
	case ResourceWorkspace:
		return l.Workspaces
	case ResourceBoard:
		return l.BoardsPerWorkspace
	case ResourceMember:
		return l.MembersPerWorkspace
	default:
		return 0
	}
}

// LimitResult is the structured outcome of a capacity check. Denials
// carry tier, current and limit so the client can render an upgrade
// prompt.
type LimitResult struct {
	Allowed bool         `json:"allowed"`
	Kind    ResourceKind `json:"kind"`
	Tier    string       `json:"plan"`
	Limit   int          `json:"limit"`
	Current int          `json:"current"`
	Message string       `json:"message,omitempty"`
}

// CheckCreate decides whether one more resource of the given kind may
// be created under the tier. The tier must be the resource owner's
// effective tier, never the acting user's: a member creating a board
// in someone else's workspace is bounded by the owner's plan.
//
// The check is only a predicate. Callers must run the count and the
// create inside one transaction, or re-validate after commit;
// otherwise two concurrent creates can both pass and exceed the
// ceiling by one.
func CheckCreate(tier Tier, kind ResourceKind, currentCount int) LimitResult {
	limit := LimitsFor(tier).limitFor(kind)
	result := LimitResult{
		Kind:    kind,
		Tier:    tier.String(),
		Limit:   limit,
		Current: currentCount,
	}
	if currentCount >= limit {
		result.Message = fmt.Sprintf(
			"Your %s plan allows %d %ss (you have %d). Upgrade to add more.",
			tier, limit, kind, currentCount,
		)
		return result
	}
	result.Allowed = true
	return result
}

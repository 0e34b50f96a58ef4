package plans

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveTier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		stored    string
		expiresAt *time.Time
		want      Tier
	}{
		{"pro lapsed", "pro", &past, TierFree},
		{"pro active", "pro", &future, TierPro},
		{"pro non-expiring", "pro", nil, TierPro},
		{"business lapsed", "business", &past, TierFree},
		{"free with expiry set", "free", &future, TierFree},
		{"free with past expiry", "free", &past, TierFree},
		{"unknown plan name", "enterprise", nil, TierFree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveTier(tt.stored, tt.expiresAt, now))
		})
	}
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, TierPro, ParseTier("pro"))
	assert.Equal(t, TierBusiness, ParseTier("business"))
	assert.Equal(t, TierFree, ParseTier("free"))
	assert.Equal(t, TierFree, ParseTier(""))
	assert.Equal(t, TierFree, ParseTier("gold"))
}

func TestCheckCreateBoundary(t *testing.T) {
	// Free tier allows exactly one workspace.
	result := CheckCreate(TierFree, ResourceWorkspace, 0)
	assert.True(t, result.Allowed)

	result = CheckCreate(TierFree, ResourceWorkspace, 1)
	assert.False(t, result.Allowed)
	assert.Equal(t, "free", result.Tier)
	assert.Equal(t, 1, result.Limit)
	assert.Equal(t, 1, result.Current)
	assert.Contains(t, result.Message, "free")
	assert.Contains(t, result.Message, "Upgrade")
}

func TestCheckCreatePerTier(t *testing.T) {
	tests := []struct {
		tier    Tier
		kind    ResourceKind
		current int
		allowed bool
	}{
		{TierFree, ResourceBoard, 2, true},
		{TierFree, ResourceBoard, 3, false},
		{TierFree, ResourceMember, 3, false},
		{TierPro, ResourceWorkspace, 4, true},
		{TierPro, ResourceWorkspace, 5, false},
		{TierPro, ResourceBoard, 9, true},
		{TierPro, ResourceMember, 10, false},
		{TierBusiness, ResourceWorkspace, 100000, true},
		{TierBusiness, ResourceBoard, 100000, true},
		{TierBusiness, ResourceMember, 49, true},
		{TierBusiness, ResourceMember, 50, false},
	}
	for _, tt := range tests {
		result := CheckCreate(tt.tier, tt.kind, tt.current)
		assert.Equal(t, tt.allowed, result.Allowed,
			"%s/%s at %d", tt.tier, tt.kind, tt.current)
	}
}

func TestCheckCreateUnknownKindDenies(t *testing.T) {
	result := CheckCreate(TierBusiness, ResourceKind("gadget"), 0)
	assert.False(t, result.Allowed)
}

type fakePlanStore struct {
	plans map[uint]struct {
		name      string
		expiresAt *time.Time
	}
}

func (f *fakePlanStore) GetUserPlan(userID uint) (string, *time.Time, error) {
	p, ok := f.plans[userID]
	if !ok {
		return "", nil, ErrUserNotFound
	}
	return p.name, p.expiresAt, nil
}

func TestEnforcerUsesOwnersEffectiveTier(t *testing.T) {
	yesterday := time.Now().Add(-24 * time.Hour)
	store := &fakePlanStore{plans: map[uint]struct {
		name      string
		expiresAt *time.Time
	}{
		1: {name: "pro", expiresAt: &yesterday}, // lapsed owner
		2: {name: "business"},
	}}
	enforcer := NewEnforcer(store)

	// Owner's pro plan lapsed yesterday, so the free board ceiling of 3
	// applies even though five boards already exist.
	result, err := enforcer.CheckCreateAllowed(1, ResourceBoard, 5)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, "free", result.Tier)
	assert.Equal(t, 3, result.Limit)
	assert.Equal(t, 5, result.Current)

	// The workspace owner's tier is the basis; a business owner admits
	// the same count.
	result, err = enforcer.CheckCreateAllowed(2, ResourceBoard, 5)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestEnforcerMissingOwner(t *testing.T) {
	enforcer := NewEnforcer(&fakePlanStore{plans: nil})
	_, err := enforcer.CheckCreateAllowed(42, ResourceBoard, 0)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

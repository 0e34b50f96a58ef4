package plans

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"boardly/models"
)

// ErrUserNotFound is returned when the plan owner does not exist
var ErrUserNotFound = errors.New("user not found")

// UserPlanStore reads the stored plan fields for a user
type UserPlanStore interface {
	GetUserPlan(userID uint) (storedPlan string, expiresAt *time.Time, err error)
}

// Enforcer gates resource creation by the owning user's effective
// tier. Stateless: every check re-reads the stored plan and
// recomputes the effective tier, tolerating webhook lag.
type Enforcer struct {
	store UserPlanStore
}

func NewEnforcer(store UserPlanStore) *Enforcer {
	return &Enforcer{store: store}
}

// CheckCreateAllowed resolves the owner's effective tier, then applies
// the limit table. ownerUserID is the workspace owner (or the creating
// user for workspace creation), never the acting user.
func (e *Enforcer) CheckCreateAllowed(ownerUserID uint, kind ResourceKind, currentCount int) (LimitResult, error) {
	storedPlan, expiresAt, err := e.store.GetUserPlan(ownerUserID)
	if err != nil {
		return LimitResult{}, err
	}
	tier := EffectiveTier(storedPlan, expiresAt, time.Now())
	return CheckCreate(tier, kind, currentCount), nil
}

type gormPlanStore struct {
	db *gorm.DB
}

// NewStore returns a UserPlanStore backed by the application database
func NewStore(db *gorm.DB) UserPlanStore {
	return &gormPlanStore{db: db}
}

func (s *gormPlanStore) GetUserPlan(userID uint) (string, *time.Time, error) {
	var user models.User
	if err := s.db.Select("id", "plan_name", "plan_expires_at").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	return user.PlanName, user.PlanExpiresAt, nil
}

// CountForKind counts the existing resources the ceiling applies to:
// workspaces owned by the user, or boards/members of one workspace.
// Exposed here so route handlers count and create inside the same
// transaction handle.
func CountForKind(db *gorm.DB, kind ResourceKind, scopeID uint) (int64, error) {
	var count int64
	var err error
	switch kind {
	case ResourceWorkspace:
		err = db.Model(&models.Workspace{}).Where("owner_id = ?", scopeID).Count(&count).Error
	case ResourceBoard:
		err = db.Model(&models.Board{}).Where("workspace_id = ?", scopeID).Count(&count).Error
	case ResourceMember:
		err = db.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", scopeID).Count(&count).Error
	}
	return count, err
}

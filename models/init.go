package models

import "gorm.io/gorm"

// Initialize default plans in your database migration
func CreateDefaultPlans(db *gorm.DB) error {
	defaultPlans := []Plan{
		{
			Name:           "free",
			Description:    "Free plan with one workspace and three boards",
			Price:          0,
			WorkspaceLimit: 1,
			BoardLimit:     3,
			MemberLimit:    3,
		},
		{
			Name:           "pro",
			Description:    "Pro plan for growing teams",
			Price:          1200, // $12
			WorkspaceLimit: 5,
			BoardLimit:     10,
			MemberLimit:    10,
			DisplayPrice:   "$12",
			IsPopular:      true,
			Recommended:    true,
		},
		{
			Name:           "business",
			Description:    "Business plan with unlimited workspaces and boards",
			Price:          4900, // $49
			WorkspaceLimit: -1,
			BoardLimit:     -1,
			MemberLimit:    50,
			DisplayPrice:   "$49",
		},
	}
	for _, plan := range defaultPlans {
		if err := db.FirstOrCreate(&plan, "name = ?", plan.Name).Error; err != nil {
			return err
		}
	}
	return nil
}

package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"boardly/models"
)

// PlanWorker reconciles stored plan fields with their expiry. Limit
// checks already compute the effective tier per read, so nothing
// depends on this running promptly; it keeps the stored rows honest
// for display and reporting.
type PlanWorker struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewPlanWorker(db *gorm.DB, logger *log.Logger) *PlanWorker {
	return &PlanWorker{
		DB:     db,
		Logger: logger,
	}
}

func (pw *PlanWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	pw.Logger.Println("Plan sync worker started")

	ticker := time.NewTicker(15 * time.Minute)
	defer ticker.Stop()

	pw.downgradeLapsed()

	for {
		select {
		case <-ctx.Done():
			pw.Logger.Println("Plan sync worker shutting down...")
			return
		case <-ticker.C:
			pw.downgradeLapsed()
		}
	}
}

func (pw *PlanWorker) downgradeLapsed() {
	now := time.Now()
	result := pw.DB.Model(&models.User{}).
		Where("plan_name <> ? AND plan_expires_at IS NOT NULL AND plan_expires_at < ?", "free", now).
		Updates(map[string]interface{}{
			"plan_name":       "free",
			"plan_expires_at": nil,
			"plan_updated_at": now,
		})
	if result.Error != nil {
		pw.Logger.Printf("Error downgrading lapsed plans: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		pw.Logger.Printf("Downgraded %d lapsed plans to free", result.RowsAffected)
	}
}

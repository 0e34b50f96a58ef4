package worker

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"boardly/models"
)

// InvitationWorker purges invitations that expired without being
// accepted so stale tokens cannot linger in the table.
type InvitationWorker struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewInvitationWorker(db *gorm.DB, logger *log.Logger) *InvitationWorker {
	return &InvitationWorker{
		DB:     db,
		Logger: logger,
	}
}

func (iw *InvitationWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	iw.Logger.Println("Invitation cleanup worker started")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	iw.purgeExpired()

	for {
		select {
		case <-ctx.Done():
			iw.Logger.Println("Invitation cleanup worker shutting down...")
			return
		case <-ticker.C:
			iw.purgeExpired()
		}
	}
}

func (iw *InvitationWorker) purgeExpired() {
	result := iw.DB.Where("accepted_at IS NULL AND expires_at < ?", time.Now()).
		Delete(&models.Invitation{})
	if result.Error != nil {
		iw.Logger.Printf("Error purging expired invitations: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		iw.Logger.Printf("Purged %d expired invitations", result.RowsAffected)
	}
}

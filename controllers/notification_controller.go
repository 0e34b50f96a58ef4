package controller

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"boardly/models"
	"boardly/utils"
)

type NotificationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewNotificationController(db *gorm.DB, logger *log.Logger) *NotificationController {
	return &NotificationController{DB: db, Logger: logger}
}

// GetNotifications lists the caller's notifications, unread first
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	unreadOnly := c.QueryBool("unread", false)
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := nc.DB.Where("user_id = ?", user.ID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Order("read_at IS NULL DESC, created_at DESC").
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list notifications",
		})
	}

	var unreadCount int64
	nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID).
		Count(&unreadCount)

	return c.JSON(fiber.Map{
		"data":         notifications,
		"unread_count": unreadCount,
	})
}

// MarkNotificationRead marks one notification as read
func (nc *NotificationController) MarkNotificationRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	notificationID := utils.ParseUint(c.Params("notificationID"))

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, user.ID).
		Update("read_at", now)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notification read",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Notification not found",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Notification marked read",
	})
}

// MarkAllNotificationsRead marks every unread notification read
func (nc *NotificationController) MarkAllNotificationsRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	now := time.Now()
	result := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", user.ID).
		Update("read_at", now)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to mark notifications read",
		})
	}

	return c.JSON(fiber.Map{
		"message": "All notifications marked read",
		"updated": result.RowsAffected,
	})
}

package models

import "time"

// Notification kinds emitted by the review workflow.
const (
	NotificationSubmitted         = "submitted"
	NotificationResubmitted       = "resubmitted"
	NotificationAwaitingReview    = "awaiting_review"
	NotificationApproved          = "approved"
	NotificationAdvanced          = "advanced"
	NotificationRejected          = "rejected"
	NotificationRevisionRequested = "revision_requested"
)

type Notification struct {
	NotificationID uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID         int        `gorm:"column:user_id;index" json:"user_id"`
	PaperID        *string    `gorm:"column:paper_id;type:varchar(36)" json:"paper_id,omitempty"`
	Kind           string     `gorm:"column:kind;type:varchar(32)" json:"kind"`
	Title          string     `gorm:"column:title" json:"title"`
	Message        string     `gorm:"column:message;type:text" json:"message"`
	IsRead         bool       `gorm:"column:is_read" json:"is_read"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"created_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }

package models

import "time"

// ResearchReview is the append-only audit record of a reviewer decision.
type ResearchReview struct {
	ReviewID     int         `gorm:"primaryKey;column:review_id" json:"review_id"`
	PaperID      string      `gorm:"column:paper_id;type:varchar(36);index" json:"paper_id"`
	ReviewerID   int         `gorm:"column:reviewer_id" json:"reviewer_id"`
	ReviewerRole Role        `gorm:"column:reviewer_role;type:varchar(16)" json:"reviewer_role"`
	Decision     string      `gorm:"column:decision;type:varchar(32)" json:"decision"`
	Comments     *string     `gorm:"column:comments;type:text" json:"comments,omitempty"`
	FromStatus   PaperStatus `gorm:"column:from_status;type:varchar(32)" json:"from_status"`
	ToStatus     PaperStatus `gorm:"column:to_status;type:varchar(32)" json:"to_status"`
	ReviewedAt   time.Time   `gorm:"column:reviewed_at" json:"reviewed_at"`
}

// TableName specifies the table name for ResearchReview.
func (ResearchReview) TableName() string {
	return "research_reviews"
}

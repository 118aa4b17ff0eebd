package models

import "time"

// ResearchPaper is one research submission moving through the review pipeline.
type ResearchPaper struct {
	PaperID           string       `gorm:"primaryKey;column:paper_id;type:varchar(36)" json:"paper_id"`
	AuthorID          int          `gorm:"column:author_id;index" json:"author_id"`
	AssignedFacultyID *int         `gorm:"column:assigned_faculty_id;index" json:"assigned_faculty_id,omitempty"`
	Title             string       `gorm:"column:title" json:"title"`
	Abstract          string       `gorm:"column:abstract;type:text" json:"abstract"`
	Category          string       `gorm:"column:category" json:"category"`
	Keywords          string       `gorm:"column:keywords" json:"keywords,omitempty"`
	CoAuthors         string       `gorm:"column:co_authors" json:"co_authors,omitempty"`
	Status            PaperStatus  `gorm:"column:status;type:varchar(32);index" json:"status"`
	LastReviewerRole  *Role        `gorm:"column:last_reviewer_role;type:varchar(16)" json:"last_reviewer_role,omitempty"`
	PreviousStatus    *PaperStatus `gorm:"column:previous_status;type:varchar(32)" json:"previous_status,omitempty"`
	RevisionNotes     *string      `gorm:"column:revision_notes;type:text" json:"revision_notes,omitempty"`
	RejectionReason   *string      `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`

	// Content reference; the bytes live in the storage backend.
	FileKey  string `gorm:"column:file_key" json:"-"`
	FileName string `gorm:"column:file_name" json:"file_name"`
	FileSize int64  `gorm:"column:file_size" json:"file_size"`
	MimeType string `gorm:"column:mime_type" json:"mime_type"`

	SubmittedAt time.Time  `gorm:"column:submitted_at" json:"submitted_at"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for ResearchPaper.
func (ResearchPaper) TableName() string {
	return "research_papers"
}

// HasFaculty reports whether a faculty reviewer was assigned at submission.
func (p *ResearchPaper) HasFaculty() bool {
	return p.AssignedFacultyID != nil && *p.AssignedFacultyID != 0
}

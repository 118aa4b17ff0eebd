package services

import (
	"context"
	"io"

	"research-review-api/models"
)

// PaperFilter narrows ListPapers. Empty fields do not filter.
type PaperFilter struct {
	Statuses          []models.PaperStatus
	AssignedFacultyID *int
	AuthorID          *int
}

// PaperStore is the persistence collaborator of the review workflow. Each
// call is atomic on its own.
type PaperStore interface {
	GetPaper(ctx context.Context, paperID string) (*models.ResearchPaper, error)
	CreatePaper(ctx context.Context, paper *models.ResearchPaper) error
	// UpdatePaper writes the mutable columns of paper only while the stored
	// status still equals expected. A lost race returns *ConflictError.
	UpdatePaper(ctx context.Context, paper *models.ResearchPaper, expected models.PaperStatus) error
	AppendReview(ctx context.Context, review *models.ResearchReview) error
	ListPapers(ctx context.Context, filter PaperFilter) ([]models.ResearchPaper, error)
	ListReviews(ctx context.Context, paperID string) ([]models.ResearchReview, error)
	ListUserIDsByRole(ctx context.Context, role models.Role) ([]int, error)
	GetUser(ctx context.Context, userID int) (*models.User, error)
}

// ContentStore keeps uploaded paper files.
type ContentStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// UserStore backs login and the admin CLI.
type UserStore interface {
	UserLookup
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

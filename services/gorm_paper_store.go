package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"research-review-api/models"
)

// GormPaperStore is the MySQL-backed PaperStore.
type GormPaperStore struct {
	db *gorm.DB
}

// NewGormPaperStore wraps an open gorm connection.
func NewGormPaperStore(db *gorm.DB) *GormPaperStore {
	return &GormPaperStore{db: db}
}

func (s *GormPaperStore) GetPaper(ctx context.Context, paperID string) (*models.ResearchPaper, error) {
	var paper models.ResearchPaper
	if err := s.db.WithContext(ctx).Where("paper_id = ?", paperID).First(&paper).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "paper", ID: paperID}
		}
		return nil, fmt.Errorf("load paper %s: %w", paperID, err)
	}
	return &paper, nil
}

func (s *GormPaperStore) CreatePaper(ctx context.Context, paper *models.ResearchPaper) error {
	if err := s.db.WithContext(ctx).Create(paper).Error; err != nil {
		return fmt.Errorf("insert paper: %w", err)
	}
	return nil
}

// UpdatePaper is a conditional update keyed on paper_id and the expected
// status. The DSN sets clientFoundRows so RowsAffected counts matched rows.
func (s *GormPaperStore) UpdatePaper(ctx context.Context, paper *models.ResearchPaper, expected models.PaperStatus) error {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&models.ResearchPaper{}).
		Where("paper_id = ? AND status = ?", paper.PaperID, expected).
		Updates(map[string]interface{}{
			"title":              paper.Title,
			"abstract":           paper.Abstract,
			"category":           paper.Category,
			"keywords":           paper.Keywords,
			"co_authors":         paper.CoAuthors,
			"status":             paper.Status,
			"last_reviewer_role": paper.LastReviewerRole,
			"previous_status":    paper.PreviousStatus,
			"revision_notes":     paper.RevisionNotes,
			"rejection_reason":   paper.RejectionReason,
			"file_key":           paper.FileKey,
			"file_name":          paper.FileName,
			"file_size":          paper.FileSize,
			"mime_type":          paper.MimeType,
			"submitted_at":       paper.SubmittedAt,
			"published_at":       paper.PublishedAt,
			"updated_at":         now,
		})
	if res.Error != nil {
		return fmt.Errorf("update paper %s: %w", paper.PaperID, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetPaper(ctx, paper.PaperID); err != nil {
			return err
		}
		return &ConflictError{PaperID: paper.PaperID, Expected: expected}
	}
	paper.UpdatedAt = now
	return nil
}

func (s *GormPaperStore) AppendReview(ctx context.Context, review *models.ResearchReview) error {
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (s *GormPaperStore) ListPapers(ctx context.Context, filter PaperFilter) ([]models.ResearchPaper, error) {
	query := s.db.WithContext(ctx).Model(&models.ResearchPaper{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.AssignedFacultyID != nil {
		query = query.Where("assigned_faculty_id = ?", *filter.AssignedFacultyID)
	}
	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}

	var papers []models.ResearchPaper
	if err := query.Order("submitted_at DESC, paper_id ASC").Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

func (s *GormPaperStore) ListReviews(ctx context.Context, paperID string) ([]models.ResearchReview, error) {
	var reviews []models.ResearchReview
	if err := s.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("reviewed_at ASC, review_id ASC").
		Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *GormPaperStore) ListUserIDsByRole(ctx context.Context, role models.Role) ([]int, error) {
	var ids []int
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND delete_at IS NULL", role).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list users by role %s: %w", role, err)
	}
	return ids, nil
}

func (s *GormPaperStore) GetUser(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: strconv.Itoa(userID)}
		}
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return &user, nil
}

func (s *GormPaperStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ? AND delete_at IS NULL", email).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "user", ID: email}
		}
		return nil, fmt.Errorf("load user %s: %w", email, err)
	}
	return &user, nil
}

func (s *GormPaperStore) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.CreateAt = &now
	user.UpdateAt = &now
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

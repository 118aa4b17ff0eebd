package services

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"research-review-api/models"
)

// MemoryStore is an in-process PaperStore used for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	papers  map[string]models.ResearchPaper
	reviews []models.ResearchReview
	users   map[int]models.User
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		papers: make(map[string]models.ResearchPaper),
		users:  make(map[int]models.User),
	}
}

// PutUser inserts or replaces a user.
func (m *MemoryStore) PutUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = user
}

func (m *MemoryStore) GetPaper(_ context.Context, paperID string) (*models.ResearchPaper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[paperID]
	if !ok {
		return nil, &NotFoundError{Entity: "paper", ID: paperID}
	}
	return clonePaper(p), nil
}

func (m *MemoryStore) CreatePaper(_ context.Context, paper *models.ResearchPaper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.papers[paper.PaperID]; exists {
		return &ConflictError{PaperID: paper.PaperID}
	}
	now := time.Now().UTC()
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = now
	}
	paper.UpdatedAt = now
	m.papers[paper.PaperID] = *clonePaper(*paper)
	return nil
}

func (m *MemoryStore) UpdatePaper(_ context.Context, paper *models.ResearchPaper, expected models.PaperStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.papers[paper.PaperID]
	if !ok {
		return &NotFoundError{Entity: "paper", ID: paper.PaperID}
	}
	if current.Status != expected {
		return &ConflictError{PaperID: paper.PaperID, Expected: expected}
	}
	next := *clonePaper(*paper)
	next.AuthorID = current.AuthorID
	next.AssignedFacultyID = current.AssignedFacultyID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	m.papers[paper.PaperID] = next
	paper.UpdatedAt = next.UpdatedAt
	return nil
}

func (m *MemoryStore) AppendReview(_ context.Context, review *models.ResearchReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	review.ReviewID = len(m.reviews) + 1
	m.reviews = append(m.reviews, *review)
	return nil
}

func (m *MemoryStore) ListPapers(_ context.Context, filter PaperFilter) ([]models.ResearchPaper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ResearchPaper, 0)
	for _, p := range m.papers {
		if !matchesFilter(p, filter) {
			continue
		}
		out = append(out, *clonePaper(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].PaperID < out[j].PaperID
	})
	return out, nil
}

func (m *MemoryStore) ListReviews(_ context.Context, paperID string) ([]models.ResearchReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ResearchReview, 0)
	for _, r := range m.reviews {
		if r.PaperID == paperID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListUserIDsByRole(_ context.Context, role models.Role) ([]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int, 0)
	for id, u := range m.users {
		if u.Role == role && u.DeleteAt == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (m *MemoryStore) GetUser(_ context.Context, userID int) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[userID]
	if !ok || u.DeleteAt != nil {
		return nil, &NotFoundError{Entity: "user", ID: strconv.Itoa(userID)}
	}
	return &u, nil
}

func matchesFilter(p models.ResearchPaper, filter PaperFilter) bool {
	if filter.AuthorID != nil && p.AuthorID != *filter.AuthorID {
		return false
	}
	if filter.AssignedFacultyID != nil && (p.AssignedFacultyID == nil || *p.AssignedFacultyID != *filter.AssignedFacultyID) {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, s := range filter.Statuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// clonePaper copies the pointer fields so stored rows never alias caller values.
func clonePaper(p models.ResearchPaper) *models.ResearchPaper {
	out := p
	if p.AssignedFacultyID != nil {
		v := *p.AssignedFacultyID
		out.AssignedFacultyID = &v
	}
	if p.LastReviewerRole != nil {
		v := *p.LastReviewerRole
		out.LastReviewerRole = &v
	}
	if p.PreviousStatus != nil {
		v := *p.PreviousStatus
		out.PreviousStatus = &v
	}
	if p.RevisionNotes != nil {
		v := *p.RevisionNotes
		out.RevisionNotes = &v
	}
	if p.RejectionReason != nil {
		v := *p.RejectionReason
		out.RejectionReason = &v
	}
	if p.PublishedAt != nil {
		v := *p.PublishedAt
		out.PublishedAt = &v
	}
	return &out
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.DeleteAt == nil {
			found := u
			return &found, nil
		}
	}
	return nil, &NotFoundError{Entity: "user", ID: email}
}

func (m *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return &ValidationError{Field: "email", Message: "already registered"}
		}
	}
	if user.UserID == 0 {
		maxID := 0
		for id := range m.users {
			if id > maxID {
				maxID = id
			}
		}
		user.UserID = maxID + 1
	}
	now := time.Now()
	user.CreateAt = &now
	user.UpdateAt = &now
	m.users[user.UserID] = *user
	return nil
}

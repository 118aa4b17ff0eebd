package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"research-review-api/models"
)

const (
	studentID      = 10
	otherStudentID = 11
	facultyID      = 20
	otherFacultyID = 21
	staffID        = 30
	adminID        = 40
)

var (
	student      = Actor{ID: studentID, Role: models.RoleStudent}
	otherStudent = Actor{ID: otherStudentID, Role: models.RoleStudent}
	faculty      = Actor{ID: facultyID, Role: models.RoleFaculty}
	otherFaculty = Actor{ID: otherFacultyID, Role: models.RoleFaculty}
	staff        = Actor{ID: staffID, Role: models.RoleStaff}
	admin        = Actor{ID: adminID, Role: models.RoleAdmin}
)

type recordingDispatcher struct {
	mu      sync.Mutex
	notices []Notice
}

func (d *recordingDispatcher) Dispatch(_ context.Context, notices []Notice) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notices = append(d.notices, notices...)
}

// take returns and clears the recorded notices.
func (d *recordingDispatcher) take() []Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.notices
	d.notices = nil
	return out
}

type memoryContent struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryContent() *memoryContent {
	return &memoryContent{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *memoryContent) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryContent) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *memoryContent) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type workflowFixture struct {
	store      *MemoryStore
	dispatcher *recordingDispatcher
	content    *memoryContent
	metrics    *WorkflowMetrics
	workflow   *ResearchWorkflow
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	store := NewMemoryStore()
	seedUsers(store)
	return newWorkflowFixtureWithStore(t, store, store)
}

func newWorkflowFixtureWithStore(t *testing.T, mem *MemoryStore, store PaperStore) *workflowFixture {
	t.Helper()
	f := &workflowFixture{
		store:      mem,
		dispatcher: &recordingDispatcher{},
		content:    newMemoryContent(),
		metrics:    NewWorkflowMetrics(prometheus.NewRegistry(), "test"),
	}

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	seq := 0
	f.workflow = NewResearchWorkflow(store, f.dispatcher,
		WithMetrics(f.metrics),
		WithContentStore(f.content),
		WithClock(func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Minute)
		}),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	return f
}

func seedUsers(store *MemoryStore) {
	for _, u := range []models.User{
		{UserID: studentID, UserFname: "Suda", UserLname: "Student", Email: "student@example.edu", Role: models.RoleStudent},
		{UserID: otherStudentID, Email: "other.student@example.edu", Role: models.RoleStudent},
		{UserID: facultyID, UserFname: "Fah", UserLname: "Faculty", Email: "faculty@example.edu", Role: models.RoleFaculty},
		{UserID: otherFacultyID, Email: "other.faculty@example.edu", Role: models.RoleFaculty},
		{UserID: staffID, Email: "staff@example.edu", Role: models.RoleStaff},
		{UserID: adminID, Email: "admin@example.edu", Role: models.RoleAdmin},
	} {
		store.PutUser(u)
	}
}

func draftWithFile(title string, assigned *int) PaperDraft {
	return PaperDraft{
		Title:             title,
		Abstract:          "An abstract.",
		Category:          "computer-science",
		Keywords:          "review, workflow",
		AssignedFacultyID: assigned,
		File: &Upload{
			Name:        "Paper.PDF",
			Size:        4,
			ContentType: "application/pdf",
			Body:        bytes.NewReader([]byte("%PDF")),
		},
	}
}

func intPtr(v int) *int { return &v }

// submitPaper creates a paper and drops the submission notices.
func (f *workflowFixture) submitPaper(t *testing.T, assigned *int) *models.ResearchPaper {
	t.Helper()
	paper, err := f.workflow.Submit(context.Background(), student, draftWithFile("Graph Coloring", assigned), "")
	require.NoError(t, err)
	f.dispatcher.take()
	return paper
}

func (f *workflowFixture) stored(t *testing.T, paperID string) *models.ResearchPaper {
	t.Helper()
	paper, err := f.store.GetPaper(context.Background(), paperID)
	require.NoError(t, err)
	return paper
}

func recipients(notices []Notice) map[int]string {
	out := make(map[int]string, len(notices))
	for _, n := range notices {
		out[n.RecipientID] = n.Kind
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

// faultyStore fails selected best-effort calls.
type faultyStore struct {
	*MemoryStore
	failAudit      bool
	failRecipients bool
	failCreate     bool
}

func (s *faultyStore) CreatePaper(ctx context.Context, paper *models.ResearchPaper) error {
	if s.failCreate {
		return errStoreDown
	}
	return s.MemoryStore.CreatePaper(ctx, paper)
}

func (s *faultyStore) AppendReview(ctx context.Context, review *models.ResearchReview) error {
	if s.failAudit {
		return errStoreDown
	}
	return s.MemoryStore.AppendReview(ctx, review)
}

func (s *faultyStore) ListUserIDsByRole(ctx context.Context, role models.Role) ([]int, error) {
	if s.failRecipients {
		return nil, errStoreDown
	}
	return s.MemoryStore.ListUserIDsByRole(ctx, role)
}

// racingStore moves the paper to another status right after it is read,
// as a concurrent reviewer would.
type racingStore struct {
	*MemoryStore
	once   sync.Once
	moveTo models.PaperStatus
}

func (s *racingStore) GetPaper(ctx context.Context, paperID string) (*models.ResearchPaper, error) {
	paper, err := s.MemoryStore.GetPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	s.once.Do(func() {
		other := *paper
		other.Status = s.moveTo
		_ = s.MemoryStore.UpdatePaper(ctx, &other, paper.Status)
	})
	return paper, nil
}

func containsAll(t *testing.T, s string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		require.True(t, strings.Contains(s, p), "%q does not contain %q", s, p)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"research-review-api/models"
)

// Actor is the authenticated caller. The workflow trusts it as given.
type Actor struct {
	ID   int
	Role models.Role
}

// Upload is a new paper file to hand to the ContentStore.
type Upload struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// PaperDraft carries the author-editable content of a submission.
type PaperDraft struct {
	Title             string
	Abstract          string
	Category          string
	Keywords          string
	CoAuthors         string
	AssignedFacultyID *int
	File              *Upload
}

// PaperDetail is a paper together with its review history.
type PaperDetail struct {
	Paper   *models.ResearchPaper   `json:"paper"`
	Reviews []models.ResearchReview `json:"reviews"`
}

// ResearchWorkflow applies status machine decisions to the PaperStore.
// Every operation commits the paper first; audit rows and notifications are
// emitted afterwards and their failures are only logged.
type ResearchWorkflow struct {
	store      PaperStore
	dispatcher Dispatcher
	content    ContentStore
	metrics    *WorkflowMetrics
	logger     zerolog.Logger
	now        func() time.Time
	newID      func() string
}

// WorkflowOption configures a ResearchWorkflow.
type WorkflowOption func(*ResearchWorkflow)

func WithLogger(logger zerolog.Logger) WorkflowOption {
	return func(w *ResearchWorkflow) { w.logger = logger }
}

func WithMetrics(metrics *WorkflowMetrics) WorkflowOption {
	return func(w *ResearchWorkflow) { w.metrics = metrics }
}

func WithContentStore(content ContentStore) WorkflowOption {
	return func(w *ResearchWorkflow) { w.content = content }
}

func WithClock(now func() time.Time) WorkflowOption {
	return func(w *ResearchWorkflow) { w.now = now }
}

func WithIDGenerator(newID func() string) WorkflowOption {
	return func(w *ResearchWorkflow) { w.newID = newID }
}

// NewResearchWorkflow wires the orchestrator to its collaborators.
func NewResearchWorkflow(store PaperStore, dispatcher Dispatcher, opts ...WorkflowOption) *ResearchWorkflow {
	w := &ResearchWorkflow{
		store:      store,
		dispatcher: dispatcher,
		logger:     zerolog.Nop(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit creates a paper when existingID is empty, otherwise updates the
// author's paper and, if it is in revision_required, resumes review.
func (w *ResearchWorkflow) Submit(ctx context.Context, actor Actor, draft PaperDraft, existingID string) (*models.ResearchPaper, error) {
	existingID = strings.TrimSpace(existingID)
	if err := validateDraft(draft, existingID); err != nil {
		return nil, err
	}
	if existingID == "" {
		return w.create(ctx, actor, draft)
	}
	return w.resubmit(ctx, actor, draft, existingID)
}

func validateDraft(draft PaperDraft, existingID string) error {
	switch {
	case strings.TrimSpace(draft.Title) == "":
		return &ValidationError{Field: "title", Message: "is required"}
	case strings.TrimSpace(draft.Abstract) == "":
		return &ValidationError{Field: "abstract", Message: "is required"}
	case strings.TrimSpace(draft.Category) == "":
		return &ValidationError{Field: "category", Message: "is required"}
	case existingID == "" && draft.File == nil:
		return &ValidationError{Field: "file", Message: "is required for a new submission"}
	case draft.File != nil && draft.File.Body == nil:
		return &ValidationError{Field: "file", Message: "is empty"}
	}
	return nil
}

func (w *ResearchWorkflow) create(ctx context.Context, actor Actor, draft PaperDraft) (*models.ResearchPaper, error) {
	hasFaculty := draft.AssignedFacultyID != nil && *draft.AssignedFacultyID != 0
	if hasFaculty {
		if err := w.checkFaculty(ctx, *draft.AssignedFacultyID); err != nil {
			return nil, err
		}
	}

	now := w.now()
	paper := &models.ResearchPaper{
		PaperID:     w.newID(),
		AuthorID:    actor.ID,
		SubmittedAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if hasFaculty {
		facultyID := *draft.AssignedFacultyID
		paper.AssignedFacultyID = &facultyID
	}
	applyDraft(paper, draft)
	if err := w.storeFile(ctx, paper, draft.File); err != nil {
		return nil, err
	}

	t := DecideSubmit(hasFaculty)
	paper.Status = t.To
	if err := w.store.CreatePaper(ctx, paper); err != nil {
		w.discardFile(ctx, paper.FileKey)
		return nil, persistenceErr("create paper", err)
	}
	w.metrics.transition(t.Action, t.From, t.To)
	w.logger.Info().Str("paper_id", paper.PaperID).Int("author_id", actor.ID).
		Str("status", string(paper.Status)).Msg("paper submitted")

	w.emit(ctx, paper, t, nil, "")
	return paper, nil
}

func (w *ResearchWorkflow) checkFaculty(ctx context.Context, facultyID int) error {
	user, err := w.store.GetUser(ctx, facultyID)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return &ValidationError{Field: "assigned_faculty_id", Message: "unknown user"}
		}
		return persistenceErr("load faculty", err)
	}
	if user.Role != models.RoleFaculty {
		return &ValidationError{Field: "assigned_faculty_id", Message: "user is not a faculty member"}
	}
	return nil
}

func (w *ResearchWorkflow) resubmit(ctx context.Context, actor Actor, draft PaperDraft, paperID string) (*models.ResearchPaper, error) {
	paper, err := w.store.GetPaper(ctx, paperID)
	if err != nil {
		return nil, persistenceErr("load paper", err)
	}
	if paper.AuthorID != actor.ID {
		return nil, &NotFoundError{Entity: "paper", ID: paperID}
	}

	t, err := DecideResubmit(paper, actor.Role)
	if err != nil {
		return nil, err
	}

	applyDraft(paper, draft)
	previousKey := paper.FileKey
	if err := w.storeFile(ctx, paper, draft.File); err != nil {
		return nil, err
	}
	if t.Changed() {
		paper.Status = t.To
		paper.LastReviewerRole = nil
		paper.PreviousStatus = nil
		paper.RevisionNotes = nil
		paper.SubmittedAt = w.now()
	}

	if err := w.store.UpdatePaper(ctx, paper, t.From); err != nil {
		if paper.FileKey != previousKey {
			w.discardFile(ctx, paper.FileKey)
		}
		return nil, persistenceErr("update paper", err)
	}
	if t.Changed() {
		w.metrics.transition(t.Action, t.From, t.To)
		w.logger.Info().Str("paper_id", paper.PaperID).
			Str("from", string(t.From)).Str("to", string(t.To)).Msg("paper resubmitted")
	}

	w.emit(ctx, paper, t, nil, "")
	return paper, nil
}

func applyDraft(paper *models.ResearchPaper, draft PaperDraft) {
	paper.Title = strings.TrimSpace(draft.Title)
	paper.Abstract = strings.TrimSpace(draft.Abstract)
	paper.Category = strings.TrimSpace(draft.Category)
	paper.Keywords = strings.TrimSpace(draft.Keywords)
	paper.CoAuthors = strings.TrimSpace(draft.CoAuthors)
}

func (w *ResearchWorkflow) storeFile(ctx context.Context, paper *models.ResearchPaper, file *Upload) error {
	if file == nil {
		return nil
	}
	if w.content == nil {
		return &PersistenceError{Op: "store file", Cause: fmt.Errorf("no content store configured")}
	}
	key := fmt.Sprintf("papers/%s/%s%s", paper.PaperID, w.newID(), strings.ToLower(filepath.Ext(file.Name)))
	if err := w.content.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return &PersistenceError{Op: "store file", Cause: err}
	}
	paper.FileKey = key
	paper.FileName = filepath.Base(file.Name)
	paper.FileSize = file.Size
	paper.MimeType = file.ContentType
	return nil
}

// discardFile removes an object whose paper write did not commit.
func (w *ResearchWorkflow) discardFile(ctx context.Context, key string) {
	if key == "" || w.content == nil {
		return
	}
	if err := w.content.Delete(persistentContext(ctx), key); err != nil {
		w.metrics.effectFailed("discard_file")
		w.logger.Warn().Err(err).Str("file_key", key).Msg("failed to remove orphaned paper file")
	}
}

// Approve advances the paper one stage, or to approved at the admin stage.
func (w *ResearchWorkflow) Approve(ctx context.Context, paperID string, actor Actor, comments string) (*models.ResearchPaper, error) {
	return w.review(ctx, paperID, actor, strings.TrimSpace(comments), DecideApprove,
		func(paper *models.ResearchPaper, t Transition, now time.Time) {
			if t.To == models.StatusApproved {
				paper.PublishedAt = &now
			}
		})
}

// Reject ends the workflow for the paper. reason is required.
func (w *ResearchWorkflow) Reject(ctx context.Context, paperID string, actor Actor, reason string) (*models.ResearchPaper, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "is required"}
	}
	return w.review(ctx, paperID, actor, reason, DecideReject,
		func(paper *models.ResearchPaper, _ Transition, _ time.Time) {
			paper.RejectionReason = &reason
		})
}

// RequestRevision returns the paper to its author. notes are required.
func (w *ResearchWorkflow) RequestRevision(ctx context.Context, paperID string, actor Actor, notes string) (*models.ResearchPaper, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, &ValidationError{Field: "notes", Message: "is required"}
	}
	return w.review(ctx, paperID, actor, notes, DecideRequestRevision,
		func(paper *models.ResearchPaper, t Transition, _ time.Time) {
			role := actor.Role
			previous := t.From
			paper.LastReviewerRole = &role
			paper.PreviousStatus = &previous
			paper.RevisionNotes = &notes
		})
}

type decideFunc func(paper *models.ResearchPaper, actor models.Role) (Transition, error)

type mutateFunc func(paper *models.ResearchPaper, t Transition, now time.Time)

func (w *ResearchWorkflow) review(ctx context.Context, paperID string, actor Actor, comments string, decide decideFunc, mutate mutateFunc) (*models.ResearchPaper, error) {
	paper, err := w.store.GetPaper(ctx, paperID)
	if err != nil {
		return nil, persistenceErr("load paper", err)
	}

	t, err := decide(paper, actor.Role)
	if err != nil {
		return nil, err
	}
	if !mayReview(paper, actor) {
		return nil, &NotFoundError{Entity: "paper", ID: paperID}
	}

	// Commit: the only durable contract of the operation.
	now := w.now()
	paper.Status = t.To
	if t.To != models.StatusRevisionRequired {
		paper.LastReviewerRole = nil
		paper.PreviousStatus = nil
	}
	mutate(paper, t, now)
	if err := w.store.UpdatePaper(ctx, paper, t.From); err != nil {
		return nil, persistenceErr("update paper", err)
	}
	w.metrics.transition(t.Action, t.From, t.To)
	w.logger.Info().
		Str("paper_id", paper.PaperID).
		Str("action", t.Action).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Int("actor_id", actor.ID).
		Str("actor_role", string(actor.Role)).
		Msg("review decision committed")

	// Emit: best effort.
	review := &models.ResearchReview{
		PaperID:      paper.PaperID,
		ReviewerID:   actor.ID,
		ReviewerRole: actor.Role,
		Decision:     t.Action,
		FromStatus:   t.From,
		ToStatus:     t.To,
		ReviewedAt:   now,
	}
	if comments != "" {
		c := comments
		review.Comments = &c
	}
	w.emit(ctx, paper, t, review, comments)
	return paper, nil
}

func (w *ResearchWorkflow) emit(ctx context.Context, paper *models.ResearchPaper, t Transition, review *models.ResearchReview, detail string) {
	if review != nil {
		if err := w.store.AppendReview(ctx, review); err != nil {
			w.metrics.effectFailed("audit")
			w.logger.Warn().Err(err).Str("paper_id", paper.PaperID).
				Str("decision", review.Decision).Msg("failed to append review event")
		}
	}
	notices := w.resolveNotices(ctx, paper, t, detail)
	if len(notices) > 0 && w.dispatcher != nil {
		w.dispatcher.Dispatch(ctx, notices)
	}
}

func (w *ResearchWorkflow) resolveNotices(ctx context.Context, paper *models.ResearchPaper, t Transition, detail string) []Notice {
	seen := make(map[int]bool)
	notices := make([]Notice, 0, len(t.Recipients))
	for _, audience := range t.Recipients {
		var ids []int
		switch audience.Kind {
		case AudienceAuthor:
			ids = []int{paper.AuthorID}
		case AudienceAssignedFaculty:
			if paper.HasFaculty() {
				ids = []int{*paper.AssignedFacultyID}
			}
		case AudienceRole:
			roleIDs, err := w.store.ListUserIDsByRole(ctx, audience.Role)
			if err != nil {
				w.metrics.effectFailed("recipients")
				w.logger.Warn().Err(err).Str("paper_id", paper.PaperID).
					Str("role", string(audience.Role)).Msg("failed to resolve notification recipients")
				continue
			}
			ids = roleIDs
		}
		title, message := noticeText(audience.NotifyKind, paper, detail)
		for _, id := range ids {
			if id == 0 || seen[id] {
				continue
			}
			seen[id] = true
			notices = append(notices, Notice{
				RecipientID: id,
				PaperID:     paper.PaperID,
				Kind:        audience.NotifyKind,
				Title:       title,
				Message:     message,
			})
		}
	}
	return notices
}

func noticeText(kind string, paper *models.ResearchPaper, detail string) (string, string) {
	switch kind {
	case models.NotificationSubmitted:
		return "Paper submitted", fmt.Sprintf("Your paper %q was submitted and is awaiting review.", paper.Title)
	case models.NotificationAwaitingReview:
		return "Paper awaiting your review", fmt.Sprintf("%q is awaiting review (%s).", paper.Title, paper.Status)
	case models.NotificationResubmitted:
		return "Paper resubmitted", fmt.Sprintf("%q was revised by its author and is awaiting review (%s).", paper.Title, paper.Status)
	case models.NotificationAdvanced:
		return "Paper advanced", fmt.Sprintf("Your paper %q passed review and moved to %s.", paper.Title, paper.Status)
	case models.NotificationApproved:
		return "Paper approved", fmt.Sprintf("Your paper %q was approved and published.", paper.Title)
	case models.NotificationRejected:
		return "Paper rejected", fmt.Sprintf("Your paper %q was rejected. Reason: %s", paper.Title, detail)
	case models.NotificationRevisionRequested:
		return "Revision requested", fmt.Sprintf("Your paper %q needs revision. Notes: %s", paper.Title, detail)
	}
	return "Paper update", fmt.Sprintf("Your paper %q is now %s.", paper.Title, paper.Status)
}

// GetAssigned lists papers waiting on the actor's stage. A status filter
// narrows the stage statuses and never widens them; faculty only ever see
// papers assigned to them.
func (w *ResearchWorkflow) GetAssigned(ctx context.Context, actor Actor, statusFilter models.PaperStatus) ([]models.ResearchPaper, error) {
	statuses := AwaitingStatuses(actor.Role)
	if statuses == nil {
		return []models.ResearchPaper{}, nil
	}
	if statusFilter != "" {
		if !statusFilter.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", statusFilter)}
		}
		if !containsStatus(statuses, statusFilter) {
			return []models.ResearchPaper{}, nil
		}
		statuses = []models.PaperStatus{statusFilter}
	}
	filter := PaperFilter{Statuses: statuses}
	if actor.Role == models.RoleFaculty {
		facultyID := actor.ID
		filter.AssignedFacultyID = &facultyID
	}
	papers, err := w.store.ListPapers(ctx, filter)
	if err != nil {
		return nil, persistenceErr("list assigned papers", err)
	}
	return papers, nil
}

func containsStatus(statuses []models.PaperStatus, status models.PaperStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Mine lists the actor's own submissions.
func (w *ResearchWorkflow) Mine(ctx context.Context, actor Actor, statusFilter models.PaperStatus) ([]models.ResearchPaper, error) {
	authorID := actor.ID
	filter := PaperFilter{AuthorID: &authorID}
	if statusFilter != "" {
		if !statusFilter.Valid() {
			return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", statusFilter)}
		}
		filter.Statuses = []models.PaperStatus{statusFilter}
	}
	papers, err := w.store.ListPapers(ctx, filter)
	if err != nil {
		return nil, persistenceErr("list own papers", err)
	}
	return papers, nil
}

// Published lists approved papers.
func (w *ResearchWorkflow) Published(ctx context.Context) ([]models.ResearchPaper, error) {
	papers, err := w.store.ListPapers(ctx, PaperFilter{Statuses: []models.PaperStatus{models.StatusApproved}})
	if err != nil {
		return nil, persistenceErr("list published papers", err)
	}
	return papers, nil
}

// Get returns a paper with its review history. Students only see their own
// papers and faculty additionally those assigned to them; approved papers
// are visible to everyone.
func (w *ResearchWorkflow) Get(ctx context.Context, paperID string, actor Actor) (*PaperDetail, error) {
	paper, err := w.store.GetPaper(ctx, paperID)
	if err != nil {
		return nil, persistenceErr("load paper", err)
	}
	if !canView(paper, actor) {
		return nil, &NotFoundError{Entity: "paper", ID: paperID}
	}
	reviews, err := w.store.ListReviews(ctx, paperID)
	if err != nil {
		return nil, persistenceErr("list reviews", err)
	}
	return &PaperDetail{Paper: paper, Reviews: reviews}, nil
}

// mayReview limits the faculty stage to the assigned reviewer. Staff and
// admin outrank it and are left to the status machine.
func mayReview(paper *models.ResearchPaper, actor Actor) bool {
	if paper.Status != models.StatusPendingFaculty || actor.Role != models.RoleFaculty {
		return true
	}
	return paper.HasFaculty() && *paper.AssignedFacultyID == actor.ID
}

func canView(paper *models.ResearchPaper, actor Actor) bool {
	switch {
	case paper.AuthorID == actor.ID, paper.Status == models.StatusApproved:
		return true
	case actor.Role == models.RoleStaff, actor.Role == models.RoleAdmin:
		return true
	case actor.Role == models.RoleFaculty:
		return paper.HasFaculty() && *paper.AssignedFacultyID == actor.ID
	}
	return false
}

package services

import "research-review-api/models"

// Stage is a point in the sequential review pipeline.
type Stage int

const (
	StageFirstReview Stage = iota + 1
	StageEditor
	StageAdmin
)

func (s Stage) String() string {
	switch s {
	case StageFirstReview:
		return "first_review"
	case StageEditor:
		return "editor"
	case StageAdmin:
		return "admin"
	}
	return "none"
}

// Position is where a pending paper waits. The first-review stage carries
// whether a faculty reviewer is assigned; without one the legacy "pending"
// status applies and staff performs the first review.
type Position struct {
	Stage   Stage
	Faculty bool
}

// Reviewer is the role that acts on a paper at this position.
func (p Position) Reviewer() models.Role {
	switch p.Stage {
	case StageFirstReview:
		if p.Faculty {
			return models.RoleFaculty
		}
		return models.RoleStaff
	case StageEditor:
		return models.RoleStaff
	case StageAdmin:
		return models.RoleAdmin
	}
	return ""
}

// Status encodes the position as the stored status value.
func (p Position) Status() models.PaperStatus {
	switch p.Stage {
	case StageFirstReview:
		if p.Faculty {
			return models.StatusPendingFaculty
		}
		return models.StatusPending
	case StageEditor:
		return models.StatusPendingEditor
	case StageAdmin:
		return models.StatusPendingAdmin
	}
	return ""
}

// next is the position reached on approval; ok is false when approval is final.
// A legacy first review is performed by staff, so it skips the editor stage.
// Legacy "pending" therefore carries staff edges for approve, reject and
// request revision (admin may also reject), and a staff revision of it
// resumes at pending_editor since the last reviewer was staff.
func (p Position) next() (Position, bool) {
	switch p.Stage {
	case StageFirstReview:
		if p.Faculty {
			return Position{Stage: StageEditor}, true
		}
		return Position{Stage: StageAdmin}, true
	case StageEditor:
		return Position{Stage: StageAdmin}, true
	}
	return Position{}, false
}

// PositionOf decodes a pending status; ok is false for revision_required and
// terminal statuses.
func PositionOf(status models.PaperStatus) (Position, bool) {
	switch status {
	case models.StatusPendingFaculty:
		return Position{Stage: StageFirstReview, Faculty: true}, true
	case models.StatusPending:
		return Position{Stage: StageFirstReview}, true
	case models.StatusPendingEditor:
		return Position{Stage: StageEditor}, true
	case models.StatusPendingAdmin, models.StatusUnderReview:
		return Position{Stage: StageAdmin}, true
	}
	return Position{}, false
}

// reviewStatusByRole maps each reviewer role to the status of the stage it reviews.
var reviewStatusByRole = map[models.Role]models.PaperStatus{
	models.RoleFaculty: models.StatusPendingFaculty,
	models.RoleStaff:   models.StatusPendingEditor,
	models.RoleAdmin:   models.StatusPendingAdmin,
}

// ReviewStatusForRole returns the stage status reviewed by role.
func ReviewStatusForRole(role models.Role) (models.PaperStatus, bool) {
	status, ok := reviewStatusByRole[role]
	return status, ok
}

// AwaitingStatuses lists the statuses whose papers wait on role.
func AwaitingStatuses(role models.Role) []models.PaperStatus {
	switch role {
	case models.RoleFaculty:
		return []models.PaperStatus{models.StatusPendingFaculty}
	case models.RoleStaff:
		return []models.PaperStatus{models.StatusPending, models.StatusPendingEditor}
	case models.RoleAdmin:
		return []models.PaperStatus{models.StatusPendingAdmin, models.StatusUnderReview}
	}
	return nil
}

// AudienceKind selects who receives a notification.
type AudienceKind int

const (
	AudienceAuthor AudienceKind = iota + 1
	AudienceAssignedFaculty
	AudienceRole
)

// Audience is a notification target resolved to user IDs by the orchestrator.
type Audience struct {
	Kind AudienceKind
	Role models.Role
	// NotifyKind is the notification kind delivered to this audience.
	NotifyKind string
}

// Transition is a status machine decision.
type Transition struct {
	Action     string
	From       models.PaperStatus
	To         models.PaperStatus
	Recipients []Audience
}

// Changed reports whether the transition moves the paper.
func (t Transition) Changed() bool { return t.From != t.To }

func reviewersOf(pos Position, kind string) Audience {
	if pos.Stage == StageFirstReview && pos.Faculty {
		return Audience{Kind: AudienceAssignedFaculty, NotifyKind: kind}
	}
	return Audience{Kind: AudienceRole, Role: pos.Reviewer(), NotifyKind: kind}
}

// InitialStatus is the status of a newly created paper.
func InitialStatus(hasFaculty bool) models.PaperStatus {
	return Position{Stage: StageFirstReview, Faculty: hasFaculty}.Status()
}

// DecideSubmit computes the creation of a new paper.
func DecideSubmit(hasFaculty bool) Transition {
	pos := Position{Stage: StageFirstReview, Faculty: hasFaculty}
	return Transition{
		Action: ActionSubmit,
		To:     pos.Status(),
		Recipients: []Audience{
			{Kind: AudienceAuthor, NotifyKind: models.NotificationSubmitted},
			reviewersOf(pos, models.NotificationAwaitingReview),
		},
	}
}

// DecideApprove applies the approval edges of the transition table.
func DecideApprove(paper *models.ResearchPaper, actor models.Role) (Transition, error) {
	invalid := &InvalidTransitionError{Action: ActionApprove, Status: paper.Status, Role: actor}
	pos, ok := PositionOf(paper.Status)
	if !ok || pos.Reviewer() != actor {
		return Transition{}, invalid
	}
	t := Transition{Action: ActionApprove, From: paper.Status}
	next, more := pos.next()
	if !more {
		t.To = models.StatusApproved
		t.Recipients = []Audience{{Kind: AudienceAuthor, NotifyKind: models.NotificationApproved}}
		return t, nil
	}
	t.To = next.Status()
	t.Recipients = []Audience{
		{Kind: AudienceAuthor, NotifyKind: models.NotificationAdvanced},
		reviewersOf(next, models.NotificationAwaitingReview),
	}
	return t, nil
}

// DecideReject allows the stage reviewer or any higher role to reject.
func DecideReject(paper *models.ResearchPaper, actor models.Role) (Transition, error) {
	pos, ok := PositionOf(paper.Status)
	if !ok || actor.Rank() == 0 || actor.Rank() < pos.Reviewer().Rank() {
		return Transition{}, &InvalidTransitionError{Action: ActionReject, Status: paper.Status, Role: actor}
	}
	return Transition{
		Action:     ActionReject,
		From:       paper.Status,
		To:         models.StatusRejected,
		Recipients: []Audience{{Kind: AudienceAuthor, NotifyKind: models.NotificationRejected}},
	}, nil
}

// DecideRequestRevision allows only the stage reviewer to send a paper back.
func DecideRequestRevision(paper *models.ResearchPaper, actor models.Role) (Transition, error) {
	pos, ok := PositionOf(paper.Status)
	if !ok || pos.Reviewer() != actor {
		return Transition{}, &InvalidTransitionError{Action: ActionRequestRevision, Status: paper.Status, Role: actor}
	}
	return Transition{
		Action:     ActionRequestRevision,
		From:       paper.Status,
		To:         models.StatusRevisionRequired,
		Recipients: []Audience{{Kind: AudienceAuthor, NotifyKind: models.NotificationRevisionRequested}},
	}, nil
}

// ResumeStatus picks the stage a paper in revision_required returns to:
// the requesting reviewer's stage, then the recorded previous status, then
// the first-review stage.
func ResumeStatus(paper *models.ResearchPaper) models.PaperStatus {
	if paper.LastReviewerRole != nil {
		if status, ok := reviewStatusByRole[*paper.LastReviewerRole]; ok {
			return status
		}
	}
	if paper.PreviousStatus != nil && *paper.PreviousStatus != "" {
		return *paper.PreviousStatus
	}
	return InitialStatus(paper.HasFaculty())
}

// DecideResubmit computes the status effect of an author updating an existing
// paper. Only revision_required moves; other pending statuses are unchanged.
func DecideResubmit(paper *models.ResearchPaper, actor models.Role) (Transition, error) {
	if paper.Status.Terminal() {
		return Transition{}, &InvalidTransitionError{Action: ActionResubmit, Status: paper.Status, Role: actor}
	}
	t := Transition{Action: ActionResubmit, From: paper.Status, To: paper.Status}
	if paper.Status != models.StatusRevisionRequired {
		return t, nil
	}
	t.To = ResumeStatus(paper)
	if pos, ok := PositionOf(t.To); ok {
		t.Recipients = []Audience{reviewersOf(pos, models.NotificationResubmitted)}
	}
	return t, nil
}

package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-review-api/models"
)

var allRoles = []models.Role{models.RoleStudent, models.RoleFaculty, models.RoleStaff, models.RoleAdmin}

type approveEdge struct {
	to         models.PaperStatus
	recipients []Audience
}

func TestDecideApproveGrid(t *testing.T) {
	edges := map[models.Role]map[models.PaperStatus]approveEdge{
		models.RoleFaculty: {
			models.StatusPendingFaculty: {
				to: models.StatusPendingEditor,
				recipients: []Audience{
					{Kind: AudienceAuthor, NotifyKind: models.NotificationAdvanced},
					{Kind: AudienceRole, Role: models.RoleStaff, NotifyKind: models.NotificationAwaitingReview},
				},
			},
		},
		models.RoleStaff: {
			models.StatusPending: {
				to: models.StatusPendingAdmin,
				recipients: []Audience{
					{Kind: AudienceAuthor, NotifyKind: models.NotificationAdvanced},
					{Kind: AudienceRole, Role: models.RoleAdmin, NotifyKind: models.NotificationAwaitingReview},
				},
			},
			models.StatusPendingEditor: {
				to: models.StatusPendingAdmin,
				recipients: []Audience{
					{Kind: AudienceAuthor, NotifyKind: models.NotificationAdvanced},
					{Kind: AudienceRole, Role: models.RoleAdmin, NotifyKind: models.NotificationAwaitingReview},
				},
			},
		},
		models.RoleAdmin: {
			models.StatusPendingAdmin: {
				to:         models.StatusApproved,
				recipients: []Audience{{Kind: AudienceAuthor, NotifyKind: models.NotificationApproved}},
			},
			models.StatusUnderReview: {
				to:         models.StatusApproved,
				recipients: []Audience{{Kind: AudienceAuthor, NotifyKind: models.NotificationApproved}},
			},
		},
	}

	for _, role := range allRoles {
		for _, status := range models.AllStatuses {
			role, status := role, status
			t.Run(string(role)+"/"+string(status), func(t *testing.T) {
				paper := &models.ResearchPaper{Status: status}
				got, err := DecideApprove(paper, role)

				edge, ok := edges[role][status]
				if !ok {
					var invalid *InvalidTransitionError
					require.ErrorAs(t, err, &invalid)
					assert.Equal(t, ActionApprove, invalid.Action)
					assert.Equal(t, status, invalid.Status)
					assert.Equal(t, role, invalid.Role)
					assert.Equal(t, status, paper.Status)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, status, got.From)
				assert.Equal(t, edge.to, got.To)
				assert.Equal(t, edge.recipients, got.Recipients)
			})
		}
	}
}

func TestDecideRejectRequiresStageReviewerOrHigher(t *testing.T) {
	allowed := map[models.PaperStatus][]models.Role{
		models.StatusPendingFaculty: {models.RoleFaculty, models.RoleStaff, models.RoleAdmin},
		models.StatusPending:        {models.RoleStaff, models.RoleAdmin},
		models.StatusPendingEditor:  {models.RoleStaff, models.RoleAdmin},
		models.StatusPendingAdmin:   {models.RoleAdmin},
		models.StatusUnderReview:    {models.RoleAdmin},
	}

	for _, role := range allRoles {
		for _, status := range models.AllStatuses {
			got, err := DecideReject(&models.ResearchPaper{Status: status}, role)
			if contains(allowed[status], role) {
				require.NoError(t, err, "%s rejecting %s", role, status)
				assert.Equal(t, models.StatusRejected, got.To)
				assert.Equal(t, []Audience{{Kind: AudienceAuthor, NotifyKind: models.NotificationRejected}}, got.Recipients)
				continue
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s rejecting %s", role, status)
		}
	}
}

func TestDecideRequestRevisionOnlyStageReviewer(t *testing.T) {
	allowed := map[models.PaperStatus]models.Role{
		models.StatusPendingFaculty: models.RoleFaculty,
		models.StatusPending:        models.RoleStaff,
		models.StatusPendingEditor:  models.RoleStaff,
		models.StatusPendingAdmin:   models.RoleAdmin,
		models.StatusUnderReview:    models.RoleAdmin,
	}

	for _, role := range allRoles {
		for _, status := range models.AllStatuses {
			got, err := DecideRequestRevision(&models.ResearchPaper{Status: status}, role)
			if reviewer, ok := allowed[status]; ok && reviewer == role {
				require.NoError(t, err)
				assert.Equal(t, models.StatusRevisionRequired, got.To)
				continue
			}
			assert.True(t, errors.Is(err, ErrInvalidTransition), "%s revising %s", role, status)
		}
	}
}

func TestDecideSubmit(t *testing.T) {
	withFaculty := DecideSubmit(true)
	assert.Equal(t, models.StatusPendingFaculty, withFaculty.To)
	assert.Equal(t, []Audience{
		{Kind: AudienceAuthor, NotifyKind: models.NotificationSubmitted},
		{Kind: AudienceAssignedFaculty, NotifyKind: models.NotificationAwaitingReview},
	}, withFaculty.Recipients)

	legacy := DecideSubmit(false)
	assert.Equal(t, models.StatusPending, legacy.To)
	assert.Equal(t, Audience{Kind: AudienceRole, Role: models.RoleStaff, NotifyKind: models.NotificationAwaitingReview}, legacy.Recipients[1])
}

func TestResumeStatus(t *testing.T) {
	faculty := models.RoleFaculty
	staff := models.RoleStaff
	admin := models.RoleAdmin
	editor := models.StatusPendingEditor
	assigned := 7

	tests := []struct {
		name  string
		paper models.ResearchPaper
		want  models.PaperStatus
	}{
		{"faculty reviewer", models.ResearchPaper{LastReviewerRole: &faculty}, models.StatusPendingFaculty},
		{"staff reviewer", models.ResearchPaper{LastReviewerRole: &staff}, models.StatusPendingEditor},
		{"admin reviewer", models.ResearchPaper{LastReviewerRole: &admin}, models.StatusPendingAdmin},
		{"reviewer wins over previous status", models.ResearchPaper{LastReviewerRole: &faculty, PreviousStatus: &editor}, models.StatusPendingFaculty},
		{"previous status", models.ResearchPaper{PreviousStatus: &editor}, models.StatusPendingEditor},
		{"assigned faculty", models.ResearchPaper{AssignedFacultyID: &assigned}, models.StatusPendingFaculty},
		{"legacy", models.ResearchPaper{}, models.StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paper := tt.paper
			paper.Status = models.StatusRevisionRequired
			assert.Equal(t, tt.want, ResumeStatus(&paper))
		})
	}
}

func TestDecideResubmit(t *testing.T) {
	t.Run("pending paper keeps its status", func(t *testing.T) {
		got, err := DecideResubmit(&models.ResearchPaper{Status: models.StatusPendingEditor}, models.RoleStudent)
		require.NoError(t, err)
		assert.False(t, got.Changed())
		assert.Empty(t, got.Recipients)
	})

	t.Run("revision resumes and notifies the stage reviewer", func(t *testing.T) {
		staff := models.RoleStaff
		got, err := DecideResubmit(&models.ResearchPaper{Status: models.StatusRevisionRequired, LastReviewerRole: &staff}, models.RoleStudent)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingEditor, got.To)
		assert.Equal(t, []Audience{{Kind: AudienceRole, Role: models.RoleStaff, NotifyKind: models.NotificationResubmitted}}, got.Recipients)
	})

	for _, status := range []models.PaperStatus{models.StatusApproved, models.StatusRejected} {
		_, err := DecideResubmit(&models.ResearchPaper{Status: status}, models.RoleStudent)
		var invalid *InvalidTransitionError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, ActionResubmit, invalid.Action)
	}
}

func TestReviewStatusForRoleTable(t *testing.T) {
	for role, want := range map[models.Role]models.PaperStatus{
		models.RoleFaculty: models.StatusPendingFaculty,
		models.RoleStaff:   models.StatusPendingEditor,
		models.RoleAdmin:   models.StatusPendingAdmin,
	} {
		got, ok := ReviewStatusForRole(role)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	_, ok := ReviewStatusForRole(models.RoleStudent)
	assert.False(t, ok)
}

func contains(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

package models

// PaperStatus is the workflow position stored on research_papers.status.
// Values are serialized as-is and form a closed set.
type PaperStatus string

const (
	StatusPendingFaculty   PaperStatus = "pending_faculty"
	StatusPending          PaperStatus = "pending" // legacy: no faculty reviewer assigned
	StatusPendingEditor    PaperStatus = "pending_editor"
	StatusPendingAdmin     PaperStatus = "pending_admin"
	StatusUnderReview      PaperStatus = "under_review" // legacy admin-stage value
	StatusRevisionRequired PaperStatus = "revision_required"
	StatusApproved         PaperStatus = "approved"
	StatusRejected         PaperStatus = "rejected"
)

// AllStatuses lists every status value the workflow may store.
var AllStatuses = []PaperStatus{
	StatusPendingFaculty,
	StatusPending,
	StatusPendingEditor,
	StatusPendingAdmin,
	StatusUnderReview,
	StatusRevisionRequired,
	StatusApproved,
	StatusRejected,
}

// Valid reports whether s is one of the known statuses.
func (s PaperStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further workflow action is possible.
func (s PaperStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Role is the account role carried in the JWT and stored on users.role.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Rank orders reviewer authority: student < faculty < staff < admin.
func (r Role) Rank() int {
	switch r {
	case RoleFaculty:
		return 1
	case RoleStaff:
		return 2
	case RoleAdmin:
		return 3
	}
	return 0
}

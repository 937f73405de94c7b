package domain

import "time"

// ActivityLog is an append-only record of user actions. Business logic only
// writes these; nothing reads them back.
type ActivityLog struct {
	ID        string
	UserID    *string
	Action    string
	Details   string
	IPAddress *string
	CreatedAt time.Time
}

// Activity log action names, matching the audit vocabulary of the system.
const (
	ActionRegister         = "REGISTER"
	ActionLogin            = "LOGIN"
	ActionLogout           = "LOGOUT"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionChangePassword   = "CHANGE_PASSWORD"
	ActionCreateComplaint  = "CREATE_COMPLAINT"
	ActionUpdateComplaint  = "UPDATE_COMPLAINT"
	ActionDeleteComplaint  = "DELETE_COMPLAINT"
	ActionAssignComplaint  = "ASSIGN_COMPLAINT"
	ActionAddUpdate        = "ADD_COMPLAINT_UPDATE"
	ActionSubmitWorkReport = "SUBMIT_WORK_REPORT"
	ActionUpdateWorkReport = "UPDATE_WORK_REPORT"
	ActionReviewWorkReport = "REVIEW_WORK_REPORT"
)

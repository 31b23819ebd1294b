package model

// Import report types.
const (
	ReportFinished = "finished"
	ReportError    = "error"
)

// ImportReport records the progress of a CSV import. One "finished" row
// summarises each import; "error" rows describe individual failures.
type ImportReport struct {
	Type     string  `json:"type"`
	ID       string  `json:"id"`
	Message  string  `json:"message"`
	FileName *string `json:"file_name"`
}

// User is a login account.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ValidRole reports whether role is one of the application roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

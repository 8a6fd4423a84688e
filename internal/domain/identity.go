package domain

// Identity is the authenticated user claimed by the transport.
type Identity struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// IsZero reports whether no identity was presented.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.Email == ""
}

// DisplayName is what other members see as the sender.
func (i Identity) DisplayName() string {
	if i.Username != "" {
		return i.Username
	}
	return i.Email
}

// Channel is a chat-capable channel inside a workspace category.
type Channel struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
}

// Channel roles.
const (
	RoleReviewer = "reviewer"
	RoleReviewee = "reviewee"
)

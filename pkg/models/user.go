package models

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a login account for the HTTP API. Password holds the bcrypt hash,
// never the plaintext.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

// Public returns a copy safe to return to API callers.
func (u User) Public() User {
	u.Password = ""
	return u
}

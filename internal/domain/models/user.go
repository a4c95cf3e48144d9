package models

// User is a registered account. PasswordHash never leaves the users list;
// everything the rest of the application sees is a Session.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Session is the public profile of the authenticated user. At most one
// session record exists at a time; its absence means logged out.
type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Session strips the credential material from a User.
func (u User) Session() Session {
	return Session{ID: u.ID, Name: u.Name, Email: u.Email}
}

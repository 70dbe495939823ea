package models

// User is the identity returned by the "who am I" endpoint and by sign-in.
// It never carries credential material.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Clone returns a copy of u so that holders of a snapshot cannot mutate
// the session store's copy. Nil stays nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// Valid reports whether u is a usable identity payload.
func (u *User) Valid() bool {
	return u != nil && u.ID != ""
}

// DisplayName prefers the human name and falls back to the email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

package users

import "time"

// User is an account known to the dev server. Version grows with every
// password change; credentials issued for an older version are rejected.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      string
	Salt      []byte
	Verifier  []byte
	Version   int
	CreatedAt time.Time
}

func (u *User) clone() *User {
	c := *u
	c.Salt = append([]byte(nil), u.Salt...)
	c.Verifier = append([]byte(nil), u.Verifier...)
	return &c
}

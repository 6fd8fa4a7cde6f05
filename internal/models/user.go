package models

import "time"

// User is the auth identity row. The display-facing fields
// live in Profile, keyed by the same id.
type User struct {
	ID        string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Profile struct {
	ID        string
	FullName  string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

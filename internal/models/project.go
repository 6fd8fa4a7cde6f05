package models

import "time"

type Project struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Owner is populated by list queries that join the profile.
	Owner *Profile
}

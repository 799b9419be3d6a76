package domain

import "time"

// Account is a user identity created by redeeming an invite or by bootstrap.
type Account struct {
	ID           string
	Email        string
	FullName     string
	PhoneNumber  string
	PasswordHash string // argon2id PHC string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package domain

import "time"

type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string // argon2id, PHC encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

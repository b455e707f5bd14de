package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered farmer account.
type User struct {
	ID           uuid.UUID `json:"user_id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	FarmLocation string    `json:"farm_location,omitempty" db:"farm_location"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// internal/domain/user.go
package domain

import "time"

// User represents an authenticated owner of balances.
type User struct {
	ID        int64     `db:"id" json:"id"`                 // Primary key, BIGSERIAL in DB
	Username  string    `db:"username" json:"username"`     // Unique display name
	Email     string    `db:"email" json:"email"`           // Unique email address
	CreatedAt time.Time `db:"created_at" json:"created_at"` // Timestamp of creation
}

// NewUser creates a new User instance.
func NewUser(username, email string) *User {
	return &User{
		Username:  username,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
}

package model

import "time"

// Role names as stored in users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// CanViewUnreleased is the single visibility rule: only admins see
// showtimes that are not released yet.
func CanViewUnreleased(role string) bool {
	return role == RoleAdmin
}

// User represents an application user record as stored in the `users`
// table.  PasswordHash never leaves the server.
type User struct {
	ID           uint64    `json:"id"`                // users.id
	Username     string    `json:"username"`          // users.username
	Email        string    `json:"email"`             // users.email
	PasswordHash string    `json:"-"`                 // users.password_hash
	Role         string    `json:"role"`              // users.role
	Tickets      []Ticket  `json:"tickets,omitempty"` // tickets.user_id
	CreatedAt    time.Time `json:"created_at"`        // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`        // users.updated_at
}

// UserRef is the short form attached to booked seats in admin views.
type UserRef struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Ticket is a user's record of the seats booked for one showtime in one
// purchase.
type Ticket struct {
	ID         uint64    `json:"id"`                 // tickets.id
	UserID     uint64    `json:"user_id"`            // tickets.user_id
	ShowtimeID uint64    `json:"showtime_id"`        // tickets.showtime_id
	Seats      []SeatRef `json:"seats"`              // ticket_seats
	Showtime   *Showtime `json:"showtime,omitempty"` // joined on read
	CreatedAt  time.Time `json:"created_at"`         // tickets.created_at
}

// SeatRef names a seat without an owner.
type SeatRef struct {
	Row    string `json:"row"`
	Number int    `json:"number"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}

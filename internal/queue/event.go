// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// TicketBookedQueue is the durable queue carrying TicketBookedEvent.
const TicketBookedQueue = "ticket.booked"

// TicketBookedEvent is published after a purchase commits.  It carries
// enough for the notifier to log and e-mail the ticket without reading
// the primary database.
type TicketBookedEvent struct {
	EventID    string    `json:"event_id"`
	TicketID   uint64    `json:"ticket_id"`
	UserID     uint64    `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	ShowtimeID uint64    `json:"showtime_id"`
	Seminar    string    `json:"seminar"`
	Department string    `json:"dip"`
	RoomNumber int       `json:"aula"`
	StartsAt   time.Time `json:"starts_at"`
	Seats      []string  `json:"seats"`
	BookedAt   time.Time `json:"booked_at"`
}

// NewTicketBookedEvent stamps a fresh event id and booking time.
func NewTicketBookedEvent() TicketBookedEvent {
	return TicketBookedEvent{EventID: uuid.NewString(), BookedAt: time.Now().UTC()}
}

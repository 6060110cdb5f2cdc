package model

import (
	"time"

	"github.com/aulabook/seminar-reservation/internal/seatplan"
)

// Showtime is one scheduled occurrence of a seminar in a room.
type Showtime struct {
	ID         uint64       `json:"id"`                // showtimes.id
	RoomID     uint64       `json:"room_id"`           // showtimes.room_id
	SeminarID  uint64       `json:"seminar_id"`        // showtimes.seminar_id
	StartsAt   time.Time    `json:"showtime"`          // showtimes.starts_at (UTC)
	IsReleased bool         `json:"isRelease"`         // showtimes.is_released
	Seats      []BookedSeat `json:"seats"`             // showtime_seats
	Room       *Room        `json:"aula,omitempty"`    // joined on read
	Seminar    *Seminar     `json:"seminar,omitempty"` // joined on read
	CreatedAt  time.Time    `json:"created_at"`        // showtimes.created_at
	UpdatedAt  time.Time    `json:"updated_at"`        // showtimes.updated_at
}

// Taken returns the booked seats in the validator's form.
func (s *Showtime) Taken() []seatplan.Seat {
	out := make([]seatplan.Seat, 0, len(s.Seats))
	for _, b := range s.Seats {
		out = append(out, seatplan.Seat{Row: b.Row, Column: b.Number})
	}
	return out
}

// HideOwners strips booking owners so the seat map can be shown to anyone.
func (s *Showtime) HideOwners() {
	for i := range s.Seats {
		s.Seats[i].UserID = 0
		s.Seats[i].User = nil
	}
}

// BookedSeat is one reserved seat of a showtime.  UserID and User are only
// filled for admin views.
type BookedSeat struct {
	Row    string   `json:"row"`               // showtime_seats.row_label
	Number int      `json:"number"`            // showtime_seats.seat_number
	UserID uint64   `json:"user_id,omitempty"` // showtime_seats.user_id
	User   *UserRef `json:"user,omitempty"`
}

// Code renders the seat as "A12".
func (b BookedSeat) Code() string {
	return seatplan.Seat{Row: b.Row, Column: b.Number}.Code()
}

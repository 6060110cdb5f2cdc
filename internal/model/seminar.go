package model

import "time"

// Seminar is the reusable template behind showtimes.
type Seminar struct {
	ID            uint64    `json:"id"`         // seminars.id
	Name          string    `json:"name"`       // seminars.name
	PosterURL     string    `json:"img"`        // seminars.poster_url
	LengthMinutes int       `json:"length"`     // seminars.length_minutes
	CreatedAt     time.Time `json:"created_at"` // seminars.created_at
	UpdatedAt     time.Time `json:"updated_at"` // seminars.updated_at
}

// ShowingSeminar is a seminar with the number of upcoming released
// showtimes, as returned by GET /seminario/showing.
type ShowingSeminar struct {
	Seminar
	Count int `json:"count"`
}

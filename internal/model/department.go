package model

import "time"

// Department groups rooms ("Dip").  Name is unique and departments are
// listed by name, case-insensitively.
type Department struct {
	ID        uint64    `json:"id"`         // departments.id
	Name      string    `json:"name"`       // departments.name
	Rooms     []Room    `json:"aulas"`      // rooms.department_id, ordered by id
	CreatedAt time.Time `json:"created_at"` // departments.created_at
	UpdatedAt time.Time `json:"updated_at"` // departments.updated_at
}

// DepartmentRef is the short form embedded in rooms and tickets.
type DepartmentRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

package model

import (
	"time"

	"github.com/aulabook/seminar-reservation/internal/seatplan"
)

// SeatPlan is the stored shape of a room's seat grid: Row is the last row
// label and Column the number of seats per row.
type SeatPlan struct {
	Row    string `json:"row"`    // rooms.seat_row_bound
	Column int    `json:"column"` // rooms.seat_col_bound
}

// Plan converts the stored plan into the validator's form.
func (p SeatPlan) Plan() seatplan.Plan {
	return seatplan.Plan{RowBound: p.Row, ColumnBound: p.Column}
}

// Room ("Aula") is a bookable space inside a department.  Number is
// assigned once at creation and never renumbered.
type Room struct {
	ID           uint64         `json:"id"`                  // rooms.id
	DepartmentID uint64         `json:"dip_id"`              // rooms.department_id
	Department   *DepartmentRef `json:"dip,omitempty"`       // joined on read
	Number       int            `json:"number"`              // rooms.number
	SeatPlan     SeatPlan       `json:"seatPlan"`            // rooms.seat_row_bound / seat_col_bound
	Showtimes    []Showtime     `json:"showtimes,omitempty"` // visible showtimes in the room
	CreatedAt    time.Time      `json:"created_at"`          // rooms.created_at
	UpdatedAt    time.Time      `json:"updated_at"`          // rooms.updated_at
}

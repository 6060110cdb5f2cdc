// Package seatplan checks seat codes against a room's rectangular seat plan.
// Rows are named like spreadsheet columns (A..Z, then AA..DZ) and columns are
// numbered from 1.  Everything in this package is pure: no I/O, no shared
// state, so the same inputs always give the same answer.
package seatplan

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	// MaxRowBound is the last row letter pair a plan may use.
	MaxRowBound = "DZ"
	// MaxColumnBound is the widest plan a room may have.
	MaxColumnBound = 120
)

var (
	// ErrInvalidSeat is returned when a seat code lies outside the plan.
	ErrInvalidSeat = errors.New("invalid seat")
	// ErrSeatUnavailable is returned when a requested seat is already booked.
	ErrSeatUnavailable = errors.New("seat not available")
	// ErrMalformedSeat is returned when a seat code cannot be parsed at all.
	ErrMalformedSeat = errors.New("malformed seat code")
	// ErrDuplicateSeat is returned when the same seat is requested twice.
	ErrDuplicateSeat = errors.New("seat requested more than once")
	// ErrNoSeats is returned for an empty request.
	ErrNoSeats = errors.New("no seats requested")
	// ErrInvalidPlan is returned by Plan.Validate.
	ErrInvalidPlan = errors.New("invalid seat plan")
)

var (
	codeRgx     = regexp.MustCompile(`^([A-Za-z]+)([0-9]+)$`)
	rowBoundRgx = regexp.MustCompile(`^([A-D][A-Z]|[A-Z])$`)
)

// Seat identifies one seat by row letters and column number.
type Seat struct {
	Row    string
	Column int
}

// Code renders the seat as "<row><column>", e.g. "AB12".
func (s Seat) Code() string {
	return s.Row + strconv.Itoa(s.Column)
}

// Plan is the seat grid of a room.  RowBound is the last valid row and
// ColumnBound the last valid column.
type Plan struct {
	RowBound    string
	ColumnBound int
}

// Validate reports whether the plan itself is acceptable for a room.
func (p Plan) Validate() error {
	if !rowBoundRgx.MatchString(p.RowBound) {
		return fmt.Errorf("%w: row must be a letter between A and %s", ErrInvalidPlan, MaxRowBound)
	}
	if p.ColumnBound < 1 || p.ColumnBound > MaxColumnBound {
		return fmt.Errorf("%w: column must be a number between 1 and %d", ErrInvalidPlan, MaxColumnBound)
	}
	return nil
}

// Contains reports whether the seat lies inside the plan.  Shorter row
// names always sort before longer ones, so "Z" is inside a plan ending at
// "AC" while "AD" is not.
func (p Plan) Contains(s Seat) bool {
	if len(s.Row) == 0 || len(s.Row) > len(p.RowBound) {
		return false
	}
	if len(s.Row) == len(p.RowBound) && s.Row > p.RowBound {
		return false
	}
	return s.Column >= 1 && s.Column <= p.ColumnBound
}

// Rows lists every row label of the plan in order.
func (p Plan) Rows() []string {
	last, ok := RowIndex(p.RowBound)
	if !ok {
		return nil
	}
	rows := make([]string, 0, last+1)
	for i := 0; i <= last; i++ {
		rows = append(rows, RowLabel(i))
	}
	return rows
}

// Capacity is the number of seats in the plan.
func (p Plan) Capacity() int {
	last, ok := RowIndex(p.RowBound)
	if !ok || p.ColumnBound < 1 {
		return 0
	}
	return (last + 1) * p.ColumnBound
}

// ParseCode splits a code such as "ab12" into its row ("AB") and column (12).
func ParseCode(code string) (Seat, error) {
	m := codeRgx.FindStringSubmatch(strings.TrimSpace(code))
	if m == nil {
		return Seat{}, fmt.Errorf("%w: %q", ErrMalformedSeat, code)
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return Seat{}, fmt.Errorf("%w: %q", ErrMalformedSeat, code)
	}
	return Seat{Row: strings.ToUpper(m[1]), Column: col}, nil
}

// Validate parses the requested codes and checks them against the plan and
// the seats already taken.  The request is all or nothing: the first failing
// check rejects every seat.  Bounds are checked for the whole request before
// availability, so a request mixing an out-of-plan seat and a taken seat
// always fails with ErrInvalidSeat regardless of order.
func Validate(p Plan, codes []string, taken []Seat) ([]Seat, error) {
	if len(codes) == 0 {
		return nil, ErrNoSeats
	}

	seats := make([]Seat, 0, len(codes))
	for _, code := range codes {
		s, err := ParseCode(code)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}

	seen := make(map[Seat]struct{}, len(seats))
	for _, s := range seats {
		if _, dup := seen[s]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSeat, s.Code())
		}
		seen[s] = struct{}{}
	}

	for _, s := range seats {
		if !p.Contains(s) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSeat, s.Code())
		}
	}

	booked := make(map[Seat]struct{}, len(taken))
	for _, t := range taken {
		booked[Seat{Row: strings.ToUpper(t.Row), Column: t.Column}] = struct{}{}
	}
	for _, s := range seats {
		if _, ok := booked[s]; ok {
			return nil, fmt.Errorf("%w: %s", ErrSeatUnavailable, s.Code())
		}
	}
	return seats, nil
}

// RowLabel converts a zero-based row index into its label: 0 -> A, 26 -> AA.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// RowIndex is the inverse of RowLabel.
func RowIndex(label string) (int, bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	if s == "" {
		return -1, false
	}
	n := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch < 'A' || ch > 'Z' {
			return -1, false
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n - 1, true
}

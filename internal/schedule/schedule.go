// Package schedule holds the calendar arithmetic used when admins create
// showtimes: expanding one start into a run of daily occurrences and
// proposing the start of the next showtime in a room.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	MinRepeat = 1
	MaxRepeat = 31
)

var (
	ErrInvalidRepeatCount  = errors.New("repeat must be a number between 1 and 31")
	ErrConflictingRounding = errors.New("only one rounding policy may be active")
	ErrNegativeDuration    = errors.New("length and gap must not be negative")
)

// Occurrence is one concrete slot produced by ExpandRepeats.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// ExpandRepeats returns repeatDays occurrences starting at start, one per
// calendar day at the same wall clock time in start's location. Days are
// stepped with AddDate, so a DST change keeps the clock time rather than a
// fixed 24h distance.
func ExpandRepeats(start time.Time, lengthMinutes, repeatDays int) ([]Occurrence, error) {
	if repeatDays < MinRepeat || repeatDays > MaxRepeat {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRepeatCount, repeatDays)
	}
	if lengthMinutes < 0 {
		return nil, ErrNegativeDuration
	}
	length := time.Duration(lengthMinutes) * time.Minute
	out := make([]Occurrence, 0, repeatDays)
	for i := 0; i < repeatDays; i++ {
		s := start.AddDate(0, 0, i)
		out = append(out, Occurrence{Start: s, End: s.Add(length)})
	}
	return out, nil
}

// Rounding selects how NextStart aligns its result.
type Rounding int

const (
	RoundNone Rounding = iota
	RoundNearest5
	RoundNearest10
)

func (r Rounding) step() int {
	switch r {
	case RoundNearest5:
		return 5
	case RoundNearest10:
		return 10
	}
	return 0
}

func (r Rounding) String() string {
	switch r {
	case RoundNearest5:
		return "nearest5"
	case RoundNearest10:
		return "nearest10"
	}
	return "none"
}

// ParseRounding maps the two UI toggles to a policy. Both set is rejected.
func ParseRounding(nearest5, nearest10 bool) (Rounding, error) {
	switch {
	case nearest5 && nearest10:
		return RoundNone, ErrConflictingRounding
	case nearest5:
		return RoundNearest5, nil
	case nearest10:
		return RoundNearest10, nil
	}
	return RoundNone, nil
}

// NextStart proposes the start of the showtime that follows one starting at
// current: current + length + gap, truncated to the minute. With a rounding
// policy the time of day is rounded up to the next multiple of the step; a
// result of 24:00 or later rolls over into the next day.
func NextStart(current time.Time, lengthMinutes, gapMinutes int, r Rounding) (time.Time, error) {
	if lengthMinutes < 0 || gapMinutes < 0 {
		return time.Time{}, ErrNegativeDuration
	}
	next := current.Add(time.Duration(lengthMinutes+gapMinutes) * time.Minute).Truncate(time.Minute)

	step := r.step()
	if step == 0 {
		return next, nil
	}
	minuteOfDay := next.Hour()*60 + next.Minute()
	if rem := minuteOfDay % step; rem != 0 {
		minuteOfDay += step - rem
	}
	y, m, d := next.Date()
	// time.Date normalizes minute overflow past 24:00 into the next day.
	return time.Date(y, m, d, 0, minuteOfDay, 0, 0, next.Location()), nil
}

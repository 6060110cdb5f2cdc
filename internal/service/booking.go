package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/queue"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/seatplan"
)

// ErrSeatUnavailable is returned when a requested seat is already booked,
// whether the snapshot showed it or a concurrent purchase won the insert.
var ErrSeatUnavailable = seatplan.ErrSeatUnavailable

// BookingStore is the part of the showtime repository a purchase needs.
type BookingStore interface {
	Get(ctx context.Context, id uint64) (*model.Showtime, error)
	Book(ctx context.Context, showtimeID, userID uint64, seats []seatplan.Seat) (*model.Ticket, error)
}

// Caller identifies the user performing a request.
type Caller struct {
	ID       uint64
	Username string
	Email    string
	Role     string
}

// BookingService runs seat purchases.
type BookingService struct {
	store BookingStore
	pub   Publisher
	log   *zap.Logger
}

// NewBookingService wires a BookingService.  A nil publisher disables
// booking events.
func NewBookingService(store BookingStore, pub Publisher, log *zap.Logger) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingService{store: store, pub: pub, log: log}
}

// Purchase books codes on showtime showtimeID for caller and returns the
// showtime as it looks afterwards together with the new ticket.
//
// The request is checked against the room plan and the current seat map
// first; the write itself is a single conditional insert, so two callers
// racing for the same seat get exactly one success and one
// ErrSeatUnavailable.
func (s *BookingService) Purchase(ctx context.Context, showtimeID uint64, codes []string, caller Caller) (*model.Showtime, *model.Ticket, error) {
	st, err := s.store.Get(ctx, showtimeID)
	if err != nil {
		return nil, nil, err
	}
	if !st.IsReleased && !model.CanViewUnreleased(caller.Role) {
		return nil, nil, repository.ErrShowtimeNotFound
	}
	if st.Room == nil {
		return nil, nil, repository.ErrRoomNotFound
	}

	seats, err := seatplan.Validate(st.Room.SeatPlan.Plan(), codes, st.Taken())
	if err != nil {
		return nil, nil, err
	}

	ticket, err := s.store.Book(ctx, showtimeID, caller.ID, seats)
	if err != nil {
		if errors.Is(err, repository.ErrSeatTaken) {
			return nil, nil, ErrSeatUnavailable
		}
		return nil, nil, err
	}
	s.log.Info("ticket booked",
		zap.Uint64("ticket_id", ticket.ID),
		zap.Uint64("showtime_id", showtimeID),
		zap.Uint64("user_id", caller.ID),
		zap.Int("seats", len(seats)))

	s.notify(ctx, st, ticket, seats, caller)

	updated, err := s.store.Get(ctx, showtimeID)
	if err != nil {
		// The booking is committed; answer from the snapshot read above.
		s.log.Warn("re-read after booking failed",
			zap.Uint64("showtime_id", showtimeID), zap.Error(err))
		for _, seat := range seats {
			st.Seats = append(st.Seats, model.BookedSeat{Row: seat.Row, Number: seat.Column, UserID: caller.ID})
		}
		return st, ticket, nil
	}
	return updated, ticket, nil
}

// notify publishes the booking event.  Failures are logged only: the
// purchase has already committed.
func (s *BookingService) notify(ctx context.Context, st *model.Showtime, t *model.Ticket, seats []seatplan.Seat, caller Caller) {
	ev := queue.NewTicketBookedEvent()
	ev.TicketID = t.ID
	ev.UserID = caller.ID
	ev.Username = caller.Username
	ev.Email = caller.Email
	ev.ShowtimeID = st.ID
	ev.StartsAt = st.StartsAt
	if st.Seminar != nil {
		ev.Seminar = st.Seminar.Name
	}
	if st.Room != nil {
		ev.RoomNumber = st.Room.Number
		if st.Room.Department != nil {
			ev.Department = st.Room.Department.Name
		}
	}
	for _, seat := range seats {
		ev.Seats = append(ev.Seats, seat.Code())
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.pub.PublishTicketBooked(pctx, ev); err != nil {
		s.log.Warn("publish ticket booked failed", zap.Uint64("ticket_id", t.ID), zap.Error(err))
	}
}

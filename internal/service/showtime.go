package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/repository"
	"github.com/aulabook/seminar-reservation/internal/schedule"
)

// ErrInvalidInput wraps request values the handlers could not reject on
// their own, such as a showtime without a start.
var ErrInvalidInput = errors.New("invalid input")

// ShowtimeStore is the part of the showtime repository the admin flows use.
type ShowtimeStore interface {
	CreateBatch(ctx context.Context, roomID, seminarID uint64, starts []time.Time, released bool) ([]uint64, error)
	Update(ctx context.Context, id uint64, u repository.ShowtimeUpdate) (*model.Showtime, error)
	SetReleased(ctx context.Context, ids []uint64, released bool) (int64, error)
	Delete(ctx context.Context, id uint64) error
	DeleteMany(ctx context.Context, ids []uint64) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

// SeminarLookup resolves a seminar by id.
type SeminarLookup interface {
	Get(ctx context.Context, id uint64) (*model.Seminar, error)
}

// RoomLookup resolves a room by id.
type RoomLookup interface {
	Get(ctx context.Context, id uint64, vis repository.Visibility) (*model.Room, error)
}

// ShowtimeService creates and maintains showtimes on behalf of admins.
type ShowtimeService struct {
	store    ShowtimeStore
	seminars SeminarLookup
	rooms    RoomLookup
	log      *zap.Logger
	now      func() time.Time
}

// NewShowtimeService wires a ShowtimeService.
func NewShowtimeService(store ShowtimeStore, seminars SeminarLookup, rooms RoomLookup, log *zap.Logger) *ShowtimeService {
	if store == nil || seminars == nil || rooms == nil {
		panic("nil dependency passed to NewShowtimeService")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ShowtimeService{store: store, seminars: seminars, rooms: rooms, log: log, now: time.Now}
}

// CreateShowtimes is the input of Create.
type CreateShowtimes struct {
	SeminarID  uint64
	RoomID     uint64
	Start      time.Time
	RepeatDays int
	Released   bool
}

// Create schedules in.RepeatDays daily showtimes of one seminar in one
// room, starting at in.Start.  All of them are written or none is.
func (s *ShowtimeService) Create(ctx context.Context, in CreateShowtimes) ([]model.Showtime, error) {
	if in.Start.IsZero() {
		return nil, fmt.Errorf("%w: showtime is required", ErrInvalidInput)
	}
	sem, err := s.seminars.Get(ctx, in.SeminarID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.Get(ctx, in.RoomID, repository.AdminView)
	if err != nil {
		return nil, err
	}
	occ, err := schedule.ExpandRepeats(in.Start, sem.LengthMinutes, in.RepeatDays)
	if err != nil {
		return nil, err
	}
	starts := make([]time.Time, len(occ))
	for i, o := range occ {
		starts[i] = o.Start.UTC()
	}
	ids, err := s.store.CreateBatch(ctx, room.ID, sem.ID, starts, in.Released)
	if err != nil {
		return nil, err
	}

	out := make([]model.Showtime, len(ids))
	for i, id := range ids {
		out[i] = model.Showtime{
			ID:         id,
			RoomID:     room.ID,
			SeminarID:  sem.ID,
			StartsAt:   starts[i],
			IsReleased: in.Released,
			Seats:      []model.BookedSeat{},
		}
	}
	s.log.Info("showtimes created",
		zap.Uint64("seminar_id", sem.ID),
		zap.Uint64("room_id", room.ID),
		zap.Int("count", len(out)),
		zap.Bool("released", in.Released))
	return out, nil
}

// Update applies u to one showtime.  A new room or seminar must exist.
func (s *ShowtimeService) Update(ctx context.Context, id uint64, u repository.ShowtimeUpdate) (*model.Showtime, error) {
	if u.RoomID != nil {
		if _, err := s.rooms.Get(ctx, *u.RoomID, repository.AdminView); err != nil {
			return nil, err
		}
	}
	if u.SeminarID != nil {
		if _, err := s.seminars.Get(ctx, *u.SeminarID); err != nil {
			return nil, err
		}
	}
	return s.store.Update(ctx, id, u)
}

// SetReleased releases or withdraws many showtimes at once.
func (s *ShowtimeService) SetReleased(ctx context.Context, ids []uint64, released bool) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: ids are required", ErrInvalidInput)
	}
	n, err := s.store.SetReleased(ctx, ids, released)
	if err != nil {
		return 0, err
	}
	s.log.Info("showtimes release toggled", zap.Int64("count", n), zap.Bool("released", released))
	return n, nil
}

// Delete removes one showtime and releases its seats.
func (s *ShowtimeService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("showtime deleted", zap.Uint64("showtime_id", id))
	return nil
}

// DeleteMany removes the listed showtimes.  An empty list is a no-op.
func (s *ShowtimeService) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.store.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.Info("showtimes deleted", zap.Int64("count", n), zap.Int("requested", len(ids)))
	return n, nil
}

// DeleteAll removes every showtime.
func (s *ShowtimeService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Warn("all showtimes deleted", zap.Int64("count", n))
	return n, nil
}

// DeletePast removes every showtime that started before today 00:00 UTC.
func (s *ShowtimeService) DeletePast(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	n, err := s.store.DeleteBefore(ctx, midnight)
	if err != nil {
		return 0, err
	}
	s.log.Info("past showtimes deleted", zap.Int64("count", n), zap.Time("before", midnight))
	return n, nil
}

// NextStart proposes the start of the showtime that follows one starting
// at current.  Nothing is persisted.
func NextStart(current time.Time, lengthMinutes, gapMinutes int, nearest5, nearest10 bool) (time.Time, error) {
	r, err := schedule.ParseRounding(nearest5, nearest10)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.NextStart(current, lengthMinutes, gapMinutes, r)
}

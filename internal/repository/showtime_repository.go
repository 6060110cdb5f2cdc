// Package repository contains data access logic for showtimes.  A showtime
// is one scheduled occurrence of a seminar in a room; its booked seats live
// in showtime_seats, one row per seat, under a unique (showtime, row, number)
// key.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/seatplan"
)

// ShowtimeRepo manages persistence for showtimes and their seats.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db}
}

const showtimeSelect = `SELECT s.id, s.room_id, s.seminar_id, s.starts_at, s.is_released, s.created_at, s.updated_at,
       r.number, r.seat_row_bound, r.seat_col_bound, r.department_id, d.name,
       sm.name, sm.poster_url, sm.length_minutes
  FROM showtimes s
  JOIN rooms r       ON r.id = s.room_id
  JOIN departments d ON d.id = r.department_id
  JOIN seminars sm   ON sm.id = s.seminar_id `

func scanShowtime(row interface{ Scan(...any) error }) (model.Showtime, error) {
	var (
		s   model.Showtime
		rm  model.Room
		dep model.DepartmentRef
		sem model.Seminar
	)
	err := row.Scan(&s.ID, &s.RoomID, &s.SeminarID, &s.StartsAt, &s.IsReleased, &s.CreatedAt, &s.UpdatedAt,
		&rm.Number, &rm.SeatPlan.Row, &rm.SeatPlan.Column, &rm.DepartmentID, &dep.Name,
		&sem.Name, &sem.PosterURL, &sem.LengthMinutes)
	if err != nil {
		return s, err
	}
	rm.ID = s.RoomID
	dep.ID = rm.DepartmentID
	rm.Department = &dep
	sem.ID = s.SeminarID
	s.Room = &rm
	s.Seminar = &sem
	return s, nil
}

func (r *ShowtimeRepo) query(ctx context.Context, q querier, tail string, args ...any) ([]model.Showtime, error) {
	rows, err := q.QueryContext(ctx, showtimeSelect+tail, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Showtime{}
	for rows.Next() {
		s, err := scanShowtime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateBatch inserts one showtime per start instant, all in one
// transaction, and returns the new ids in order.
func (r *ShowtimeRepo) CreateBatch(ctx context.Context, roomID, seminarID uint64, starts []time.Time, released bool) ([]uint64, error) {
	ids := make([]uint64, 0, len(starts))
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, at := range starts {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO showtimes (room_id, seminar_id, starts_at, is_released) VALUES (?, ?, ?, ?)`,
				roomID, seminarID, at.UTC(), released)
			if err != nil {
				if isMissingParent(err) {
					return ErrConflict
				}
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, uint64(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Get returns a showtime with room, department, seminar and every booked
// seat including its owner.  Callers hide owners where needed.
func (r *ShowtimeRepo) Get(ctx context.Context, id uint64) (*model.Showtime, error) {
	list, err := r.query(ctx, r.db, `WHERE s.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrShowtimeNotFound
	}
	s := &list[0]
	seats, err := r.seats(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Seats = seats
	return s, nil
}

func (r *ShowtimeRepo) seats(ctx context.Context, showtimeID uint64) ([]model.BookedSeat, error) {
	const q = `SELECT ss.row_label, ss.seat_number, u.id, u.username, u.email, u.role
	             FROM showtime_seats ss
	             JOIN users u ON u.id = ss.user_id
	            WHERE ss.showtime_id = ?
	            ORDER BY ss.id`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.BookedSeat{}
	for rows.Next() {
		var (
			b model.BookedSeat
			u model.UserRef
		)
		if err := rows.Scan(&b.Row, &b.Number, &u.ID, &u.Username, &u.Email, &u.Role); err != nil {
			return nil, err
		}
		b.UserID = u.ID
		b.User = &u
		out = append(out, b)
	}
	return out, rows.Err()
}

// List returns the visible showtimes ordered by start, without seats.
func (r *ShowtimeRepo) List(ctx context.Context, vis Visibility) ([]model.Showtime, error) {
	return r.query(ctx, r.db, `WHERE 1=1`+vis.filter("s")+` ORDER BY s.starts_at, s.id`)
}

// ShowtimeUpdate carries the fields of PUT /showtime/:id; nil fields are
// left untouched.
type ShowtimeUpdate struct {
	StartsAt   *time.Time
	RoomID     *uint64
	SeminarID  *uint64
	IsReleased *bool
}

// Update applies the non-nil fields of u.
func (r *ShowtimeRepo) Update(ctx context.Context, id uint64, u ShowtimeUpdate) (*model.Showtime, error) {
	set := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []any{}
	if u.StartsAt != nil {
		set = append(set, "starts_at = ?")
		args = append(args, u.StartsAt.UTC())
	}
	if u.RoomID != nil {
		set = append(set, "room_id = ?")
		args = append(args, *u.RoomID)
	}
	if u.SeminarID != nil {
		set = append(set, "seminar_id = ?")
		args = append(args, *u.SeminarID)
	}
	if u.IsReleased != nil {
		set = append(set, "is_released = ?")
		args = append(args, *u.IsReleased)
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, `UPDATE showtimes SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isMissingParent(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrShowtimeNotFound
	}
	return r.Get(ctx, id)
}

// SetReleased flips is_released on every listed showtime and returns the
// number of rows touched.
func (r *ShowtimeRepo) SetReleased(ctx context.Context, ids []uint64, released bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inList(ids)
	res, err := r.db.ExecContext(ctx,
		`UPDATE showtimes SET is_released = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN `+in,
		append([]any{released}, args...)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Book stores the seats for userID and appends the matching ticket in one
// transaction.  The unique seat key turns a concurrent booking of the same
// seat into ErrSeatTaken, in which case nothing is written.
func (r *ShowtimeRepo) Book(ctx context.Context, showtimeID, userID uint64, seats []seatplan.Seat) (*model.Ticket, error) {
	if len(seats) == 0 {
		return nil, seatplan.ErrNoSeats
	}
	t := &model.Ticket{UserID: userID, ShowtimeID: showtimeID, Seats: make([]model.SeatRef, 0, len(seats))}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		ph := make([]string, 0, len(seats))
		args := make([]any, 0, len(seats)*4)
		for _, s := range seats {
			ph = append(ph, "(?, ?, ?, ?)")
			args = append(args, showtimeID, s.Row, s.Column, userID)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO showtime_seats (showtime_id, row_label, seat_number, user_id) VALUES `+strings.Join(ph, ", "), args...)
		if err != nil {
			if isDuplicate(err) {
				return ErrSeatTaken
			}
			if isMissingParent(err) {
				return ErrShowtimeNotFound
			}
			return err
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO tickets (user_id, showtime_id) VALUES (?, ?)`, userID, showtimeID)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		t.ID = uint64(id)

		ph = ph[:0]
		args = args[:0]
		for _, s := range seats {
			ph = append(ph, "(?, ?, ?)")
			args = append(args, t.ID, s.Row, s.Column)
			t.Seats = append(t.Seats, model.SeatRef{Row: s.Row, Number: s.Column})
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ticket_seats (ticket_id, row_label, seat_number) VALUES `+strings.Join(ph, ", "), args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.CreatedAt = time.Now().UTC()
	return t, nil
}

// Delete removes one showtime with its seats and tickets.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM showtimes WHERE id = ? FOR UPDATE`, id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrShowtimeNotFound
			}
			return err
		}
		_, err := purgeShowtimes(ctx, tx, "s.id = ?", id)
		return err
	})
}

// DeleteMany removes the listed showtimes and returns how many were
// deleted.  An empty list deletes nothing.
func (r *ShowtimeRepo) DeleteMany(ctx context.Context, ids []uint64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, args := inList(ids)
	return r.purge(ctx, "s.id IN "+in, args...)
}

// DeleteAll removes every showtime.
func (r *ShowtimeRepo) DeleteAll(ctx context.Context) (int64, error) {
	return r.purge(ctx, "1=1")
}

// DeleteBefore removes every showtime starting before t.
func (r *ShowtimeRepo) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	return r.purge(ctx, "s.starts_at < ?", t.UTC())
}

func (r *ShowtimeRepo) purge(ctx context.Context, cond string, args ...any) (int64, error) {
	var n int64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		n, err = purgeShowtimes(ctx, tx, cond, args...)
		return err
	})
	return n, err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aulabook/seminar-reservation/internal/model"
)

// RoomRepo persists rooms ("Aula") and their seat plans.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `r.id, r.department_id, d.name, r.number, r.seat_row_bound, r.seat_col_bound, r.created_at, r.updated_at`

const roomFrom = ` FROM rooms r JOIN departments d ON d.id = r.department_id `

// queryRooms loads the rooms matching cond (alias r) ordered by department
// and id, then attaches each room's visible showtimes.
func queryRooms(ctx context.Context, q querier, vis Visibility, cond string, args ...any) ([]model.Room, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+roomColumns+roomFrom+`WHERE `+cond+` ORDER BY r.department_id, r.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Room{}
	for rows.Next() {
		var r model.Room
		var dep model.DepartmentRef
		if err := rows.Scan(&r.ID, &r.DepartmentID, &dep.Name, &r.Number, &r.SeatPlan.Row, &r.SeatPlan.Column, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		dep.ID = r.DepartmentID
		r.Department = &dep
		r.Showtimes = []model.Showtime{}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	return out, attachRoomShowtimes(ctx, q, vis, out)
}

// attachRoomShowtimes fills Room.Showtimes with a short form of every
// visible showtime (seminar name and length, no seats).
func attachRoomShowtimes(ctx context.Context, q querier, vis Visibility, rooms []model.Room) error {
	ids := make([]uint64, len(rooms))
	byID := make(map[uint64]int, len(rooms))
	for i, r := range rooms {
		ids[i] = r.ID
		byID[r.ID] = i
	}
	in, args := inList(ids)
	query := `SELECT s.id, s.room_id, s.seminar_id, s.starts_at, s.is_released, sm.name, sm.length_minutes
	            FROM showtimes s
	            JOIN seminars sm ON sm.id = s.seminar_id
	           WHERE s.room_id IN ` + in + vis.filter("s") + `
	           ORDER BY s.starts_at, s.id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var s model.Showtime
		sem := &model.Seminar{}
		if err := rows.Scan(&s.ID, &s.RoomID, &s.SeminarID, &s.StartsAt, &s.IsReleased, &sem.Name, &sem.LengthMinutes); err != nil {
			return err
		}
		sem.ID = s.SeminarID
		s.Seminar = sem
		i := byID[s.RoomID]
		rooms[i].Showtimes = append(rooms[i].Showtimes, s)
	}
	return rows.Err()
}

// Create adds a room to a department.  The department row is locked so
// that concurrent creates get consecutive numbers (count + 1).
func (r *RoomRepo) Create(ctx context.Context, departmentID uint64, plan model.SeatPlan) (*model.Room, error) {
	var id uint64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var dep uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM departments WHERE id = ? FOR UPDATE`, departmentID).Scan(&dep); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDepartmentNotFound
			}
			return err
		}
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms WHERE department_id = ?`, departmentID).Scan(&count); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (department_id, number, seat_row_bound, seat_col_bound) VALUES (?, ?, ?, ?)`,
			departmentID, count+1, plan.Row, plan.Column)
		if err != nil {
			return err
		}
		last, err := res.LastInsertId()
		if err != nil {
			return err
		}
		id = uint64(last)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id, AdminView)
}

// List returns every room with its department and visible showtimes.
func (r *RoomRepo) List(ctx context.Context, vis Visibility) ([]model.Room, error) {
	return queryRooms(ctx, r.db, vis, "1=1")
}

// Get returns one room or ErrRoomNotFound.
func (r *RoomRepo) Get(ctx context.Context, id uint64, vis Visibility) (*model.Room, error) {
	rooms, err := queryRooms(ctx, r.db, vis, "r.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, ErrRoomNotFound
	}
	return &rooms[0], nil
}

// SeatPlan returns only the plan of a room.
func (r *RoomRepo) SeatPlan(ctx context.Context, id uint64) (model.SeatPlan, error) {
	var p model.SeatPlan
	err := r.db.QueryRowContext(ctx, `SELECT seat_row_bound, seat_col_bound FROM rooms WHERE id = ?`, id).Scan(&p.Row, &p.Column)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrRoomNotFound
	}
	return p, err
}

// ListBySeminarOnDate returns rooms holding at least one visible showtime
// of the seminar that starts in [from, to).
func (r *RoomRepo) ListBySeminarOnDate(ctx context.Context, seminarID uint64, from, to time.Time, vis Visibility) ([]model.Room, error) {
	cond := `r.id IN (SELECT s.room_id FROM showtimes s
	                   WHERE s.seminar_id = ? AND s.starts_at >= ? AND s.starts_at < ?` + vis.filter("s") + `)`
	return queryRooms(ctx, r.db, vis, cond, seminarID, from.UTC(), to.UTC())
}

// UpdateSeatPlan replaces the seat plan of a room.  Seats already booked
// outside the new plan are kept.
func (r *RoomRepo) UpdateSeatPlan(ctx context.Context, id uint64, plan model.SeatPlan) (*model.Room, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET seat_row_bound = ?, seat_col_bound = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		plan.Row, plan.Column, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrRoomNotFound
	}
	return r.Get(ctx, id, AdminView)
}

// Delete removes a room and every showtime in it, in one transaction.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrRoomNotFound
			}
			return err
		}
		if _, err := purgeShowtimes(ctx, tx, "s.room_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		return err
	})
}

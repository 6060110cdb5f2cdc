package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,username,email,password_hash,role,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
}

// mapUserDup turns a duplicate key error into the matching sentinel.
func mapUserDup(err error) error {
	switch {
	case duplicateKey(err, "email"):
		return ErrEmailExists
	case isDuplicate(err):
		return ErrUsernameExists
	}
	return err
}

// Create hashes the password and inserts the user, returning its ID.
func (r *UserRepo) Create(ctx context.Context, username, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role) VALUES (?,?,?,?)",
		username, email, hash, role)
	if err != nil {
		return 0, mapUserDup(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user for login.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id), &u)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns every user with their tickets.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.User{}
	index := map[uint64]int{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, err
		}
		u.Tickets = []model.Ticket{}
		index[u.ID] = len(out)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	tickets, err := r.loadTickets(ctx, "1=1")
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		if i, ok := index[t.UserID]; ok {
			out[i].Tickets = append(out[i].Tickets, t)
		}
	}
	return out, nil
}

// Tickets returns the user's tickets with showtime, seminar, room and
// department attached, oldest first.
func (r *UserRepo) Tickets(ctx context.Context, userID uint64) ([]model.Ticket, error) {
	return r.loadTickets(ctx, "t.user_id = ?", userID)
}

func (r *UserRepo) loadTickets(ctx context.Context, cond string, args ...any) ([]model.Ticket, error) {
	q := `SELECT t.id, t.user_id, t.showtime_id, t.created_at,
	             s.starts_at, s.is_released, s.room_id, s.seminar_id,
	             r.number, r.department_id, d.name, sm.name, sm.poster_url, sm.length_minutes
	        FROM tickets t
	        JOIN showtimes s   ON s.id = t.showtime_id
	        JOIN rooms r       ON r.id = s.room_id
	        JOIN departments d ON d.id = r.department_id
	        JOIN seminars sm   ON sm.id = s.seminar_id
	       WHERE ` + cond + `
	       ORDER BY t.id`
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Ticket{}
	index := map[uint64]int{}
	for rows.Next() {
		var (
			t   model.Ticket
			s   model.Showtime
			rm  model.Room
			dep model.DepartmentRef
			sem model.Seminar
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.ShowtimeID, &t.CreatedAt,
			&s.StartsAt, &s.IsReleased, &s.RoomID, &s.SeminarID,
			&rm.Number, &rm.DepartmentID, &dep.Name, &sem.Name, &sem.PosterURL, &sem.LengthMinutes); err != nil {
			return nil, err
		}
		s.ID = t.ShowtimeID
		rm.ID, dep.ID, sem.ID = s.RoomID, rm.DepartmentID, s.SeminarID
		rm.Department = &dep
		s.Room, s.Seminar = &rm, &sem
		t.Showtime = &s
		t.Seats = []model.SeatRef{}
		index[t.ID] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uint64, len(out))
	for i, t := range out {
		ids[i] = t.ID
	}
	in, inArgs := inList(ids)
	seatRows, err := r.DB.QueryContext(ctx,
		`SELECT ticket_id, row_label, seat_number FROM ticket_seats WHERE ticket_id IN `+in+` ORDER BY id`, inArgs...)
	if err != nil {
		return nil, err
	}
	defer seatRows.Close()
	for seatRows.Next() {
		var (
			tid uint64
			s   model.SeatRef
		)
		if err := seatRows.Scan(&tid, &s.Row, &s.Number); err != nil {
			return nil, err
		}
		i := index[tid]
		out[i].Seats = append(out[i].Seats, s)
	}
	return out, seatRows.Err()
}

// UserUpdate carries the admin-editable fields; nil fields are kept.
type UserUpdate struct {
	Username *string
	Email    *string
	Role     *string
}

// Update applies the non-nil fields of u.
func (r *UserRepo) Update(ctx context.Context, id uint64, u UserUpdate) (*model.User, error) {
	set := []string{"updated_at=CURRENT_TIMESTAMP"}
	args := []any{}
	if u.Username != nil {
		set = append(set, "username=?")
		args = append(args, strings.TrimSpace(*u.Username))
	}
	if u.Email != nil {
		set = append(set, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*u.Email)))
	}
	if u.Role != nil {
		set = append(set, "role=?")
		args = append(args, *u.Role)
	}
	args = append(args, id)
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+strings.Join(set, ",")+" WHERE id=?", args...)
	if err != nil {
		return nil, mapUserDup(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrUserNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the user, releasing every seat they booked.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE id=? FOR UPDATE", id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrUserNotFound
			}
			return err
		}
		stmts := []string{
			"DELETE ts FROM ticket_seats ts JOIN tickets t ON t.id = ts.ticket_id WHERE t.user_id=?",
			"DELETE FROM tickets WHERE user_id=?",
			"DELETE FROM showtime_seats WHERE user_id=?",
			"DELETE FROM refresh_tokens WHERE user_id=?",
			"DELETE FROM users WHERE id=?",
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return err
			}
		}
		return nil
	})
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aulabook/seminar-reservation/internal/model"
)

// DepartmentRepo persists departments ("Dip").
type DepartmentRepo struct {
	db *sql.DB
}

// NewDepartmentRepo constructs a DepartmentRepo with the given DB handle.
func NewDepartmentRepo(db *sql.DB) *DepartmentRepo {
	return &DepartmentRepo{db: db}
}

// Create inserts a department.  Names are unique under the table's
// case-insensitive collation.
func (r *DepartmentRepo) Create(ctx context.Context, name string) (*model.Department, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO departments (name) VALUES (?)`, name)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDepartmentExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, uint64(id), AdminView)
}

// List returns all departments sorted by name, each with its rooms and
// their visible showtimes.
func (r *DepartmentRepo) List(ctx context.Context, vis Visibility) ([]model.Department, error) {
	return r.load(ctx, vis, "1=1")
}

// Get returns one department or ErrDepartmentNotFound.
func (r *DepartmentRepo) Get(ctx context.Context, id uint64, vis Visibility) (*model.Department, error) {
	deps, err := r.load(ctx, vis, "d.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(deps) == 0 {
		return nil, ErrDepartmentNotFound
	}
	return &deps[0], nil
}

func (r *DepartmentRepo) load(ctx context.Context, vis Visibility, cond string, args ...any) ([]model.Department, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.id, d.name, d.created_at, d.updated_at FROM departments d WHERE `+cond+` ORDER BY d.name, d.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Department{}
	index := map[uint64]int{}
	for rows.Next() {
		var d model.Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.Rooms = []model.Room{}
		index[d.ID] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uint64, len(out))
	for i, d := range out {
		ids[i] = d.ID
	}
	in, inArgs := inList(ids)
	rooms, err := queryRooms(ctx, r.db, vis, "r.department_id IN "+in, inArgs...)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		i := index[room.DepartmentID]
		room.Department = nil
		out[i].Rooms = append(out[i].Rooms, room)
	}
	return out, nil
}

// Rename changes a department's name.
func (r *DepartmentRepo) Rename(ctx context.Context, id uint64, name string) (*model.Department, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE departments SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, name, id)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDepartmentExists
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrDepartmentNotFound
	}
	return r.Get(ctx, id, AdminView)
}

// Delete removes a department, its rooms and every showtime held in those
// rooms, in one transaction.
func (r *DepartmentRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM departments WHERE id = ? FOR UPDATE`, id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDepartmentNotFound
			}
			return err
		}
		if _, err := purgeShowtimes(ctx, tx, "s.room_id IN (SELECT r.id FROM rooms r WHERE r.department_id = ?)", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE department_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM departments WHERE id = ?`, id)
		return err
	})
}

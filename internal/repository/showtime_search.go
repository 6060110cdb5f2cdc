package repository

import (
	"context"
	"strings"
	"time"

	"github.com/aulabook/seminar-reservation/internal/model"
)

// ShowtimeSearchQuery defines filters & pagination for the admin search
// view.  Zero values mean "no filter".
type ShowtimeSearchQuery struct {
	Seminar      string
	SeminarID    uint64
	DepartmentID uint64
	RoomID       uint64
	Released     *bool
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// MaxSearchPage bounds the page number so the OFFSET cannot overflow.
const MaxSearchPage = 10000

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// Search returns one page of showtimes matching q and the total match count.
func (r *ShowtimeRepo) Search(ctx context.Context, q ShowtimeSearchQuery) ([]model.Showtime, int64, error) {
	where := []string{}
	args := []any{}

	if q.Seminar != "" {
		where = append(where, "LOWER(sm.name) LIKE ? ESCAPE '!'")
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(q.Seminar))+"%")
	}
	if q.SeminarID != 0 {
		where = append(where, "s.seminar_id = ?")
		args = append(args, q.SeminarID)
	}
	if q.DepartmentID != 0 {
		where = append(where, "r.department_id = ?")
		args = append(args, q.DepartmentID)
	}
	if q.RoomID != 0 {
		where = append(where, "s.room_id = ?")
		args = append(args, q.RoomID)
	}
	if q.Released != nil {
		where = append(where, "s.is_released = ?")
		args = append(args, *q.Released)
	}
	if q.From != nil {
		where = append(where, "s.starts_at >= ?")
		args = append(args, q.From.UTC())
	}
	if q.To != nil {
		where = append(where, "s.starts_at < ?")
		args = append(args, q.To.UTC())
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM showtimes s
		JOIN rooms r     ON r.id = s.room_id
		JOIN seminars sm ON sm.id = s.seminar_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxSearchPage {
		q.Page = MaxSearchPage
	}
	if q.PageSize < 1 {
		q.PageSize = 20
	}
	offset := (q.Page - 1) * q.PageSize
	argsData := append(append([]any{}, args...), q.PageSize, offset)

	out, err := r.query(ctx, r.db, `WHERE `+cond+` ORDER BY s.starts_at ASC, s.id ASC LIMIT ? OFFSET ?`, argsData...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

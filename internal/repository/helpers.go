package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/aulabook/seminar-reservation/internal/model"
)

// Visibility decides whether unreleased showtimes are part of a read.  It
// is derived from the caller's role once and handed to every list query.
type Visibility struct {
	IncludeUnreleased bool
}

var (
	PublicView = Visibility{}
	AdminView  = Visibility{IncludeUnreleased: true}
)

// VisibilityFor maps a caller role to its Visibility.
func VisibilityFor(role string) Visibility {
	return Visibility{IncludeUnreleased: model.CanViewUnreleased(role)}
}

// filter returns the SQL fragment restricting the showtimes alias to
// released rows, or an empty string for admins.
func (v Visibility) filter(alias string) string {
	if v.IncludeUnreleased {
		return ""
	}
	return " AND " + alias + ".is_released = 1"
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// withTx runs fn in a transaction and commits when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

// inList renders "(?,?,?)" for n placeholders with the ids as arguments.
func inList(ids []uint64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")", args
}

// purgeShowtimes deletes the showtimes matching cond (written against the
// alias s) together with their booked seats, the tickets referencing them
// and those tickets' seats.  It must run inside the caller's transaction.
func purgeShowtimes(ctx context.Context, tx *sql.Tx, cond string, args ...any) (int64, error) {
	cleanup := []string{
		`DELETE ts FROM ticket_seats ts
		   JOIN tickets t   ON t.id = ts.ticket_id
		   JOIN showtimes s ON s.id = t.showtime_id
		  WHERE ` + cond,
		`DELETE t FROM tickets t
		   JOIN showtimes s ON s.id = t.showtime_id
		  WHERE ` + cond,
		`DELETE ss FROM showtime_seats ss
		   JOIN showtimes s ON s.id = ss.showtime_id
		  WHERE ` + cond,
	}
	for _, q := range cleanup {
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE s FROM showtimes s WHERE `+cond, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

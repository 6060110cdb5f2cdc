package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aulabook/seminar-reservation/internal/model"
)

// SeminarRepo persists seminars.
type SeminarRepo struct {
	db *sql.DB
}

// NewSeminarRepo constructs a SeminarRepo with the given DB handle.
func NewSeminarRepo(db *sql.DB) *SeminarRepo {
	return &SeminarRepo{db: db}
}

const seminarColumns = `id, name, poster_url, length_minutes, created_at, updated_at`

func scanSeminar(row interface{ Scan(...any) error }, s *model.Seminar) error {
	return row.Scan(&s.ID, &s.Name, &s.PosterURL, &s.LengthMinutes, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a seminar and returns the stored row.
func (r *SeminarRepo) Create(ctx context.Context, s *model.Seminar) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO seminars (name, poster_url, length_minutes) VALUES (?, ?, ?)`,
		s.Name, s.PosterURL, s.LengthMinutes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanSeminar(r.db.QueryRowContext(ctx, `SELECT `+seminarColumns+` FROM seminars WHERE id = ?`, id), s)
}

// List returns all seminars, newest first.
func (r *SeminarRepo) List(ctx context.Context) ([]model.Seminar, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+seminarColumns+` FROM seminars ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Seminar{}
	for rows.Next() {
		var s model.Seminar
		if err := scanSeminar(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Get returns one seminar or ErrSeminarNotFound.
func (r *SeminarRepo) Get(ctx context.Context, id uint64) (*model.Seminar, error) {
	var s model.Seminar
	err := scanSeminar(r.db.QueryRowContext(ctx, `SELECT `+seminarColumns+` FROM seminars WHERE id = ?`, id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeminarNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Showing returns seminars that have released showtimes starting at or
// after now, the ones with most upcoming showtimes first.
func (r *SeminarRepo) Showing(ctx context.Context, now time.Time) ([]model.ShowingSeminar, error) {
	const q = `SELECT sm.id, sm.name, sm.poster_url, sm.length_minutes, sm.created_at, sm.updated_at, COUNT(*) AS cnt
	             FROM showtimes s
	             JOIN seminars sm ON sm.id = s.seminar_id
	            WHERE s.starts_at >= ? AND s.is_released = 1
	            GROUP BY sm.id, sm.name, sm.poster_url, sm.length_minutes, sm.created_at, sm.updated_at
	            ORDER BY cnt DESC, sm.updated_at DESC`
	rows, err := r.db.QueryContext(ctx, q, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ShowingSeminar{}
	for rows.Next() {
		var s model.ShowingSeminar
		if err := rows.Scan(&s.ID, &s.Name, &s.PosterURL, &s.LengthMinutes, &s.CreatedAt, &s.UpdatedAt, &s.Count); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update overwrites name, poster and length.
func (r *SeminarRepo) Update(ctx context.Context, s *model.Seminar) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE seminars SET name = ?, poster_url = ?, length_minutes = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		s.Name, s.PosterURL, s.LengthMinutes, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSeminarNotFound
	}
	return scanSeminar(r.db.QueryRowContext(ctx, `SELECT `+seminarColumns+` FROM seminars WHERE id = ?`, s.ID), s)
}

// Delete removes a seminar and all of its showtimes in one transaction.
func (r *SeminarRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var found uint64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM seminars WHERE id = ? FOR UPDATE`, id).Scan(&found); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrSeminarNotFound
			}
			return err
		}
		if _, err := purgeShowtimes(ctx, tx, "s.seminar_id = ?", id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM seminars WHERE id = ?`, id)
		return err
	})
}

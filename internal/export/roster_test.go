package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aulabook/seminar-reservation/internal/model"
)

func rosterShowtime() *model.Showtime {
	return &model.Showtime{
		ID:       4,
		StartsAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Room: &model.Room{
			Number:     3,
			Department: &model.DepartmentRef{Name: "Fisica"},
		},
		Seminar: &model.Seminar{Name: "Quantum basics"},
		Seats: []model.BookedSeat{
			{Row: "AA", Number: 1, User: &model.UserRef{Username: "zoe", Email: "zoe@example.com"}},
			{Row: "B", Number: 10, User: &model.UserRef{Username: "bob", Email: "bob@example.com"}},
			{Row: "B", Number: 2, User: &model.UserRef{Username: "amy", Email: "amy@example.com"}},
			{Row: "A", Number: 7},
		},
	}
}

func TestRoster(t *testing.T) {
	data, err := Roster(rosterShowtime())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Roster"}, f.GetSheetList())
	rows, err := f.GetRows("Roster")
	require.NoError(t, err)
	require.Len(t, rows, 9)

	assert.Equal(t, "Quantum basics", rows[0][0])
	assert.Equal(t, "Fisica - Aula 3", rows[1][0])
	assert.Equal(t, "2024-03-01 10:00 UTC", rows[2][0])
	assert.Equal(t, RosterHeader, rows[4])

	var order []string
	for _, r := range rows[5:] {
		order = append(order, r[0])
	}
	assert.Equal(t, []string{"A7", "B2", "B10", "AA1"}, order)
	assert.Equal(t, "amy", rows[6][3])
	assert.Equal(t, "zoe@example.com", rows[8][4])
}

func TestRoster_EmptyShowtime(t *testing.T) {
	st := &model.Showtime{ID: 1, StartsAt: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	data, err := Roster(st)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Roster")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, "0 seats booked", rows[3][0])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "roster-4-20240301-1000.xlsx", Filename(rosterShowtime()))
}

// Package export renders attendance rosters of a showtime as XLSX sheets.
package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/aulabook/seminar-reservation/internal/model"
	"github.com/aulabook/seminar-reservation/internal/seatplan"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Roster"

// RosterHeader is the first row of the roster sheet.
var RosterHeader = []string{"Seat", "Row", "Number", "Username", "Email", "Signature"}

var columnWidths = []float64{8, 6, 8, 24, 32, 28}

// Filename returns the download name of the roster of st.
func Filename(st *model.Showtime) string {
	return fmt.Sprintf("roster-%d-%s.xlsx", st.ID, st.StartsAt.UTC().Format("20060102-1504"))
}

// Roster builds the attendance sheet of st: a title block followed by one
// line per booked seat in row then seat order.
func Roster(st *model.Showtime) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, line := range titleLines(st) {
		if err := f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), line); err != nil {
			return nil, err
		}
	}
	const headerRow = 5
	for col, h := range RosterHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, headerRow)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, columnWidths[col]); err != nil {
			return nil, err
		}
	}

	for i, seat := range sortedSeats(st.Seats) {
		row := headerRow + 1 + i
		values := []any{seat.Code(), seat.Row, seat.Number, "", ""}
		if seat.User != nil {
			values[3] = seat.User.Username
			values[4] = seat.User.Email
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func titleLines(st *model.Showtime) []string {
	seminar, dep, room := "", "", 0
	if st.Seminar != nil {
		seminar = st.Seminar.Name
	}
	if st.Room != nil {
		room = st.Room.Number
		if st.Room.Department != nil {
			dep = st.Room.Department.Name
		}
	}
	return []string{
		seminar,
		fmt.Sprintf("%s - Aula %d", dep, room),
		st.StartsAt.UTC().Format("2006-01-02 15:04 MST"),
		fmt.Sprintf("%d seats booked", len(st.Seats)),
	}
}

// sortedSeats orders seats by row index then seat number.
func sortedSeats(seats []model.BookedSeat) []model.BookedSeat {
	out := append([]model.BookedSeat(nil), seats...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, _ := seatplan.RowIndex(out[i].Row)
		rj, _ := seatplan.RowIndex(out[j].Row)
		if ri != rj {
			return ri < rj
		}
		return out[i].Number < out[j].Number
	})
	return out
}

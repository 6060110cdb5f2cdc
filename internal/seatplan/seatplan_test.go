package seatplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name    string
		plan    Plan
		codes   []string
		wantErr error
	}{
		{name: "single letter row inside plan", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"C5"}},
		{name: "row past the bound", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"F5"}, wantErr: ErrInvalidSeat},
		{name: "column past the bound", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"E11"}, wantErr: ErrInvalidSeat},
		{name: "column zero", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"A0"}, wantErr: ErrInvalidSeat},
		{name: "single letter row under a two letter bound", plan: Plan{RowBound: "AC", ColumnBound: 20}, codes: []string{"Z20"}},
		{name: "two letter row past the bound", plan: Plan{RowBound: "AC", ColumnBound: 20}, codes: []string{"AD1"}, wantErr: ErrInvalidSeat},
		{name: "two letter row inside the bound", plan: Plan{RowBound: "AC", ColumnBound: 20}, codes: []string{"AB20"}},
		{name: "two letter row under a single letter bound", plan: Plan{RowBound: "Z", ColumnBound: 20}, codes: []string{"AA1"}, wantErr: ErrInvalidSeat},
		{name: "three letter row", plan: Plan{RowBound: "DZ", ColumnBound: 20}, codes: []string{"AAA1"}, wantErr: ErrInvalidSeat},
		{name: "lower case code", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"b3"}},
		{name: "malformed code", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"3B"}, wantErr: ErrMalformedSeat},
		{name: "empty request", plan: Plan{RowBound: "E", ColumnBound: 10}, wantErr: ErrNoSeats},
		{name: "same seat twice", plan: Plan{RowBound: "E", ColumnBound: 10}, codes: []string{"A1", "a1"}, wantErr: ErrDuplicateSeat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.plan, tt.codes, nil)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAvailabilityIsAllOrNothing(t *testing.T) {
	plan := Plan{RowBound: "E", ColumnBound: 10}
	taken := []Seat{{Row: "B", Column: 4}}

	seats, err := Validate(plan, []string{"A1", "B4"}, taken)
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.Nil(t, seats)

	seats, err = Validate(plan, []string{"A1"}, taken)
	require.NoError(t, err)
	assert.Equal(t, []Seat{{Row: "A", Column: 1}}, seats)
}

func TestValidateOrderDoesNotMatter(t *testing.T) {
	plan := Plan{RowBound: "E", ColumnBound: 10}
	taken := []Seat{{Row: "B", Column: 4}}

	_, err1 := Validate(plan, []string{"B4", "Z1"}, taken)
	_, err2 := Validate(plan, []string{"Z1", "B4"}, taken)
	assert.ErrorIs(t, err1, ErrInvalidSeat)
	assert.ErrorIs(t, err2, ErrInvalidSeat)
}

func TestValidateIsIdempotent(t *testing.T) {
	plan := Plan{RowBound: "AC", ColumnBound: 20}
	taken := []Seat{{Row: "A", Column: 2}}
	codes := []string{"AB3", "C7"}

	first, err1 := Validate(plan, codes, taken)
	second, err2 := Validate(plan, codes, taken)
	assert.Equal(t, err1, err2)
	assert.Equal(t, first, second)
}

func TestPlanValidate(t *testing.T) {
	assert.NoError(t, Plan{RowBound: "A", ColumnBound: 1}.Validate())
	assert.NoError(t, Plan{RowBound: "DZ", ColumnBound: 120}.Validate())
	assert.ErrorIs(t, Plan{RowBound: "EA", ColumnBound: 10}.Validate(), ErrInvalidPlan)
	assert.ErrorIs(t, Plan{RowBound: "a", ColumnBound: 10}.Validate(), ErrInvalidPlan)
	assert.ErrorIs(t, Plan{RowBound: "C", ColumnBound: 121}.Validate(), ErrInvalidPlan)
	assert.ErrorIs(t, Plan{RowBound: "C", ColumnBound: 0}.Validate(), ErrInvalidPlan)
}

func TestRowLabels(t *testing.T) {
	assert.Equal(t, "A", RowLabel(0))
	assert.Equal(t, "Z", RowLabel(25))
	assert.Equal(t, "AA", RowLabel(26))
	assert.Equal(t, "DZ", RowLabel(129))

	idx, ok := RowIndex("ac")
	require.True(t, ok)
	assert.Equal(t, 28, idx)

	_, ok = RowIndex("A1")
	assert.False(t, ok)

	rows := Plan{RowBound: "AB", ColumnBound: 3}.Rows()
	assert.Len(t, rows, 28)
	assert.Equal(t, "AB", rows[len(rows)-1])
	assert.Equal(t, 84, Plan{RowBound: "AB", ColumnBound: 3}.Capacity())
}

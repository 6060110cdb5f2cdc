package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roomBody struct {
	Dip    uint64 `json:"dip" validate:"required"`
	Row    string `json:"row" validate:"required,rowbound"`
	Column int    `json:"column" validate:"required,gte=1,lte=120"`
}

type purchaseBody struct {
	Seats []string `json:"seats" validate:"required,min=1,dive,seatcode"`
}

func TestRowBound(t *testing.T) {
	v := NewEchoValidator()
	for _, row := range []string{"A", "Z", "AA", "DZ", "CK"} {
		assert.NoError(t, v.Validate(&roomBody{Dip: 1, Row: row, Column: 10}), row)
	}
	for _, row := range []string{"", "a", "EA", "AAA", "1", "A1"} {
		err := v.Validate(&roomBody{Dip: 1, Row: row, Column: 10})
		assert.Error(t, err, row)
	}
}

func TestFieldMessages(t *testing.T) {
	v := NewEchoValidator()
	err := v.Validate(&roomBody{Row: "EA", Column: 121})

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"dip":    "is required",
		"row":    "must be a row label between A and DZ",
		"column": "must be less than or equal to 120",
	}, verr.Fields)
	assert.Equal(t, "column must be less than or equal to 120; dip is required; row must be a row label between A and DZ", verr.Error())
}

func TestSeatCodes(t *testing.T) {
	v := NewEchoValidator()
	assert.NoError(t, v.Validate(&purchaseBody{Seats: []string{"A1", "ab12"}}))

	err := v.Validate(&purchaseBody{Seats: []string{"A1", "12"}})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be a seat code such as A12", verr.Fields["seats[1]"])

	err = v.Validate(&purchaseBody{})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["seats"])
}

func TestMustRegister(t *testing.T) {
	v := New()
	assert.NotPanics(t, func() { mustRegister(v, "rowbound2", matches(rowBoundRgx)) })
	assert.Panics(t, func() { mustRegister(v, "", matches(rowBoundRgx)) })
}

package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Type string `json:"type" validate:"required,oneof=move reset"`
	Cell *int   `json:"cell" validate:"omitempty,min=0,max=8"`
}

func TestDescribe(t *testing.T) {
	cell := 12
	err := GetValidator().Struct(sample{Type: "jump", Cell: &cell})
	require.Error(t, err)

	msg := Describe(err)
	assert.Contains(t, msg, "type failed oneof=move reset")
	assert.Contains(t, msg, "cell failed max=8")
}

func TestDescribe_OtherErrors(t *testing.T) {
	assert.Equal(t, "boom", Describe(errors.New("boom")))
}

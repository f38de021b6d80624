package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeCycle, "participant cannot be its own ancestor")
		assert.True(t, HasCode(err, CodeCycle))
		assert.False(t, HasCode(err, CodeAlreadyLinked))
	})

	t.Run("matches wrapped domain code", func(t *testing.T) {
		inner := New(CodeNoPlan, "seller has no plan")
		outer := Wrap(inner, CodeInternal, "compute commissions")
		assert.True(t, HasCode(outer, CodeNoPlan))
		assert.True(t, HasCode(outer, CodeInternal))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeNothingToPay, "nothing approved"))
		assert.True(t, Is(err, CodeNothingToPay))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestErrorDetails(t *testing.T) {
	err := New(CodeAlreadyLinked, "participant already has an upline").
		WithDetail("participant_id", "p-1").
		WithDetail("parent_id", "p-2")

	assert.Equal(t, "already_linked: participant already has an upline participant_id=p-1 parent_id=p-2", err.Error())
	assert.Equal(t, "p-1", DetailsOf(err)["participant_id"])
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:     http.StatusBadRequest,
		CodeNotFound:       http.StatusNotFound,
		CodeCycle:          http.StatusConflict,
		CodeDepthExceeded:  http.StatusConflict,
		CodeNoPlan:         http.StatusUnprocessableEntity,
		CodeNothingToPay:   http.StatusUnprocessableEntity,
		CodeTransferFailed: http.StatusBadGateway,
		CodeInternal:       http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), string(code))
	}
}

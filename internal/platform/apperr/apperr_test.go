package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripseat/service-booking/internal/platform/apperr"
)

var errSample = apperr.New(apperr.KindConflict, "SAMPLE", "sample failed")

func TestError_Is(t *testing.T) {
	t.Run("should match sentinel after message override", func(t *testing.T) {
		err := errSample.WithMessage("only 2 seats left")
		assert.ErrorIs(t, err, errSample)
		assert.Equal(t, "only 2 seats left", err.Error())
	})

	t.Run("should match through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("booking: %w", errSample)
		assert.ErrorIs(t, err, errSample)
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
		assert.Equal(t, "SAMPLE", apperr.CodeOf(err))
	})

	t.Run("should not match a different code", func(t *testing.T) {
		other := apperr.New(apperr.KindConflict, "OTHER", "other")
		assert.False(t, errors.Is(other, errSample))
	})

	t.Run("should expose wrapped cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := errSample.Wrap(cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "sample failed: connection reset", err.Error())
	})
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
	assert.Equal(t, "INTERNAL", apperr.CodeOf(errors.New("boom")))
}

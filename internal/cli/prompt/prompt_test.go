package prompt

import (
	"errors"
	"fmt"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	assert.NoError(t, wrapError(nil))
	assert.ErrorIs(t, wrapError(promptui.ErrInterrupt), ErrAborted)
	assert.ErrorIs(t, wrapError(promptui.ErrEOF), ErrAborted)
	assert.ErrorIs(t, wrapError(fmt.Errorf("wrapped: %w", promptui.ErrInterrupt)), ErrAborted)

	other := errors.New("boom")
	assert.Equal(t, other, wrapError(other))
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(ErrAborted))
	assert.False(t, IsAborted(promptui.ErrAbort))
	assert.False(t, IsAborted(errors.New("boom")))
}

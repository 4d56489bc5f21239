package console

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(readline.ErrInterrupt), ErrInterrupted)
	assert.ErrorIs(t, translate(io.EOF), io.EOF)

	err := translate(fmt.Errorf("tty gone"))
	assert.False(t, errors.Is(err, ErrInterrupted))
	assert.False(t, errors.Is(err, io.EOF))
	assert.Contains(t, err.Error(), "tty gone")
}

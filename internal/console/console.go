// Package console provides the operator prompt for the interactive menus.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrInterrupted is returned by Prompt when the operator presses Ctrl-C.
var ErrInterrupted = errors.New("console: interrupted")

// Options configures a Console. Zero values use the terminal.
type Options struct {
	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer
}

// Console reads one line of operator input per prompt.
type Console struct {
	rl *readline.Instance
}

// New creates a Console on the terminal, or on the given streams.
func New(opts Options) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           opts.Stdin,
		Stdout:          opts.Stdout,
		Stderr:          opts.Stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{rl: rl}, nil
}

// Prompt shows label and returns the trimmed line the operator entered.
// Ctrl-C yields ErrInterrupted and Ctrl-D yields io.EOF.
func (c *Console) Prompt(label string) (string, error) {
	c.rl.SetPrompt(label)
	line, err := c.rl.Readline()
	if err != nil {
		return "", translate(err)
	}
	return strings.TrimSpace(line), nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for menus and log output to avoid interfering with the prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close restores the terminal.
func (c *Console) Close() error {
	return c.rl.Close()
}

func translate(err error) error {
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return ErrInterrupted
	case errors.Is(err, io.EOF):
		return io.EOF
	default:
		return fmt.Errorf("console: read input: %w", err)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chaz8081/blenumerator/internal/console"
	"github.com/chaz8081/blenumerator/internal/logsink"
)

func TestFinish(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		err      error
		wantCode int
		wantLine string // empty means no final line
	}{
		{"operator exit", context.Background(), nil, 0, ""},
		{"end of input", context.Background(), fmt.Errorf("prompt: %w", io.EOF), 0, ""},
		{"ctrl-c at prompt", context.Background(), fmt.Errorf("prompt: %w", console.ErrInterrupted), 0, "INFO - Terminated by user."},
		{"signal closes console", cancelled, fmt.Errorf("prompt: %w", io.EOF), 0, "INFO - Terminated by user."},
		{"signal during scan", cancelled, context.Canceled, 0, "INFO - Terminated by user."},
		{"unexpected failure", context.Background(), errors.New("adapter vanished"), 1, "ERROR - Unexpected error: adapter vanished"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(logsink.NewHandler(&buf, logsink.HandlerOptions{}))

			assert.Equal(t, tt.wantCode, finish(tt.ctx, logger, tt.err))
			if tt.wantLine == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.wantLine)
			assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("\n")))
		})
	}
}

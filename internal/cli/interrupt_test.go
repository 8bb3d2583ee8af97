package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer)
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts_ParentCancel(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)

	parent, cancelParent := context.WithCancel(context.Background())
	ctx, cancel := handler.HandleInterrupts(parent, "")
	defer cancel()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled initially")
	default:
	}

	cancelParent()
	<-ctx.Done()

	assert.False(t, handler.WasInterrupted())
}

func TestInterrupt(t *testing.T) {
	var output bytes.Buffer
	handler := NewInterruptHandler(&output)
	ctx, cancel := handler.HandleInterrupts(context.Background(), "Verdicts already sent are saved on the backend.")

	handler.interrupt(cancel)
	handler.interrupt(cancel)

	<-ctx.Done()
	assert.True(t, handler.WasInterrupted())
	assert.Equal(t, 1, strings.Count(output.String(), "Interrupted, shutting down..."))
	assert.Contains(t, output.String(), "Verdicts already sent are saved on the backend.")
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		hint        string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with hint",
			hint:     "Run punchdash again to resume.",
			expected: []string{"Interrupted, shutting down...", "Run punchdash again to resume."},
		},
		{
			name:        "without hint",
			expected:    []string{"Interrupted, shutting down..."},
			notExpected: []string{InfoIcon},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := &InterruptHandler{writer: &output, hint: tt.hint}

			handler.showInterruptMessage()

			for _, expected := range tt.expected {
				assert.Contains(t, output.String(), expected)
			}
			for _, notExpected := range tt.notExpected {
				assert.NotContains(t, output.String(), notExpected)
			}
		})
	}
}

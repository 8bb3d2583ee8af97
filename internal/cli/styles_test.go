package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{name: "success", format: FormatSuccess, icon: SuccessIcon},
		{name: "error", format: FormatError, icon: ErrorIcon},
		{name: "warning", format: FormatWarning, icon: WarningIcon},
		{name: "info", format: FormatInfo, icon: InfoIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.format("backend reachable")
			assert.Contains(t, out, tt.icon)
			assert.Contains(t, out, "backend reachable")
		})
	}

	assert.Contains(t, FormatTitle("Statistics"), "Statistics")
	assert.Contains(t, FormatSubtle("15:04:05"), "15:04:05")
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDataSize(t *testing.T) {
	tests := []struct {
		name     string
		bytes    uint64
		expected string
	}{
		{"Bytes", 512, "512 B"},
		{"Exact KiB", 1024, "1 KiB"},
		{"Fractional KiB", 1536, "1.5 KiB"},
		{"Exact MiB", 2 * 1024 * 1024, "2 MiB"},
		{"GiB", 3 * 1024 * 1024 * 1024, "3 GiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDataSize(tt.bytes))
		})
	}
}

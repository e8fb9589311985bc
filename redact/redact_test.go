package redact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neura-neura/sp0t-dl-tg/redact"
)

func TestString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		expected string
	}{
		{"", ""},
		{"abc", "***"},
		{"abcd", "a**d"},
		{"12345678", "12****78"},
		{"1234567890", "12******90"},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, redact.String(test.in))
		})
	}
}

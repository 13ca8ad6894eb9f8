package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketCoder_RoundTrip(t *testing.T) {
	c := NewTicketCoder("secret")
	code, err := c.New()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code, "QR-"))
	assert.LessOrEqual(t, len(code), 80)
	assert.True(t, c.Valid(code))

	other, err := c.New()
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestTicketCoder_Rejects(t *testing.T) {
	c := NewTicketCoder("secret")
	code, err := c.New()
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"no prefix":     strings.TrimPrefix(code, "QR-"),
		"no mac":        code[:strings.LastIndexByte(code, '-')],
		"bad uuid":      "QR-NOT-A-UUID-0011223344556677",
		"lowercased":    strings.ToLower(code),
		"other key":     mustCode(t, NewTicketCoder("another secret")),
		"appended":      code + "0",
		"garbage":       "hello world",
		"prefix only":   "QR-",
		"trailing dash": code + "-",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, c.Valid(in))
		})
	}
}

func TestTicketCoder_LongSecret(t *testing.T) {
	c := NewTicketCoder(strings.Repeat("k", 200))
	assert.True(t, c.Valid(mustCode(t, c)))
}

func TestNewOrderCode(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code := NewOrderCode(now)
		assert.Regexp(t, `^TKT-2026-[2-9A-HJ-NP-Z]{8}$`, code)
		seen[code] = true
	}
	assert.Len(t, seen, 200)
}

func mustCode(t *testing.T, c *TicketCoder) string {
	t.Helper()
	code, err := c.New()
	require.NoError(t, err)
	return code
}

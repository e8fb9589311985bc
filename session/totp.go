package session

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec
	"encoding/binary"
	"fmt"
	"time"
)

const (
	DefaultPeriod = 30
	DefaultDigits = 6
)

// TOTP generates time-based one-time codes (HMAC-SHA1, dynamic truncation).
type TOTP struct {
	Secret []byte
	Period int64
	Digits int
}

func NewTOTP(secret []byte) TOTP {
	return TOTP{Secret: secret, Period: DefaultPeriod, Digits: DefaultDigits}
}

func (g TOTP) counter(t time.Time) uint64 {
	return uint64(t.UnixMilli() / 1000 / g.Period) //nolint:gosec
}

func (g TOTP) Generate(t time.Time) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], g.counter(t))

	mac := hmac.New(sha1.New, g.Secret)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for range g.Digits {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", g.Digits, code%mod)
}

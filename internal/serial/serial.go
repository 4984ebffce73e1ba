// Package serial mints the two identifier kinds a draw produces: the
// human-presentable serial number printed on the coupon, and the looser
// client-local coupon number used only as a local record key. Callers
// must not confuse the two.
package serial

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	// Prefix is the fixed serial number prefix.
	Prefix = "SF-"

	serialAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	serialLen      = 8

	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	suffixLen      = 6
)

// NewSerialNumber returns "SF-" followed by 8 characters from [A-Z0-9].
// Uniqueness is overwhelmingly probable but not guaranteed; collisions
// are a rare, unhandled edge case by contract.
func NewSerialNumber() string {
	return Prefix + randomString(serialAlphabet, serialLen)
}

// NewCouponNumber returns a timestamp-plus-random identifier for the
// client-local coupon record. It is not a serial number and is never
// shown to the user or looked up on the backend.
func NewCouponNumber() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), randomString(suffixAlphabet, suffixLen))
}

func randomString(alphabet string, n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never fails on supported platforms
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b)
}

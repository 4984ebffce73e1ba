package serial

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSerialNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^SF-[A-Z0-9]{8}$`)
	for i := 0; i < 500; i++ {
		s := NewSerialNumber()
		assert.Regexp(t, re, s)
	}
}

func TestNewSerialNumberVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		seen[NewSerialNumber()] = true
	}
	// collisions are possible but a constant output is a broken generator
	assert.Greater(t, len(seen), 190)
}

func TestNewCouponNumberShape(t *testing.T) {
	n := NewCouponNumber()

	parts := strings.SplitN(n, "-", 2)
	require.Len(t, parts, 2)

	ms, err := strconv.ParseInt(parts[0], 10, 64)
	require.NoError(t, err)
	assert.Greater(t, ms, int64(0))

	assert.Regexp(t, `^[a-z0-9]{6}$`, parts[1])
}

func TestGeneratorsAreDistinct(t *testing.T) {
	// serial numbers carry the fixed prefix, local coupon numbers never do
	assert.True(t, strings.HasPrefix(NewSerialNumber(), Prefix))
	assert.False(t, strings.HasPrefix(NewCouponNumber(), Prefix))
}

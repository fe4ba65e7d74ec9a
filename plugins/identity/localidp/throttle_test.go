package localidp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottle_ExhaustsAfterBurst(t *testing.T) {
	th := newThrottle(3, time.Hour)
	defer th.stop()

	assert.False(t, th.exhausted("ana@example.com"))

	th.fail("ana@example.com")
	th.fail("ana@example.com")
	assert.False(t, th.exhausted("ana@example.com"), "one attempt should remain")

	th.fail("ana@example.com")
	assert.True(t, th.exhausted("ana@example.com"))
}

func TestThrottle_PerEmailIsolation(t *testing.T) {
	th := newThrottle(1, time.Hour)
	defer th.stop()

	th.fail("ana@example.com")
	assert.True(t, th.exhausted("ana@example.com"))
	assert.False(t, th.exhausted("ben@example.com"))
	assert.Equal(t, 2, th.size())
}

func TestThrottle_ResetForgetsFailures(t *testing.T) {
	th := newThrottle(1, time.Hour)
	defer th.stop()

	th.fail("ana@example.com")
	assert.True(t, th.exhausted("ana@example.com"))

	th.reset("ana@example.com")
	assert.False(t, th.exhausted("ana@example.com"))
}

func TestThrottle_Refills(t *testing.T) {
	// A tiny window so tokens come back within the test.
	th := newThrottle(2, 100*time.Millisecond)
	defer th.stop()

	th.fail("ana@example.com")
	th.fail("ana@example.com")
	assert.True(t, th.exhausted("ana@example.com"))

	assert.Eventually(t, func() bool {
		return !th.exhausted("ana@example.com")
	}, time.Second, 10*time.Millisecond, "tokens should refill over the window")
}

func TestThrottle_Cleanup(t *testing.T) {
	th := newThrottle(2, time.Hour)
	defer th.stop()

	th.fail("ana@example.com")
	th.fail("ben@example.com")
	assert.Equal(t, 2, th.size())

	// Backdate the entries past the cleanup TTL and sweep.
	th.mu.Lock()
	for _, el := range th.limiters {
		el.lastAccess = time.Now().Add(-3 * time.Hour)
	}
	th.mu.Unlock()
	th.cleanup()

	assert.Equal(t, 0, th.size())
}

func TestThrottle_StopIsIdempotent(t *testing.T) {
	th := newThrottle(1, time.Hour)
	th.fail("ana@example.com") // starts the cleanup goroutine
	th.stop()
	th.stop()
}

package localidp

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttle limits failed sign-in attempts per email. Each failure consumes a
// token from that email's limiter; once the burst is spent, further attempts
// are rejected until tokens refill over the window. Successful sign-ins
// clear the limiter.
type throttle struct {
	limit  rate.Limit
	burst  int
	window time.Duration

	mu       sync.Mutex
	limiters map[string]*emailLimiter

	cleanupOnce sync.Once
	stopOnce    sync.Once
	stopCh      chan struct{}
}

type emailLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newThrottle(attempts int, window time.Duration) *throttle {
	return &throttle{
		limit:    rate.Limit(float64(attempts) / window.Seconds()),
		burst:    attempts,
		window:   window,
		limiters: make(map[string]*emailLimiter),
		stopCh:   make(chan struct{}),
	}
}

// exhausted reports whether the email has no failed attempts left.
func (t *throttle) exhausted(email string) bool {
	return t.get(email).Tokens() < 1
}

// fail consumes one attempt for the email.
func (t *throttle) fail(email string) {
	t.get(email).Allow()
}

// reset forgets the email's failures after a successful sign-in.
func (t *throttle) reset(email string) {
	t.mu.Lock()
	delete(t.limiters, email)
	t.mu.Unlock()
}

// stop halts the background cleanup. Safe to call more than once.
func (t *throttle) stop() {
	t.stopOnce.Do(func() {
		close(t.stopCh)
	})
}

func (t *throttle) get(email string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if el, ok := t.limiters[email]; ok {
		el.lastAccess = time.Now()
		return el.limiter
	}

	// Cleanup starts with the first limiter so an unused throttle costs no
	// goroutine.
	t.cleanupOnce.Do(func() {
		go t.cleanupLoop()
	})

	el := &emailLimiter{
		limiter:    rate.NewLimiter(t.limit, t.burst),
		lastAccess: time.Now(),
	}
	t.limiters[email] = el
	return el.limiter
}

func (t *throttle) cleanupLoop() {
	ticker := time.NewTicker(t.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.stopCh:
			return
		}
	}
}

// cleanup drops limiters idle for two windows. By then the burst has fully
// refilled, so forgetting the entry does not change behavior.
func (t *throttle) cleanup() {
	ttl := 2 * t.window
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()
	for email, el := range t.limiters {
		if now.Sub(el.lastAccess) > ttl {
			delete(t.limiters, email)
		}
	}
}

// size returns the number of tracked emails. For tests and metrics.
func (t *throttle) size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

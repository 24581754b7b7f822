package feed

import (
	"time"

	"golang.org/x/time/rate"
)

// Debouncer lets the first call through and drops the calls that follow
// within window. A zero window lets everything through.
type Debouncer struct {
	limiter *rate.Limiter
	now     func() time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		limiter: rate.NewLimiter(rate.Every(window), 1),
		now:     time.Now,
	}
}

func (d *Debouncer) Allow() bool {
	return d.limiter.AllowN(d.now(), 1)
}

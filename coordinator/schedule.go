package coordinator

import (
	"time"
)

// Handle is a pending point-in-time callback. A nil *Handle means nothing
// is scheduled; Cancel is total either way and safe to call repeatedly.
type Handle struct {
	timer *time.Timer
}

// At arms fn to run once at the given instant.
func At(at time.Time, fn func()) *Handle {
	return &Handle{timer: time.AfterFunc(time.Until(at), fn)}
}

func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.timer.Stop()
}

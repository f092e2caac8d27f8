package engine

// Countdown is the session clock in whole seconds. It only moves when ticked;
// the scheduler decides when a tick happens.
type Countdown struct {
	limit     int
	remaining int
	paused    bool
}

// NewCountdown returns a running countdown starting at seconds.
func NewCountdown(seconds int) Countdown {
	return Countdown{limit: seconds, remaining: seconds}
}

// Tick advances one second unless paused, floored at zero. It reports whether
// the remaining time changed.
func (c *Countdown) Tick() bool {
	if c.paused || c.remaining == 0 {
		return false
	}
	c.remaining--
	return true
}

func (c *Countdown) Pause()  { c.paused = true }
func (c *Countdown) Resume() { c.paused = false }

func (c *Countdown) Paused() bool   { return c.paused }
func (c *Countdown) Remaining() int { return c.remaining }
func (c *Countdown) Limit() int     { return c.limit }
func (c *Countdown) Expired() bool  { return c.remaining == 0 }

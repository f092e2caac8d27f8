// Package input translates keyboard, wheel and touch gestures into engine commands.
package input

import (
	"math"
	"strings"
	"time"

	"exam-drill-service/internal/engine"
)

// Target is the engine surface the router drives.
type Target interface {
	View() engine.View
	Dispatch(cmd engine.Command) error
	CopyText() string
}

// Config holds gesture thresholds.
type Config struct {
	WheelThreshold       float64
	WheelCooldown        time.Duration
	SwipeThreshold       float64
	BoundaryTolerance    float64
	HorizontalResistance float64
	VerticalResistance   float64
}

// DefaultConfig mirrors the thresholds used by the web client.
func DefaultConfig() Config {
	return Config{
		WheelThreshold:       30,
		WheelCooldown:        600 * time.Millisecond,
		SwipeThreshold:       100,
		BoundaryTolerance:    2,
		HorizontalResistance: 0.8,
		VerticalResistance:   0.5,
	}
}

// Viewport describes the scroll position of the question container.
type Viewport struct {
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// Boundless is a viewport whose content fits entirely, so it sits at both boundaries.
var Boundless = Viewport{}

func (v Viewport) atTop() bool {
	return v.ScrollTop <= 0
}

func (v Viewport) atBottom(tolerance float64) bool {
	return math.Abs(v.ScrollHeight-v.ClientHeight-v.ScrollTop) < tolerance
}

// Router keeps per-client gesture state. It is not safe for concurrent use;
// each connection owns its router.
type Router struct {
	target Target
	cfg    Config
	now    func() time.Time

	lastWheel  time.Time
	touching   bool
	touchStart point
}

type point struct{ x, y float64 }

// NewRouter builds a router over target.
func NewRouter(target Target, cfg Config) *Router {
	return &Router{target: target, cfg: cfg, now: time.Now}
}

// NewRouterWithClock is test-only for deterministic throttling.
func NewRouterWithClock(target Target, cfg Config, now func() time.Time) *Router {
	return &Router{target: target, cfg: cfg, now: now}
}

// KeyResult reports what a key press did.
type KeyResult struct {
	// Handled is set when the key mapped to an action.
	Handled bool
	// PreventDefault is set for keys whose default page scroll must be suppressed.
	PreventDefault bool
	// Copied carries clipboard text for the copy binding.
	Copied string
	// Err is the engine's rejection, e.g. an incomplete multi-select.
	Err error
}

// Key names as produced by browsers (KeyboardEvent.key) and terminals.
var keyAliases = map[string]string{
	"ARROWRIGHT": "RIGHT",
	"ARROWLEFT":  "LEFT",
	"ARROWDOWN":  "DOWN",
	"ARROWUP":    "UP",
	" ":          "SPACE",
	"ESCAPE":     "ESC",
}

func normalizeKey(key string) string {
	if key == " " {
		return "SPACE"
	}
	k := strings.ToUpper(strings.TrimSpace(key))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// HandleKey routes one key press.
func (r *Router) HandleKey(key string) KeyResult {
	k := normalizeKey(key)
	res := KeyResult{}
	switch k {
	case "SPACE", "UP", "DOWN", "LEFT", "RIGHT":
		res.PreventDefault = true
	}

	v := r.target.View()
	if !v.InProgress {
		return res
	}
	if k == "P" && v.Paused {
		res.Handled = true
		res.Err = r.target.Dispatch(engine.Command{Kind: engine.CmdResume})
		return res
	}
	if v.Intro || v.Paused || v.ConfirmationPending {
		return res
	}

	var cmd engine.Command
	switch k {
	case "D", "RIGHT", "SPACE":
		cmd = engine.Command{Kind: engine.CmdNext}
	case "A", "LEFT":
		cmd = engine.Command{Kind: engine.CmdPrev}
	case "S", "DOWN":
		cmd = engine.Command{Kind: engine.CmdToggleExplanation}
	case "O", "0":
		if !v.Question.HasOriginal() {
			return res
		}
		cmd = engine.Command{Kind: engine.CmdToggleOriginal}
	case "P":
		cmd = engine.Command{Kind: engine.CmdPause}
	case "V":
		res.Handled = true
		res.Copied = r.target.CopyText()
		return res
	case "1", "2", "3", "4", "5", "6":
		idx := int(k[0] - '1')
		if idx >= len(v.Options) {
			return res
		}
		cmd = engine.Command{Kind: engine.CmdSelect, Label: v.Options[idx].Label}
	default:
		return res
	}
	res.Handled = true
	res.Err = r.target.Dispatch(cmd)
	return res
}

// gestureLive reports whether gestures may navigate right now.
func gestureLive(v engine.View) bool {
	return v.InProgress && !v.Intro && !v.Paused && !v.ConfirmationPending
}

// HandleWheel routes a wheel event. Only a scroll past the threshold that
// starts at the matching boundary navigates, at most once per cooldown.
// Gestures never submit from the last question.
func (r *Router) HandleWheel(deltaY float64, vp Viewport) (bool, error) {
	v := r.target.View()
	if !gestureLive(v) {
		return false, nil
	}
	now := r.now()
	if !r.lastWheel.IsZero() && now.Sub(r.lastWheel) < r.cfg.WheelCooldown {
		return false, nil
	}

	var cmd engine.Command
	switch {
	case deltaY > r.cfg.WheelThreshold && vp.atBottom(r.cfg.BoundaryTolerance) && !v.IsLast:
		cmd = engine.Command{Kind: engine.CmdNext}
	case deltaY < -r.cfg.WheelThreshold && vp.atTop() && v.Index > 0:
		cmd = engine.Command{Kind: engine.CmdPrev}
	default:
		return false, nil
	}
	r.lastWheel = now
	return true, r.target.Dispatch(cmd)
}

// Feedback is the visual drag offset while a touch is in progress.
type Feedback struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

// TouchStart records the start of a drag.
func (r *Router) TouchStart(x, y float64) {
	r.touching = true
	r.touchStart = point{x: x, y: y}
}

// TouchMove returns the damped offset for the dominant drag axis. Vertical
// feedback only appears when pulling past a scroll boundary.
func (r *Router) TouchMove(x, y float64, vp Viewport) Feedback {
	if !r.touching {
		return Feedback{}
	}
	diffX := r.touchStart.x - x
	diffY := r.touchStart.y - y

	var fb Feedback
	if math.Abs(diffY) > math.Abs(diffX) {
		if (vp.atTop() && diffY < 0) || (vp.atBottom(r.cfg.BoundaryTolerance) && diffY > 0) {
			fb.Vertical = -diffY * r.cfg.VerticalResistance
		}
	}
	if math.Abs(diffX) > math.Abs(diffY) {
		fb.Horizontal = -diffX * r.cfg.HorizontalResistance
	}
	return fb
}

// TouchEnd commits a swipe that crossed the threshold. A leftward swipe goes
// forward and a rightward swipe goes back; vertical swipes only count at the
// matching scroll boundary.
func (r *Router) TouchEnd(x, y float64, vp Viewport) (bool, error) {
	if !r.touching {
		return false, nil
	}
	r.touching = false
	diffX := r.touchStart.x - x
	diffY := r.touchStart.y - y

	v := r.target.View()
	if !gestureLive(v) {
		return false, nil
	}

	forward, backward := false, false
	threshold := r.cfg.SwipeThreshold
	switch {
	case math.Abs(diffX) > math.Abs(diffY) && math.Abs(diffX) > threshold:
		forward = diffX > 0
		backward = diffX < 0
	case math.Abs(diffY) > threshold:
		forward = diffY > 0 && vp.atBottom(r.cfg.BoundaryTolerance)
		backward = diffY < 0 && vp.atTop()
	}

	switch {
	case forward && !v.IsLast:
		return true, r.target.Dispatch(engine.Command{Kind: engine.CmdNext})
	case backward && v.Index > 0:
		return true, r.target.Dispatch(engine.Command{Kind: engine.CmdPrev})
	}
	return false, nil
}

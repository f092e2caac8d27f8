package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-drill-service/internal/domain"
	"exam-drill-service/internal/engine"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testQuestions() []domain.Question {
	opts := []domain.Option{{Label: "A", Text: "one"}, {Label: "B", Text: "two"}, {Label: "C", Text: "three"}}
	return []domain.Question{
		{ID: "q-0", Prompt: "first", Options: opts, CorrectAnswer: "A", OriginalPrompt: "first (original)"},
		{ID: "q-1", Prompt: "second", Options: opts, CorrectAnswer: "BC"},
		{ID: "q-2", Prompt: "third", Options: opts, CorrectAnswer: "C"},
	}
}

func newRouter(t *testing.T, skipIntro bool) (*Router, *engine.Engine, *fakeClock) {
	t.Helper()
	e, err := engine.New(testQuestions(), engine.Options{TimeLimitSeconds: 120, SkipIntro: skipIntro})
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewRouterWithClock(e, DefaultConfig(), clock.now), e, clock
}

func TestKeyBindings(t *testing.T) {
	r, e, _ := newRouter(t, true)

	res := r.HandleKey("2")
	require.True(t, res.Handled)
	assert.Equal(t, "B", e.View().Answer)

	res = r.HandleKey("ArrowDown")
	assert.True(t, res.PreventDefault)
	assert.True(t, e.View().Display.ShowExplanation)

	r.HandleKey("o")
	assert.Equal(t, "first (original)", e.View().Prompt)

	res = r.HandleKey("v")
	assert.Contains(t, res.Copied, "first")

	res = r.HandleKey(" ")
	assert.True(t, res.PreventDefault)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, e.View().Index)
	assert.False(t, e.View().Display.ShowExplanation)

	res = r.HandleKey("0")
	assert.False(t, res.Handled, "no original text on this question")

	r.HandleKey("ArrowLeft")
	assert.Equal(t, 0, e.View().Index)

	res = r.HandleKey("9")
	assert.False(t, res.Handled)
	res = r.HandleKey("ArrowUp")
	assert.True(t, res.PreventDefault)
	assert.False(t, res.Handled)
}

func TestKeyNextSurfacesIncompleteSelection(t *testing.T) {
	r, e, _ := newRouter(t, true)
	r.HandleKey("1")
	r.HandleKey("d")
	require.Equal(t, 1, e.View().Index)

	r.HandleKey("2")
	res := r.HandleKey("right")
	var incomplete *domain.SelectionIncompleteError
	require.ErrorAs(t, res.Err, &incomplete)
	assert.Equal(t, 2, incomplete.Required)
	assert.Equal(t, 1, incomplete.Selected)
}

func TestKeysInertBehindOverlaysExceptResume(t *testing.T) {
	r, e, _ := newRouter(t, false)
	res := r.HandleKey("2")
	assert.False(t, res.Handled)
	assert.Empty(t, e.View().Answer)

	require.NoError(t, e.Start())
	res = r.HandleKey("p")
	require.True(t, res.Handled)
	assert.True(t, e.View().Paused)

	r.HandleKey("d")
	r.HandleKey("1")
	assert.Equal(t, 0, e.View().Index)
	assert.Empty(t, e.View().Answer)

	r.HandleKey("P")
	assert.False(t, e.View().Paused)
}

func TestWheelRequiresBoundaryThresholdAndCooldown(t *testing.T) {
	r, e, clock := newRouter(t, true)
	scrolled := Viewport{ScrollTop: 100, ScrollHeight: 1000, ClientHeight: 500}
	bottom := Viewport{ScrollTop: 499, ScrollHeight: 1000, ClientHeight: 500}
	top := Viewport{ScrollTop: 0, ScrollHeight: 1000, ClientHeight: 500}

	moved, err := r.HandleWheel(50, scrolled)
	require.NoError(t, err)
	assert.False(t, moved, "not at the bottom boundary")

	moved, _ = r.HandleWheel(20, bottom)
	assert.False(t, moved, "below threshold")

	moved, err = r.HandleWheel(50, bottom)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, e.View().Index)

	clock.advance(300 * time.Millisecond)
	moved, _ = r.HandleWheel(-50, top)
	assert.False(t, moved, "throttled")

	clock.advance(400 * time.Millisecond)
	moved, _ = r.HandleWheel(-50, top)
	assert.True(t, moved)
	assert.Equal(t, 0, e.View().Index)
}

func TestWheelNeverSubmitsFromLastQuestion(t *testing.T) {
	r, e, clock := newRouter(t, true)
	require.NoError(t, e.SelectOption("A"))
	require.NoError(t, e.GoNext())
	require.NoError(t, e.SelectOption("B"))
	require.NoError(t, e.SelectOption("C"))
	require.NoError(t, e.GoNext())

	clock.advance(time.Second)
	moved, _ := r.HandleWheel(80, Boundless)
	assert.False(t, moved)
	assert.True(t, e.InProgress())
}

func TestTouchSwipe(t *testing.T) {
	r, e, _ := newRouter(t, true)
	require.NoError(t, e.SelectOption("A"))

	r.TouchStart(300, 200)
	fb := r.TouchMove(250, 210, Boundless)
	assert.InDelta(t, -40, fb.Horizontal, 0.001)
	moved, err := r.TouchEnd(250, 210, Boundless)
	require.NoError(t, err)
	assert.False(t, moved, "below threshold gives feedback only")

	r.TouchStart(300, 200)
	moved, err = r.TouchEnd(150, 220, Boundless)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, e.View().Index)

	r.TouchStart(100, 200)
	moved, _ = r.TouchEnd(250, 190, Boundless)
	assert.True(t, moved)
	assert.Equal(t, 0, e.View().Index)
}

func TestVerticalSwipeOnlyAtBoundary(t *testing.T) {
	r, e, _ := newRouter(t, true)
	require.NoError(t, e.SelectOption("A"))
	middle := Viewport{ScrollTop: 200, ScrollHeight: 1000, ClientHeight: 500}

	r.TouchStart(100, 400)
	fb := r.TouchMove(100, 300, middle)
	assert.Zero(t, fb.Vertical)
	moved, _ := r.TouchEnd(100, 250, middle)
	assert.False(t, moved)

	bottom := Viewport{ScrollTop: 500, ScrollHeight: 1000, ClientHeight: 500}
	r.TouchStart(100, 400)
	fb = r.TouchMove(100, 300, bottom)
	assert.InDelta(t, -50, fb.Vertical, 0.001)
	moved, _ = r.TouchEnd(100, 250, bottom)
	assert.True(t, moved)
	assert.Equal(t, 1, e.View().Index)
}

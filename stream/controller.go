package stream

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/winsx/libavg/anim"
	"github.com/winsx/libavg/logger"
	"github.com/winsx/libavg/metrics"
)

// Phase names the step of the show a Controller is in.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseFadeIn  Phase = "fade-in"
	PhaseSweep   Phase = "sweep"
	PhaseFadeOut Phase = "fade-out"
	PhaseManual  Phase = "manual"
)

// FadeDirection selects the target of a manual fade.
type FadeDirection string

const (
	FadeIn  FadeDirection = "in"
	FadeOut FadeDirection = "out"
)

// Controller that manages animations. It fades the node in, sweeps its
// gradient along the strip, fades it out and starts over.
type Controller struct {
	sched   anim.Scheduler
	opacity anim.Attribute
	offset  anim.Attribute
	opts    ShowOptions
	log     logger.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	running bool
	phase   Phase
	current *anim.Anim
}

// NewController creates an instance of a Controller. The target must have
// opacity and offset attributes.
func NewController(sched anim.Scheduler, target anim.Target, opts ShowOptions,
	log logger.Logger, m *metrics.Metrics) (*Controller, error) {

	opacity, err := anim.Bind(target, anim.OpacityAttr)
	if err != nil {
		return nil, err
	}
	offset, err := anim.Bind(target, OffsetAttr)
	if err != nil {
		return nil, err
	}

	c := new(Controller)
	c.sched = sched
	c.opacity = opacity
	c.offset = offset
	c.opts = opts
	c.log = log
	c.metrics = m
	c.phase = PhaseIdle
	return c, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start begins the cycle with a fade in. Starting a running Controller does
// nothing.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	c.cancelCurrent()
	c.running = true
	if err := c.enter(PhaseFadeIn); err != nil {
		c.running = false
		c.phase = PhaseIdle
		return err
	}
	return nil
}

// Stop cancels the running animation, manual fades included, and ends the
// cycle. It returns false if nothing was running.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := c.running || (c.current != nil && !c.current.Done())
	c.running = false
	c.phase = PhaseIdle
	c.cancelCurrent()
	return active
}

// Fade cancels whatever the controller is animating, halts the cycle and fades
// the opacity in to max or out to 0. Start resumes the cycle.
func (c *Controller) Fade(dir FadeDirection, d time.Duration, max float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var to float64
	switch dir {
	case FadeIn:
		to = max
	case FadeOut:
		to = 0
	default:
		return fmt.Errorf("%w: unknown fade direction %q", anim.ErrInvalidArgument, dir)
	}

	// Validate before touching the running show so a bad request leaves it alone.
	a, err := anim.NewLinearAnim(c.sched, c.opacity, d, c.opacity.Value(), to, nil)
	if err != nil {
		return err
	}

	c.cancelCurrent()
	c.running = false
	c.phase = PhaseManual
	c.current = a
	c.metrics.Animation(metrics.EventStarted)
	c.log.Debug("manual fade", "direction", dir, "duration", d)
	return nil
}

// cancelCurrent cancels the running animation. c.mu must be held.
func (c *Controller) cancelCurrent() {
	if c.current != nil && c.current.Cancel() {
		c.metrics.Animation(metrics.EventCancelled)
	}
	c.current = nil
}

// finished moves the cycle on when *done, the animation that just stopped, is
// still the current one.
func (c *Controller) finished(done **anim.Anim) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || *done == nil || *done != c.current {
		return
	}
	c.metrics.Animation(metrics.EventCompleted)

	var next Phase
	switch c.phase {
	case PhaseFadeIn:
		next = PhaseSweep
	case PhaseSweep:
		next = PhaseFadeOut
	default:
		next = PhaseFadeIn
	}

	if err := c.enter(next); err != nil {
		c.log.Error("show stopped", "phase", next, "err", err)
		c.running = false
		c.phase = PhaseIdle
		c.current = nil
	}
}

// enter starts the animation for phase. c.mu must be held.
func (c *Controller) enter(phase Phase) error {
	var a *anim.Anim
	var err error
	// a is only read under c.mu, which is held until it is assigned.
	onStop := func() { c.finished(&a) }

	switch phase {
	case PhaseFadeIn:
		a, err = anim.NewLinearAnim(c.sched, c.opacity, c.opts.FadeDuration,
			c.opacity.Value(), c.opts.MaxOpacity, onStop)
	case PhaseSweep:
		// Only the fractional offset is visible, so keep it small.
		start := math.Mod(c.offset.Value(), 1)
		a, err = anim.NewSplineAnim(c.sched, c.offset, c.opts.SweepDuration,
			start, c.opts.SweepSpeed, start+c.opts.SweepDistance, c.opts.SweepSpeed, onStop)
	case PhaseFadeOut:
		a, err = anim.NewLinearAnim(c.sched, c.opacity, c.opts.FadeDuration,
			c.opacity.Value(), 0, onStop)
	default:
		return fmt.Errorf("unknown phase %q", phase)
	}
	if err != nil {
		return fmt.Errorf("failed to start %s: %w", phase, err)
	}

	c.log.Debug("show phase", "phase", phase)
	c.metrics.Animation(metrics.EventStarted)
	c.phase = phase
	c.current = a
	return nil
}

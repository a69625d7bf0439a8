// Package anim interpolates a single numeric attribute of a node over a fixed
// duration. Stepping is driven by a host Scheduler; the package never starts
// goroutines of its own.
package anim

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// TickInterval is how often a running animation recomputes its value.
const TickInterval = 10 * time.Millisecond

// A Scheduler provides the timer primitives an animation runs on.
type Scheduler interface {
	Now() time.Time
	SetTimeout(d time.Duration, fn func()) int
	SetInterval(d time.Duration, fn func()) int
	// ClearInterval removes a timer registered with either SetTimeout or
	// SetInterval.
	ClearInterval(id int) bool
}

// An Attribute is a typed accessor for one numeric value on a target.
type Attribute interface {
	Value() float64
	SetValue(v float64)
}

// Accessor adapts a getter/setter pair to an Attribute.
type Accessor struct {
	Get func() float64
	Set func(v float64)
}

func (a Accessor) Value() float64     { return a.Get() }
func (a Accessor) SetValue(v float64) { a.Set(v) }

// Valid reports whether both funcs are set.
func (a Accessor) Valid() bool { return a.Get != nil && a.Set != nil }

// A Curve maps animation progress in [0, 1] to an attribute value.
type Curve interface {
	At(part float64) float64
	End() float64
}

// Anim animates one attribute along a Curve. It is Running from construction
// until its duration elapses or it is cancelled, and Stopped afterwards.
type Anim struct {
	sched    Scheduler
	attr     Attribute
	curve    Curve
	duration time.Duration
	start    time.Time
	onStop   func()

	mu       sync.Mutex
	done     bool
	timeout  int
	interval int
}

// NewLinearAnim animates attr linearly from startValue to endValue.
func NewLinearAnim(s Scheduler, attr Attribute, duration time.Duration,
	startValue, endValue float64, onStop func()) (*Anim, error) {

	if err := checkFinite(startValue, endValue); err != nil {
		return nil, err
	}
	return newAnim(s, attr, duration, NewLinearCurve(startValue, endValue), onStop)
}

// NewSplineAnim animates attr along a cubic Hermite spline between
// (startValue, startSpeed) and (endValue, endSpeed). Speeds are expressed in
// value units per full animation duration.
func NewSplineAnim(s Scheduler, attr Attribute, duration time.Duration,
	startValue, startSpeed, endValue, endSpeed float64, onStop func()) (*Anim, error) {

	if err := checkFinite(startValue, startSpeed, endValue, endSpeed); err != nil {
		return nil, err
	}
	curve := NewSplineCurve(startValue, startSpeed, endValue, endSpeed)
	return newAnim(s, attr, duration, curve, onStop)
}

func newAnim(s Scheduler, attr Attribute, duration time.Duration, curve Curve, onStop func()) (*Anim, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil scheduler", ErrInvalidArgument)
	}
	if attr == nil {
		return nil, fmt.Errorf("%w: nil attribute", ErrInvalidTarget)
	}
	if v, ok := attr.(interface{ Valid() bool }); ok && !v.Valid() {
		return nil, fmt.Errorf("%w: incomplete attribute accessor", ErrInvalidTarget)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %s", ErrInvalidArgument, duration)
	}

	a := &Anim{
		sched:    s,
		attr:     attr,
		curve:    curve,
		duration: duration,
		start:    s.Now(),
		onStop:   onStop,
	}

	// Hold the lock so a callback firing on the scheduler goroutine cannot see
	// the timer ids half-assigned.
	a.mu.Lock()
	a.timeout = s.SetTimeout(duration, a.stop)
	a.interval = s.SetInterval(TickInterval, a.step)
	a.mu.Unlock()

	a.step()
	return a, nil
}

// Done reports whether the animation has stopped or been cancelled.
func (a *Anim) Done() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// Duration returns the configured run time.
func (a *Anim) Duration() time.Duration {
	return a.duration
}

// Cancel stops the animation where it is, releasing both timers. The attribute
// keeps its last stepped value and onStop is not called. Cancel returns true
// only if it stopped a running animation.
func (a *Anim) Cancel() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return false
	}
	a.done = true
	a.sched.ClearInterval(a.interval)
	a.sched.ClearInterval(a.timeout)
	return true
}

func (a *Anim) progress() float64 {
	part := float64(a.sched.Now().Sub(a.start)) / float64(a.duration)
	return math.Max(0, math.Min(1, part))
}

func (a *Anim) step() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done {
		return
	}
	a.attr.SetValue(a.curve.At(a.progress()))
}

func (a *Anim) stop() {
	a.mu.Lock()
	if a.done {
		a.mu.Unlock()
		return
	}
	a.attr.SetValue(a.curve.End())
	a.done = true
	a.sched.ClearInterval(a.interval)
	onStop := a.onStop
	a.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

func checkFinite(values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %v is not finite", ErrInvalidArgument, v)
		}
	}
	return nil
}

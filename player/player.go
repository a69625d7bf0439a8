// Package player is the host event loop that animations run on. It keeps a
// table of one-shot and repeating timers and dispatches the due ones from a
// single goroutine on every frame.
package player

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/winsx/libavg/logger"
	"github.com/winsx/libavg/metrics"
)

type timer struct {
	id       int
	due      time.Time
	interval time.Duration // zero for one-shot timers
	fn       func()
}

// Player implements anim.Scheduler. Timers may be added and cleared from any
// goroutine; callbacks only run on the goroutine calling Poll or Run.
type Player struct {
	clock         clockwork.Clock
	frameInterval time.Duration
	log           logger.Logger
	metrics       *metrics.Metrics

	mu     sync.Mutex
	nextID int
	timers map[int]*timer
}

// New creates a Player that polls its timers every frameInterval.
func New(clock clockwork.Clock, frameInterval time.Duration, log logger.Logger, m *metrics.Metrics) *Player {
	p := new(Player)
	p.clock = clock
	p.frameInterval = frameInterval
	p.log = log
	p.metrics = m
	p.timers = make(map[int]*timer)
	return p
}

// Now returns the current player time.
func (p *Player) Now() time.Time {
	return p.clock.Now()
}

// SetTimeout calls fn once after d.
func (p *Player) SetTimeout(d time.Duration, fn func()) int {
	return p.add(d, 0, fn)
}

// SetInterval calls fn every d until the timer is cleared.
func (p *Player) SetInterval(d time.Duration, fn func()) int {
	if d <= 0 {
		d = time.Nanosecond
	}
	return p.add(d, d, fn)
}

func (p *Player) add(d, interval time.Duration, fn func()) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	t := &timer{
		id:       p.nextID,
		due:      p.clock.Now().Add(d),
		interval: interval,
		fn:       fn,
	}
	p.timers[t.id] = t
	p.metrics.SetTimersActive(len(p.timers))
	return t.id
}

// ClearInterval removes a timeout or interval. It returns false if id is not
// registered.
func (p *Player) ClearInterval(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.timers[id]; !ok {
		return false
	}
	delete(p.timers, id)
	p.metrics.SetTimersActive(len(p.timers))
	return true
}

// Pending returns the number of registered timers.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.timers)
}

// Poll runs every timer due at the current time, earliest first, and returns
// the number of callbacks run. A timer cleared by an earlier callback in the
// same poll is skipped.
func (p *Player) Poll() int {
	now := p.clock.Now()
	fired := 0
	for _, t := range p.due(now) {
		if !p.claim(t, now) {
			continue
		}
		t.fn()
		fired++
	}
	return fired
}

func (p *Player) due(now time.Time) []*timer {
	p.mu.Lock()
	defer p.mu.Unlock()

	var due []*timer
	for _, t := range p.timers {
		if !t.due.After(now) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].id < due[j].id
		}
		return due[i].due.Before(due[j].due)
	})
	return due
}

// claim marks t as fired and reports whether it is still registered.
func (p *Player) claim(t *timer, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timers[t.id] != t {
		return false
	}
	if t.interval == 0 {
		delete(p.timers, t.id)
		p.metrics.SetTimersActive(len(p.timers))
		p.metrics.TimerFired(metrics.KindTimeout)
		return true
	}

	t.due = t.due.Add(t.interval)
	if !t.due.After(now) {
		t.due = now.Add(t.interval)
	}
	p.metrics.TimerFired(metrics.KindInterval)
	return true
}

// Run polls the timers once per frame until ctx is done.
func (p *Player) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.frameInterval)
	defer ticker.Stop()

	p.log.Debug("player started", "frameInterval", p.frameInterval)
	for {
		select {
		case <-ctx.Done():
			p.log.Debug("player stopped", "pending", p.Pending())
			return ctx.Err()
		case <-ticker.Chan():
			p.Poll()
		}
	}
}

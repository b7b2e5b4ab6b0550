package transition

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs deferred transition steps.
//
// Steps mutate the current tree, so a Scheduler must run them while no
// reconciliation pass is reading that tree.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending step. Stop reports whether it prevented the step.
type Timer interface {
	Stop() bool
}

// LoopScheduler waits on real timers and hands due steps to post, which
// must run them on the goroutine that owns the tree.
type LoopScheduler struct {
	post func(func())
}

// NewLoopScheduler returns a scheduler that delivers steps through post.
func NewLoopScheduler(post func(func())) *LoopScheduler {
	return &LoopScheduler{post: post}
}

// Now implements Scheduler.
func (s *LoopScheduler) Now() time.Time { return time.Now() }

// AfterFunc implements Scheduler.
func (s *LoopScheduler) AfterFunc(d time.Duration, f func()) Timer {
	lt := &loopTimer{}
	lt.t = time.AfterFunc(d, func() {
		s.post(func() {
			lt.mu.Lock()
			stopped := lt.stopped
			lt.mu.Unlock()
			if !stopped {
				f()
			}
		})
	})
	return lt
}

// loopTimer also covers steps already posted but not yet run.
type loopTimer struct {
	t       *time.Timer
	mu      sync.Mutex
	stopped bool
}

func (lt *loopTimer) Stop() bool {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	if lt.stopped {
		return false
	}
	lt.stopped = true
	lt.t.Stop()
	return true
}

// VirtualClock is a Scheduler driven by hand. Nothing runs until Advance or
// RunAll is called, and steps run on the caller's goroutine. The HTTP
// reconcile endpoint uses it to lay out a transition timeline without
// waiting; tests use it to step through one.
type VirtualClock struct {
	mu     sync.Mutex
	start  time.Time
	now    time.Duration
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	clock *VirtualClock
	at    time.Duration
	seq   int
	f     func()
	done  bool
}

// NewVirtualClock returns a clock reading start.
func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{start: start}
}

// Now implements Scheduler.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.start.Add(c.now)
}

// Elapsed returns the time advanced so far.
func (c *VirtualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc implements Scheduler.
func (c *VirtualClock) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &virtualTimer{clock: c, at: c.now + d, seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// Pending returns the number of steps not yet run or stopped.
func (c *VirtualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.done {
			n++
		}
	}
	return n
}

// Advance moves the clock forward by d, running due steps in order. Steps
// scheduled by a running step run too if they fall due within d.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	until := c.now + d
	c.mu.Unlock()
	for {
		t := c.next(until)
		if t == nil {
			break
		}
		t.f()
	}
	c.mu.Lock()
	if c.now < until {
		c.now = until
	}
	c.mu.Unlock()
}

// RunAll runs every pending step, including ones they schedule, and
// returns the clock's elapsed time afterwards.
func (c *VirtualClock) RunAll() time.Duration {
	for {
		t := c.next(-1)
		if t == nil {
			return c.Elapsed()
		}
		t.f()
	}
}

// next pops the earliest step due by until (any step when until < 0) and
// moves the clock to it.
func (c *VirtualClock) next(until time.Duration) *virtualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			live = append(live, t)
		}
	}
	c.timers = live
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at != live[j].at {
			return live[i].at < live[j].at
		}
		return live[i].seq < live[j].seq
	})
	t := live[0]
	if until >= 0 && t.at > until {
		return nil
	}
	t.done = true
	if t.at > c.now {
		c.now = t.at
	}
	return t
}

package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// Task is invoked when its entry comes due. now is the scheduler's clock
// reading for the tick that fired it.
type Task func(ctx context.Context, now time.Time)

type entry struct {
	key       string
	due       time.Time
	period    time.Duration
	task      Task
	seq       uint64
	cancelled bool
}

// Scheduler runs one-shot and repeating tasks keyed by a string id. Every
// entity timer in the world lives here so that cancellation and shutdown are
// handled in one place. Tasks only run from Tick.
type Scheduler struct {
	clock Clock

	mu      sync.Mutex
	entries map[string]*entry
	queue   entryQueue
	seq     uint64
}

func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	return &Scheduler{
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Clock returns the clock the scheduler measures time with.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// At schedules task to run once at t. An existing entry under key is replaced.
func (s *Scheduler) At(key string, t time.Time, task Task) {
	s.schedule(key, t, 0, task)
}

// After schedules task to run once after d.
func (s *Scheduler) After(key string, d time.Duration, task Task) {
	s.schedule(key, s.clock.Now().Add(d), 0, task)
}

// Every schedules task to run every period, first firing one period from now.
func (s *Scheduler) Every(key string, period time.Duration, task Task) {
	if period <= 0 {
		panic("scheduler: period must be positive")
	}
	s.schedule(key, s.clock.Now().Add(period), period, task)
}

func (s *Scheduler) schedule(key string, due time.Time, period time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		old.cancelled = true
	}

	s.seq++
	e := &entry{key: key, due: due, period: period, task: task, seq: s.seq}
	s.entries[key] = e
	heap.Push(&s.queue, e)
}

// Cancel stops the entry under key. The heap slot is reclaimed lazily when it
// reaches the front of the queue.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	e.cancelled = true
	delete(s.entries, key)
	return true
}

// CancelAll stops every entry.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		e.cancelled = true
	}
	s.entries = make(map[string]*entry)
	s.queue = nil
}

// Scheduled reports whether key has a live entry.
func (s *Scheduler) Scheduled(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[key]
	return ok
}

// Due returns when key next fires.
func (s *Scheduler) Due(key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return time.Time{}, false
	}
	return e.due, true
}

// Len returns the number of live entries.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Tick runs every entry that is due. Tasks run without the scheduler lock held
// so they may schedule or cancel other entries, including their own.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.clock.Now()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		e := s.popDue(now)
		if e == nil {
			return nil
		}
		e.task(ctx, now)
	}
}

func (s *Scheduler) popDue(now time.Time) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.queue.Len() > 0 {
		e := s.queue[0]
		if e.cancelled {
			heap.Pop(&s.queue)
			continue
		}
		if e.due.After(now) {
			return nil
		}
		heap.Pop(&s.queue)

		if e.period > 0 {
			next := &entry{key: e.key, due: e.due.Add(e.period), period: e.period, task: e.task}
			if !next.due.After(now) {
				next.due = now.Add(e.period)
			}
			s.seq++
			next.seq = s.seq
			s.entries[e.key] = next
			heap.Push(&s.queue, next)
		} else {
			delete(s.entries, e.key)
		}
		return e
	}
	return nil
}

type entryQueue []*entry

func (q entryQueue) Len() int { return len(q) }

func (q entryQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q entryQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *entryQueue) Push(x any) { *q = append(*q, x.(*entry)) }

func (q *entryQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

package boot

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"golang.org/x/sync/errgroup"
)

// Strategy schedules n independent resample tasks. Tasks share no mutable
// state; they read the base dataset and write only their own slot, so a
// strategy may run them in any order and with any interleaving. Run returns
// after every task has completed — there is no cancellation of a task in
// flight, a hung refit blocks its slot.
type Strategy interface {
	Name() string
	Run(ctx context.Context, n int, task func(ctx context.Context, slot int))
}

// Sequential runs all tasks on the calling goroutine, in order. It is the
// default strategy and the fallback when a requested one is unavailable.
type Sequential struct{}

func (Sequential) Name() string { return "sequential" }

func (Sequential) Run(ctx context.Context, n int, task func(ctx context.Context, slot int)) {
	for slot := 0; slot < n; slot++ {
		task(ctx, slot)
	}
}

// Pool distributes tasks across a fixed set of worker goroutines. Work is
// pulled from a shared channel rather than pre-partitioned, so one slow
// refit does not stall a whole batch.
type Pool struct {
	// Workers is the pool size; zero means available cores minus one.
	Workers int
}

func (Pool) Name() string { return "pool" }

func (p Pool) Run(ctx context.Context, n int, task func(ctx context.Context, slot int)) {
	workers := p.Workers
	if workers <= 0 {
		workers = defaultWorkers()
	}
	if workers > n {
		workers = n
	}

	slots := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for slot := range slots {
				task(ctx, slot)
			}
		}()
	}
	for slot := 0; slot < n; slot++ {
		slots <- slot
	}
	close(slots)
	wg.Wait()
}

// defaultWorkers leaves one core for the caller.
func defaultWorkers() int {
	count, err := cpu.Counts(true)
	if err != nil || count <= 1 {
		return 1
	}
	return count - 1
}

// Scheduler is a caller-configured executor for asynchronous tasks. The
// engine only submits work and waits for it; it never configures or owns
// the scheduler's resources.
type Scheduler interface {
	Submit(task func())
}

// External submits each task to a caller-supplied Scheduler and blocks until
// all have completed — a synchronization barrier, no streaming consumption.
type External struct {
	Scheduler Scheduler
}

func (External) Name() string { return "external" }

func (e External) Run(ctx context.Context, n int, task func(ctx context.Context, slot int)) {
	var wg sync.WaitGroup
	wg.Add(n)
	for slot := 0; slot < n; slot++ {
		slot := slot
		e.Scheduler.Submit(func() {
			defer wg.Done()
			task(ctx, slot)
		})
	}
	wg.Wait()
}

// GroupScheduler is a ready-made Scheduler backed by an errgroup with a
// concurrency limit. Callers who want an external scheduler but have no
// runtime of their own can use this.
type GroupScheduler struct {
	group *errgroup.Group
}

// NewGroupScheduler creates a scheduler running at most limit tasks at once.
// A non-positive limit means unlimited.
func NewGroupScheduler(limit int) *GroupScheduler {
	g := new(errgroup.Group)
	if limit > 0 {
		g.SetLimit(limit)
	}
	return &GroupScheduler{group: g}
}

func (s *GroupScheduler) Submit(task func()) {
	s.group.Go(func() error {
		task()
		return nil
	})
}

// Wait blocks until all submitted tasks have finished. The engine's own
// barrier makes this optional, but callers sharing the scheduler with other
// work may still want it.
func (s *GroupScheduler) Wait() {
	_ = s.group.Wait()
}

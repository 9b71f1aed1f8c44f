package pools

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var (
	// ErrPoolClosed is returned by Submit once shutdown has begun
	ErrPoolClosed = errors.New("pools: pool closed")

	// ErrInvalidPoolSize is returned when a pool is built with fewer than one worker
	ErrInvalidPoolSize = errors.New("pools: pool size must be at least 1")

	// ErrNilJob is returned when Submit is handed a nil job
	ErrNilJob = errors.New("pools: nil job")
)

// Job is a unit of work. It runs at most once, on exactly one worker.
type Job func()

// WorkerState is the lifecycle state of a single worker
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerStopped
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerStopped:
		return "stopped"
	default:
		return fmt.Sprintf("WorkerState(%d)", int32(s))
	}
}

// WorkerPoolConfig configures a WorkerPool
type WorkerPoolConfig struct {
	// Size is the fixed number of workers. Must be at least 1.
	Size int

	// Logger receives job panics and lifecycle messages.
	// Defaults to the logrus standard logger.
	Logger logrus.FieldLogger

	// LockOSThread pins every worker goroutine to its own OS thread.
	LockOSThread bool
}

// WorkerPool runs jobs on a fixed set of long-lived workers fed from one
// shared unbounded queue.
//
// Shutdown finishes jobs that are already running but discards jobs that are
// still queued.
type WorkerPool struct {
	numWorkers int
	queue      *jobQueue
	workers    []*worker
	wg         sync.WaitGroup
	closed     atomic.Bool
	log        logrus.FieldLogger

	// Statistics
	stats struct {
		tasksSubmitted atomic.Uint64
		tasksCompleted atomic.Uint64
		tasksPanicked  atomic.Uint64
		tasksDropped   atomic.Uint64
		running        atomic.Int64
	}
}

// worker is one goroutine draining the shared queue
type worker struct {
	id    int
	pool  *WorkerPool
	state atomic.Int32
	lock  bool
}

// NewWorkerPool creates a pool with numWorkers workers, each on its own OS thread
func NewWorkerPool(numWorkers int) (*WorkerPool, error) {
	return NewWorkerPoolWithConfig(WorkerPoolConfig{
		Size:         numWorkers,
		LockOSThread: true,
	})
}

// NewWorkerPoolWithConfig creates and starts a pool from cfg
func NewWorkerPoolWithConfig(cfg WorkerPoolConfig) (*WorkerPool, error) {
	if cfg.Size < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPoolSize, cfg.Size)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	pool := &WorkerPool{
		numWorkers: cfg.Size,
		queue:      newJobQueue(),
		workers:    make([]*worker, cfg.Size),
		log:        cfg.Logger,
	}

	// Create and start workers
	for i := 0; i < cfg.Size; i++ {
		w := &worker{
			id:   i,
			pool: pool,
			lock: cfg.LockOSThread,
		}
		pool.workers[i] = w
		pool.wg.Add(1)
		go w.run()
	}

	pool.log.WithField("workers", cfg.Size).Debug("worker pool started")
	return pool, nil
}

// Submit enqueues job for execution by some worker
func (p *WorkerPool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if p.closed.Load() {
		return ErrPoolClosed
	}

	p.stats.tasksSubmitted.Add(1)
	if !p.queue.push(job) {
		// Lost the race with Shutdown
		p.stats.tasksSubmitted.Add(^uint64(0))
		return ErrPoolClosed
	}
	return nil
}

// run is the main loop for a worker goroutine
func (w *worker) run() {
	defer w.pool.wg.Done()
	defer w.state.Store(int32(WorkerStopped))

	if w.lock {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	for {
		job, ok := w.pool.queue.pop()
		if !ok {
			return // Queue closed
		}

		w.state.Store(int32(WorkerRunning))
		w.pool.stats.running.Add(1)
		w.execute(job)
		w.pool.stats.running.Add(-1)
		w.state.Store(int32(WorkerIdle))
	}
}

// execute runs job, converting a panic into a log entry so the worker survives
func (w *worker) execute(job Job) {
	defer func() {
		if r := recover(); r != nil {
			w.pool.stats.tasksPanicked.Add(1)
			w.pool.log.WithFields(logrus.Fields{
				"worker": w.id,
				"panic":  r,
				"stack":  string(debug.Stack()),
			}).Error("job panicked")
			return
		}
		w.pool.stats.tasksCompleted.Add(1)
	}()

	job()
}

// Shutdown closes the queue, discards queued jobs and waits for every worker
// to finish its current job and exit. It is safe to call more than once but
// must not be called from inside a job.
func (p *WorkerPool) Shutdown() {
	if !p.closed.CompareAndSwap(false, true) {
		p.wg.Wait()
		return // Already closed
	}

	dropped := p.queue.close()
	p.stats.tasksDropped.Add(uint64(dropped))

	p.wg.Wait()

	p.log.WithFields(logrus.Fields{
		"workers": p.numWorkers,
		"dropped": dropped,
	}).Debug("worker pool stopped")
}

// Close implements io.Closer by calling Shutdown
func (p *WorkerPool) Close() error {
	p.Shutdown()
	return nil
}

// Closed reports whether shutdown has begun
func (p *WorkerPool) Closed() bool {
	return p.closed.Load()
}

// Size returns the number of workers
func (p *WorkerPool) Size() int {
	return p.numWorkers
}

// WorkerStates returns a snapshot of every worker's state, indexed by worker id
func (p *WorkerPool) WorkerStates() []WorkerState {
	states := make([]WorkerState, len(p.workers))
	for i, w := range p.workers {
		states[i] = WorkerState(w.state.Load())
	}
	return states
}

// Stats returns pool statistics
func (p *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:     p.numWorkers,
		TasksSubmitted: p.stats.tasksSubmitted.Load(),
		TasksCompleted: p.stats.tasksCompleted.Load(),
		TasksPanicked:  p.stats.tasksPanicked.Load(),
		TasksDropped:   p.stats.tasksDropped.Load(),
		TasksRunning:   int(p.stats.running.Load()),
		TasksPending:   p.queue.len(),
	}
}

// WorkerPoolStats contains pool statistics
type WorkerPoolStats struct {
	NumWorkers     int
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksPanicked  uint64
	TasksDropped   uint64
	TasksRunning   int
	TasksPending   int
}

// Fields renders the stats as log fields
func (s WorkerPoolStats) Fields() logrus.Fields {
	return logrus.Fields{
		"workers":   s.NumWorkers,
		"submitted": s.TasksSubmitted,
		"completed": s.TasksCompleted,
		"panicked":  s.TasksPanicked,
		"dropped":   s.TasksDropped,
		"running":   s.TasksRunning,
		"pending":   s.TasksPending,
	}
}

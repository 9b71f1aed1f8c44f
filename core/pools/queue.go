package pools

import "sync"

// jobQueue is the unbounded FIFO shared by all workers.
// push and pop are serialized by mu; pop blocks on cond until a job arrives or
// the queue is closed.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []Job
	head   int
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push enqueues job. It reports false if the queue is already closed.
func (q *jobQueue) push(job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.jobs = append(q.jobs, job)
	q.cond.Signal()
	return true
}

// pop blocks until a job is available. ok is false once the queue is closed.
func (q *jobQueue) pop() (job Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == len(q.jobs) && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return nil, false
	}

	job = q.jobs[q.head]
	q.jobs[q.head] = nil
	q.head++

	// Reclaim the backing array once it has been drained
	if q.head == len(q.jobs) {
		q.jobs = q.jobs[:0]
		q.head = 0
	}
	return job, true
}

// close marks the queue closed, discards whatever is still queued and wakes
// every waiting worker. It returns the number of discarded jobs.
func (q *jobQueue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}
	q.closed = true

	dropped := len(q.jobs) - q.head
	q.jobs = nil
	q.head = 0
	q.cond.Broadcast()
	return dropped
}

// len returns the number of queued jobs
func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs) - q.head
}

package pool

import "fanout/internal/job"

// Queue is a single-producer, multi-consumer queue of jobs. It is filled and
// closed on construction, so consumers never block waiting for more work.
type Queue struct {
	ch chan job.Job
}

// NewQueue enqueues every job and closes the queue.
func NewQueue(jobs []job.Job) *Queue {
	ch := make(chan job.Job, len(jobs))
	for _, j := range jobs {
		ch <- j
	}
	close(ch)
	return &Queue{ch: ch}
}

// Next hands out the next job. ok is false once the queue is exhausted.
// Each job is handed out exactly once.
func (q *Queue) Next() (j job.Job, ok bool) {
	j, ok = <-q.ch
	return j, ok
}

// Len returns the number of jobs not yet handed out.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package rest

import (
	"errors"
	"sync"
)

const defaultQueueSize = 64

// submitQueue delivers logging calls to the backend from a single background
// goroutine, so that callers return before network confirmation. Failures are
// collected and surfaced on the next flush.
type submitQueue struct {
	jobs    chan func() error
	pending sync.WaitGroup

	lock     sync.Mutex
	failures []error
}

func newSubmitQueue(size int) *submitQueue {
	queue := &submitQueue{
		jobs: make(chan func() error, size),
	}

	go queue.run()
	return queue
}

func (q *submitQueue) run() {
	for job := range q.jobs {
		if err := job(); err != nil {
			q.lock.Lock()
			q.failures = append(q.failures, err)
			q.lock.Unlock()
		}
		q.pending.Done()
	}
}

func (q *submitQueue) enqueue(job func() error) {
	q.pending.Add(1)
	q.jobs <- job
}

// flush waits for every queued job to complete and returns the collected
// failures, clearing them for the next batch.
func (q *submitQueue) flush() error {
	q.pending.Wait()

	q.lock.Lock()
	defer q.lock.Unlock()
	err := errors.Join(q.failures...)
	q.failures = nil
	return err
}

// stop ends the background goroutine. The queue must be flushed first.
func (q *submitQueue) stop() {
	close(q.jobs)
}

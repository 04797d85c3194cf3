// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package tasks runs analyses detached from the HTTP response. Handlers
// enqueue a job and return immediately; outcomes are published on a
// results channel so failures are observable instead of swallowed.
package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrQueueFull is returned when the job buffer has no room.
var ErrQueueFull = errors.New("analysis queue is full")

// ErrClosed is returned when enqueueing on a closed runner.
var ErrClosed = errors.New("runner is closed")

// Job is one queued analysis request.
type Job struct {
	ID     string
	URL    string
	UserID int64
}

// JobResult reports the outcome of a finished job.
type JobResult struct {
	Job Job
	Err error
}

// AnalyzeFunc performs the actual work for one job.
type AnalyzeFunc func(ctx context.Context, url string, userID int64) error

// Runner executes jobs on a single worker goroutine.
type Runner struct {
	analyze AnalyzeFunc
	jobs    chan Job
	results chan JobResult
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a runner with the given job buffer and starts its
// worker.
func NewRunner(analyze AnalyzeFunc, buffer int) *Runner {
	r := &Runner{
		analyze: analyze,
		jobs:    make(chan Job, buffer),
		results: make(chan JobResult, buffer),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Runner) loop() {
	defer close(r.done)
	defer close(r.results)

	for job := range r.jobs {
		// Background work is deliberately detached from the request
		// context; only the per-call HTTP timeout bounds it.
		err := r.analyze(context.Background(), job.URL, job.UserID)
		r.results <- JobResult{Job: job, Err: err}
	}
}

// Enqueue schedules an analysis and returns its job id without waiting
// for the work.
func (r *Runner) Enqueue(url string, userID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", ErrClosed
	}

	job := Job{ID: uuid.NewString(), URL: url, UserID: userID}
	select {
	case r.jobs <- job:
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

// Results exposes finished job outcomes. The channel closes when the
// runner shuts down.
func (r *Runner) Results() <-chan JobResult {
	return r.results
}

// Close stops accepting jobs and waits for the worker to drain.
func (r *Runner) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()

	<-r.done
}

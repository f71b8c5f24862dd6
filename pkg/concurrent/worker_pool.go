package concurrent

import (
	"sync"
)

type Job[T any] struct {
	ID      int
	JobItem T
}

type JobFunc[T any, G any] func(job T) G

// WorkerPool runs a fixed batch of jobs on a fixed number of goroutines. Usage: AddJob for every
// job, Close, Start, Wait, then drain CollectResults.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan G
	wg         sync.WaitGroup
	jobCount   int
}

// NewWorkerPool numJobs bounds the number of jobs that can be added.
func NewWorkerPool[T any, G any](numWorkers, numJobs int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], numJobs),
		results:    make(chan G, numJobs),
	}
}

func (wp *WorkerPool[T, G]) worker(jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		wp.results <- jobFunc(job.JobItem)
	}
}

func (wp *WorkerPool[T, G]) Start(jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(jobFunc)
	}
}

func (wp *WorkerPool[T, G]) AddJob(item T) {
	wp.jobQueue <- Job[T]{ID: wp.jobCount, JobItem: item}
	wp.jobCount++
}

// Close must be called after the last AddJob, workers stop once the queue is drained.
func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Wait blocks until every job is done and closes the results channel.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan G {
	return wp.results
}

package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pthm-cable/flock/config"
)

// defaultParallelThreshold is the minimum item count to use the worker pool.
// Below this, running inline is faster than goroutine handoff.
const defaultParallelThreshold = 256

// ErrTaskFailed is wrapped by every error reported for a failed chunk.
var ErrTaskFailed = errors.New("parallel task failed")

// ErrPhaseInFlight is returned by Submit when the previous phase has not been waited on.
var ErrPhaseInFlight = errors.New("previous phase not waited on")

// ChunkFunc processes items [begin, end). worker identifies the goroutine
// running the chunk and is stable for the pool's lifetime, so it can index
// per-worker scratch buffers.
type ChunkFunc func(worker, begin, end int)

// TaskError describes a chunk that panicked.
type TaskError struct {
	Phase      string
	Begin, End int
	Value      any
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: chunk [%d,%d) panicked: %v", e.Phase, e.Begin, e.End, e.Value)
}

func (e *TaskError) Unwrap() error { return ErrTaskFailed }

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	phase      string
	begin, end int
	fn         ChunkFunc
}

// Scheduler runs barrier-separated parallel-for phases on a persistent pool.
// Each Submit splits [0, n) into at most one chunk per worker so every index
// belongs to exactly one chunk; Wait blocks until all of them finished.
type Scheduler struct {
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan error     // workers report completion (nil) or failure
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running

	pending int   // chunks dispatched but not yet collected
	err     error // first failure of the current phase
}

// NewScheduler creates a scheduler with the given worker count (capped at
// the number of CPUs) and inline threshold (<= 0 uses the default).
func NewScheduler(workers, threshold int) *Scheduler {
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &Scheduler{
		numWorkers: config.EffectiveWorkers(workers),
		threshold:  threshold,
	}
}

// Workers returns the number of worker goroutines.
func (s *Scheduler) Workers() int {
	return s.numWorkers
}

// startWorkers launches persistent worker goroutines.
func (s *Scheduler) startWorkers() {
	if s.running {
		return
	}

	s.workChan = make(chan workChunk, s.numWorkers)
	s.doneChan = make(chan error, s.numWorkers)
	s.stopChan = make(chan struct{})
	s.running = true

	for i := 0; i < s.numWorkers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

// Stop signals all workers to exit and waits for them.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}

	close(s.stopChan)
	s.wg.Wait()
	s.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopChan:
			return
		case chunk := <-s.workChan:
			s.doneChan <- runChunk(id, chunk)
		}
	}
}

// runChunk executes one chunk, converting a panic into a TaskError.
func runChunk(worker int, chunk workChunk) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &TaskError{Phase: chunk.phase, Begin: chunk.begin, End: chunk.end, Value: r}
		}
	}()
	chunk.fn(worker, chunk.begin, chunk.end)
	return nil
}

// Submit starts a phase over [0, n). Small phases run inline before Submit
// returns. The phase is complete only after Wait.
func (s *Scheduler) Submit(phase string, n int, fn ChunkFunc) error {
	if s.pending > 0 {
		return ErrPhaseInFlight
	}
	if n <= 0 {
		return nil
	}

	if n < s.threshold || s.numWorkers == 1 {
		if err := runChunk(0, workChunk{phase: phase, begin: 0, end: n, fn: fn}); err != nil && s.err == nil {
			s.err = err
		}
		return nil
	}

	// Ensure workers are running
	if !s.running {
		s.startWorkers()
	}

	chunkSize := (n + s.numWorkers - 1) / s.numWorkers
	for begin := 0; begin < n; begin += chunkSize {
		end := min(begin+chunkSize, n)
		s.workChan <- workChunk{phase: phase, begin: begin, end: end, fn: fn}
		s.pending++
	}
	return nil
}

// Wait blocks until every chunk of the current phase completed and returns
// the first failure, if any.
func (s *Scheduler) Wait() error {
	for ; s.pending > 0; s.pending-- {
		if err := <-s.doneChan; err != nil && s.err == nil {
			s.err = err
		}
	}
	err := s.err
	s.err = nil
	return err
}

// Run submits a phase and waits for it.
func (s *Scheduler) Run(phase string, n int, fn ChunkFunc) error {
	if err := s.Submit(phase, n, fn); err != nil {
		return err
	}
	return s.Wait()
}

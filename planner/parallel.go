package planner

import (
	"runtime"
	"sync"
)

// sequentialThreshold is the population size below which goroutine overhead
// outweighs parallel evaluation.
const sequentialThreshold = 16

// evalChunk is a population range for one worker.
type evalChunk struct {
	start, end int
}

// evaluator scores a population, fanning out over a worker pool.
// Scoring is a pure function of the chromosome, so results do not depend on
// the number of workers.
type evaluator struct {
	score      func(Chromosome) (float64, error)
	numWorkers int

	pop     []Chromosome
	fitness []float64
	errs    []error

	workChan chan evalChunk
	doneChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newEvaluator(workers int, score func(Chromosome) (float64, error)) *evaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &evaluator{score: score, numWorkers: workers}
}

func (e *evaluator) start() {
	if e.running || e.numWorkers < 2 {
		return
	}
	e.workChan = make(chan evalChunk, e.numWorkers)
	e.doneChan = make(chan struct{}, e.numWorkers)
	e.running = true
	for i := 0; i < e.numWorkers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
}

// stop shuts the pool down and waits for the workers to exit.
func (e *evaluator) stop() {
	if !e.running {
		return
	}
	close(e.workChan)
	e.wg.Wait()
	close(e.doneChan)
	e.running = false
}

func (e *evaluator) worker() {
	defer e.wg.Done()
	for chunk := range e.workChan {
		e.computeChunk(chunk.start, chunk.end)
		e.doneChan <- struct{}{}
	}
}

func (e *evaluator) computeChunk(start, end int) {
	for i := start; i < end; i++ {
		e.fitness[i], e.errs[i] = e.score(e.pop[i])
	}
}

// evaluate returns the fitness of every chromosome, or the first error in
// population order.
func (e *evaluator) evaluate(pop []Chromosome) ([]float64, error) {
	n := len(pop)
	e.pop = pop
	if cap(e.fitness) < n {
		e.fitness = make([]float64, n)
		e.errs = make([]error, n)
	}
	e.fitness = e.fitness[:n]
	e.errs = e.errs[:n]

	if e.numWorkers < 2 || n < sequentialThreshold {
		e.computeChunk(0, n)
	} else {
		e.start()
		chunkSize := (n + e.numWorkers - 1) / e.numWorkers
		dispatched := 0
		for w := 0; w < e.numWorkers; w++ {
			start := w * chunkSize
			end := min(start+chunkSize, n)
			if start >= end {
				continue
			}
			e.workChan <- evalChunk{start: start, end: end}
			dispatched++
		}
		for i := 0; i < dispatched; i++ {
			<-e.doneChan
		}
	}

	for _, err := range e.errs {
		if err != nil {
			return nil, err
		}
	}
	out := make([]float64, n)
	copy(out, e.fitness)
	return out, nil
}

package batch

import "sync"

// Executor runs submitted functions and lets the caller wait for all of them.
// Submit may block until the executor has capacity.
type Executor interface {
	Submit(fn func())
	Wait()
}

// Pool runs at most n functions at once on their own goroutines.
type Pool struct {
	workers chan struct{}
	wg      sync.WaitGroup
}

func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}

	return &Pool{workers: make(chan struct{}, n)}
}

func (p *Pool) Submit(fn func()) {
	p.workers <- struct{}{}
	p.wg.Add(1)

	go func() {
		defer func() {
			<-p.workers
			p.wg.Done()
		}()

		fn()
	}()
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

// Serial runs every function inline on the submitting goroutine.
type Serial struct{}

func (Serial) Submit(fn func()) {
	fn()
}

func (Serial) Wait() {}

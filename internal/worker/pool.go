// Package worker runs best-effort background jobs, such as removing images
// of deleted posts, off the request path.
package worker

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/baharkarakas/campus-lostfound/internal/metrics"
)

type Task func()

const queueSize = 1024

type Pool struct {
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
	jobs   chan Task
	log    *slog.Logger
}

func NewPool(n int, log *slog.Logger) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{jobs: make(chan Task, queueSize), log: log}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
				p.run(job)
			}
		}()
	}
	return p
}

func (p *Pool) run(job Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker job panicked", "panic", fmt.Sprint(r))
		}
	}()
	job()
}

// Submit queues f. It reports false, without blocking, when the pool is
// stopped or the queue is full; the caller decides what to do then.
func (p *Pool) Submit(f Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- f:
		metrics.WorkerQueueDepth.Set(float64(len(p.jobs)))
		return true
	default:
		return false
	}
}

// Stop drains queued jobs and waits for them. Safe to call twice.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
	metrics.WorkerQueueDepth.Set(0)
}

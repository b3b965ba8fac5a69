package worker

import (
	"log/slog"
	"sync"

	"support-feed/internal/metrics"
)

// Job is a fire-and-forget unit of work.
type Job func()

// Pool runs jobs on a fixed number of goroutines fed by a bounded queue.
// Submit never blocks: when the queue is full the job is dropped.
type Pool struct {
	name string
	log  *slog.Logger
	jobs chan Job

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	workers int
	running bool
}

func NewPool(name string, log *slog.Logger, workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		name:    name,
		log:     log,
		jobs:    make(chan Job, queueSize),
		stopCh:  make(chan struct{}),
		workers: workerCount,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.log.Info("Starting worker pool", "pool", p.name, "workers", p.workers)
	p.running = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop(p.stopCh)
	}
}

func (p *Pool) loop(stopCh chan struct{}) {
	defer p.wg.Done()
	metrics.WorkerActive.WithLabelValues(p.name).Add(1)
	defer metrics.WorkerActive.WithLabelValues(p.name).Sub(1)

	for {
		select {
		case <-stopCh:
			return
		case job := <-p.jobs:
			p.run(job)
		}
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Worker job panicked", "pool", p.name, "panic", r)
			metrics.WorkerProcessed.WithLabelValues(p.name, "panic").Inc()
		}
	}()
	job()
	metrics.WorkerProcessed.WithLabelValues(p.name, "ok").Inc()
}

// Submit enqueues job and reports whether it was accepted.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	if !running || job == nil {
		metrics.WorkerDropped.WithLabelValues(p.name).Inc()
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		metrics.WorkerDropped.WithLabelValues(p.name).Inc()
		p.log.Debug("Worker queue full, job dropped", "pool", p.name)
		return false
	}
}

// Stop halts the workers and waits for in-flight jobs. Queued jobs stay in the
// queue and run if the pool is started again.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Info("Stopped worker pool", "pool", p.name)
}

// SetWorkerCount updates the pool to use a new concurrency level
func (p *Pool) SetWorkerCount(n int) {
	p.mu.Lock()
	if n <= 0 || n == p.workers {
		p.mu.Unlock()
		return
	}
	p.log.Info("Rescaling worker pool", "pool", p.name, "from", p.workers, "to", n)
	wasRunning := p.running
	p.mu.Unlock()

	p.Stop()

	p.mu.Lock()
	p.workers = n
	p.stopCh = make(chan struct{})
	p.mu.Unlock()

	if wasRunning {
		p.Start()
	}
}

func (p *Pool) WorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}

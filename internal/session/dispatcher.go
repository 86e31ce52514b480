package session

import (
	"sync"

	"jee-solver/pkg/logger"
)

type task struct {
	name string
	fn   func()
}

// Dispatcher runs fire-and-forget side effects on a fixed pool of workers.
// Tasks carry no ordering guarantee relative to each other.
type Dispatcher struct {
	tasks  chan task
	wg     sync.WaitGroup
	log    *logger.Logger
	mu     sync.RWMutex
	closed bool
}

func NewDispatcher(workers, queueSize int, log *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	d := &Dispatcher{
		tasks: make(chan task, queueSize),
		log:   log,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("dispatched task panicked", "task", t.name, "panic", r)
		}
	}()
	t.fn()
}

// Submit enqueues fn without blocking. It returns false when the queue is
// full or the dispatcher is closed; the task is dropped in that case.
func (d *Dispatcher) Submit(name string, fn func()) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatcher closed, dropping task", "task", name)
		return false
	}
	select {
	case d.tasks <- task{name: name, fn: fn}:
		return true
	default:
		d.log.Warn("dispatcher queue full, dropping task", "task", name)
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()
	d.wg.Wait()
}

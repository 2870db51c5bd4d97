package matcher

import "sync"

type WorkerPool struct {
	bus  chan func()
	stop chan struct{}
	wg   sync.WaitGroup

	once sync.Once
}

func NewWorkerPool() *WorkerPool {
	return &WorkerPool{
		stop: make(chan struct{}),
		bus:  make(chan func()),
	}
}

func (wp *WorkerPool) Start(workers int) {
	wp.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wp.wg.Done()
			for {
				select {
				case job := <-wp.bus:
					job()
				case <-wp.stop:
					return
				}
			}
		}()
	}
}

// Queue blocks until a worker picks job up. It returns ErrStopped once the
// pool has been stopped.
func (wp *WorkerPool) Queue(job func()) error {
	select {
	case wp.bus <- job:
		return nil
	case <-wp.stop:
		return ErrStopped
	}
}

func (wp *WorkerPool) Stop() {
	wp.once.Do(func() {
		close(wp.stop)
		wp.wg.Wait()
	})
}

package straighten

import (
	"runtime"
	"sync"
)

// pool fans jobs out over a fixed number of workers.
type pool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &pool{jobs: make(chan func(), workers*2)}
	for i := 0; i < workers; i++ {
		go func() {
			for job := range p.jobs {
				job()
				p.wg.Done()
			}
		}()
	}
	return p
}

func (p *pool) submit(job func()) {
	p.wg.Add(1)
	p.jobs <- job
}

// wait blocks until all submitted jobs finish, then stops the workers.
func (p *pool) wait() {
	p.wg.Wait()
	close(p.jobs)
}

package raster

import "sync"

// Pool recycles sample slices by length to take pressure off the garbage
// collector when the same page size is processed repeatedly.
type Pool struct {
	pools map[int]*sync.Pool
	mu    sync.RWMutex
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{pools: make(map[int]*sync.Pool)}
}

// Get returns a zeroed slice of exactly n bytes.
func (p *Pool) Get(n int) []byte {
	p.mu.RLock()
	pool, exists := p.pools[n]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[n]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return make([]byte, n)
				},
			}
			p.pools[n] = pool
		}
		p.mu.Unlock()
	}

	s := pool.Get().([]byte)
	clear(s)
	return s
}

// Put hands a slice back for reuse.
func (p *Pool) Put(s []byte) {
	if len(s) == 0 {
		return
	}
	p.mu.RLock()
	pool, exists := p.pools[len(s)]
	p.mu.RUnlock()

	if exists {
		pool.Put(s)
	}
}

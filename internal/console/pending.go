package console

import "sync"

// Pending allows one in-flight call per action key. Unrelated keys run
// concurrently.
type Pending struct {
	mu     sync.Mutex
	active map[string]struct{}
}

// Run executes fn unless key is already running, in which case it returns
// ErrActionPending without calling fn.
func (p *Pending) Run(key string, fn func() error) error {
	p.mu.Lock()
	if p.active == nil {
		p.active = make(map[string]struct{})
	}
	if _, busy := p.active[key]; busy {
		p.mu.Unlock()
		return ErrActionPending
	}
	p.active[key] = struct{}{}
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.active, key)
		p.mu.Unlock()
	}()
	return fn()
}

// Busy reports whether key is running; a UI disables its control while true.
func (p *Pending) Busy(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, busy := p.active[key]
	return busy
}

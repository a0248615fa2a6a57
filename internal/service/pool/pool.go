// Package pool bounds how many client sessions run at the same time.
package pool

import "context"

const maxSlots = 128

// Pool is a counting semaphore of session slots.
type Pool struct {
	sem chan struct{}
}

// New creates a pool with at least one slot and at most 128 slots.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	if size > maxSlots {
		size = maxSlots
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Acquire reserves one session slot.
// If every slot is taken it blocks until one is released
// or the context is canceled, in which case it returns ctx.Err().
func (p *Pool) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (p *Pool) Release() {
	<-p.sem
}

// Cap returns the number of slots.
func (p *Pool) Cap() int { return cap(p.sem) }

// InUse returns the number of slots currently held.
func (p *Pool) InUse() int { return len(p.sem) }

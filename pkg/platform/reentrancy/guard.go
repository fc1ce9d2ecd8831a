// Package reentrancy provides a non-blocking mutual-exclusion guard for
// operations that perform external effects mid-flight. Unlike a mutex, a
// second entry while the guard is held is an error, not a wait: proposal
// execution and treasury transfers must fail fast rather than queue behind
// an in-progress external call.
package reentrancy

import (
	"sync/atomic"

	dErrors "zkdao/pkg/domain-errors"
)

// Guard is a single-entry latch. The zero value is ready to use.
type Guard struct {
	locked atomic.Bool
}

// New returns an unlocked guard.
func New() *Guard {
	return &Guard{}
}

// Acquire takes the guard, returning a release function. The release function
// is idempotent and must be called on every path, including error returns.
//
// Errors: returns CodeReentrantCall when the guard is already held.
func (g *Guard) Acquire() (release func(), err error) {
	if !g.locked.CompareAndSwap(false, true) {
		return nil, dErrors.New(dErrors.CodeReentrantCall, "operation already in progress")
	}
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			g.locked.Store(false)
		}
	}, nil
}

package reentrancy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "zkdao/pkg/domain-errors"
)

func TestGuard_SecondAcquireFails(t *testing.T) {
	g := New()

	release, err := g.Acquire()
	require.NoError(t, err)

	_, err = g.Acquire()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeReentrantCall))

	release()

	release2, err := g.Acquire()
	require.NoError(t, err)
	release2()
}

func TestGuard_ReleaseIsIdempotent(t *testing.T) {
	g := New()

	release, err := g.Acquire()
	require.NoError(t, err)

	release()
	release() // second call must not unlock a subsequent holder

	release2, err := g.Acquire()
	require.NoError(t, err)

	_, err = g.Acquire()
	require.Error(t, err, "stale release must not have freed the guard")

	release2()
}

func TestGuard_ConcurrentAcquire_ExactlyOneWinner(t *testing.T) {
	g := New()

	const attempts = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, losses int
	var releases []func()

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				losses++
				return
			}
			wins++
			releases = append(releases, release)
		}()
	}
	wg.Wait()

	// Releases are deferred past the race so a winner freeing the guard
	// cannot hand it to a second winner mid-test.
	for _, release := range releases {
		release()
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, losses)
}

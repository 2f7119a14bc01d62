// Package faults implements the fault-injection policy.
//
// All randomized failure simulation goes through this single seam so tests
// can substitute a deterministic policy.
package faults

import (
	"math/rand/v2"
	"sync"
)

// Policy decides whether an operation should simulate failure. When the
// per-identity flag is off it never fails; when on it fails with 50%
// probability, sampled independently per call.
type Policy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a policy seeded from seed. Seed zero picks a random seed.
func New(seed uint64) *Policy {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Policy{rng: rand.New(rand.NewPCG(seed, seed))}
}

// ShouldFail reports whether the current operation should be degraded.
// Safe for concurrent use.
func (p *Policy) ShouldFail(enabled bool) bool {
	if !enabled {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(2) == 1
}

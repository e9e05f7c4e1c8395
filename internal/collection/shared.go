// file: internal/collection/shared.go
// version: 1.0.0
// guid: c63e0b97-12f4-4d8e-9a5b-7e1d3c0f6a28

package collection

import (
	"log"
	"sync"
)

var shared struct {
	mu   sync.Mutex
	repo *Repository
	refs int
}

// Acquire returns the process-wide repository, creating it with provider on
// first use. Later callers share the existing instance and provider is
// ignored. Every Acquire must be paired with a Release.
func Acquire(provider Provider) *Repository {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.repo == nil {
		shared.repo = New(provider)
		log.Printf("[DEBUG] Created shared collection repository")
	}
	shared.refs++
	return shared.repo
}

// Release drops one reference to the shared repository. When the last
// reference is released the instance is discarded and the next Acquire
// starts fresh.
func Release() {
	shared.mu.Lock()
	defer shared.mu.Unlock()

	if shared.refs == 0 {
		return
	}
	shared.refs--
	if shared.refs == 0 {
		shared.repo = nil
		log.Printf("[DEBUG] Released shared collection repository")
	}
}

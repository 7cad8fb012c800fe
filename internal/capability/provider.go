// Package capability selects between a real implementation of an optional
// feature and its deterministic fallback. The choice is made once per
// Provider and remembered until Reset.
package capability

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Loader builds the real implementation of a capability
type Loader[T any] func() (T, error)

// Provider memoizes the outcome of a Loader
type Provider[T any] struct {
	name     string
	load     Loader[T]
	fallback T
	logger   zerolog.Logger

	mu       sync.Mutex
	resolved bool
	value    T
	real     bool
	loadErr  error
}

// NewProvider creates a provider that is resolved lazily on first Get
func NewProvider[T any](name string, load Loader[T], fallback T) *Provider[T] {
	return &Provider[T]{
		name:     name,
		load:     load,
		fallback: fallback,
		logger:   log.With().Str("component", "capability").Str("capability", name).Logger(),
	}
}

// Get returns the selected implementation and whether it is the real one.
// A failed load is remembered and the fallback is returned from then on.
func (p *Provider[T]) Get() (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.resolved {
		p.resolve()
	}
	return p.value, p.real
}

// Name returns the capability name used in logs and health reports
func (p *Provider[T]) Name() string {
	return p.name
}

// Available resolves the provider and reports whether the real implementation is in use
func (p *Provider[T]) Available() bool {
	_, real := p.Get()
	return real
}

// Err returns the load error, if the capability was resolved to its fallback
func (p *Provider[T]) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

// Reset forgets the previous outcome so the next Get loads again
func (p *Provider[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	p.resolved = false
	p.value = zero
	p.real = false
	p.loadErr = nil
}

func (p *Provider[T]) resolve() {
	p.resolved = true

	if p.load == nil {
		p.value = p.fallback
		p.logger.Info().Msg("capability disabled, using fallback")
		return
	}

	value, err := p.load()
	if err != nil {
		p.value = p.fallback
		p.loadErr = err
		p.logger.Warn().Err(err).Msg("capability unavailable, using fallback")
		return
	}

	p.value = value
	p.real = true
	p.logger.Info().Msg("capability loaded")
}

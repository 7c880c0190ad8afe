package capability

import (
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// Registry holds the providers that initialized successfully, in a fixed
// order. Built once at process start; read-only afterwards.
type Registry struct {
	providers []contractx.Provider
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a constructed provider. Call with the result of a provider
// constructor; on constructor error call Skip instead.
func (r *Registry) Add(p contractx.Provider) *Registry {
	if p != nil {
		r.providers = append(r.providers, p)
		log.Info().Str("provider", p.Name()).Int("operations", len(p.Operations())).
			Msg("capability provider registered")
	}
	return r
}

// Skip records a provider that could not initialize. Its operations are
// simply never advertised; nothing is surfaced per-request.
func (r *Registry) Skip(name string, err error) *Registry {
	log.Warn().Str("provider", name).Err(err).
		Msg("capability provider unavailable, excluded from catalog")
	return r
}

// Providers returns the registered providers in registration order.
func (r *Registry) Providers() []contractx.Provider {
	return r.providers
}

// Has reports whether a provider with the given name is registered.
func (r *Registry) Has(name string) bool {
	for _, p := range r.providers {
		if strings.EqualFold(p.Name(), name) {
			return true
		}
	}
	return false
}

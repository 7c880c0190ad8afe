// Package catalog derives the per-request tool catalog from the set of
// initialized capability providers. The catalog and the dispatch table are
// built from the same operation list, so every advertised name has a
// registered handler by construction.
package catalog

import (
	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// Dispatch maps tool names to their bound handlers for one request.
type Dispatch map[string]contractx.Handler

// Build walks the providers in registry order and collects one descriptor
// per operation. A provider that was never constructed contributes nothing;
// absence is the sole admission-control mechanism. Cheap, stateless, rebuilt
// per request.
func Build(providers []contractx.Provider) ([]contractx.ToolDescriptor, Dispatch) {
	var descriptors []contractx.ToolDescriptor
	dispatch := make(Dispatch)

	for _, provider := range providers {
		if provider == nil {
			continue
		}
		for _, op := range provider.Operations() {
			if op.Descriptor.Name == "" || op.Handler == nil {
				continue
			}
			if _, dup := dispatch[op.Descriptor.Name]; dup {
				continue
			}
			descriptors = append(descriptors, op.Descriptor)
			dispatch[op.Descriptor.Name] = op.Handler
		}
	}
	return descriptors, dispatch
}

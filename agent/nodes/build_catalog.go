package nodes

import (
	"fmt"

	catalogx "github.com/johnfletcher78/antigravity-agent/agent/catalog"
	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// BuildCatalog regenerates the tool catalog and its dispatch table for this
// request. Provider availability is process-lifetime-stable but the catalog
// itself is stateless and cheap.
func BuildCatalog(in *GraphState, providers []contractx.Provider) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Catalog, in.Dispatch = catalogx.Build(providers)
	return in, nil
}

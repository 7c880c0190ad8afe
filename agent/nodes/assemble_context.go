package nodes

import (
	"fmt"

	promptctx "github.com/johnfletcher78/antigravity-agent/agent/context"
	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

func AssembleContext(in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Prompt = promptctx.Assemble(promptctx.Input{
		Profile:       in.Profile,
		MemoryTurns:   in.MemoryTurns,
		ActiveProject: in.ActiveProject,
		Projects:      in.Projects,
		History:       in.History,
		Message:       in.Message,
	})
	return in, nil
}

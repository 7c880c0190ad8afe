package nodes

import (
	"context"
	"fmt"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// memoryTurnLimit is how many stored turns the orchestrator requests for
// cross-session context.
const memoryTurnLimit = 3

func LoadProfile(ctx context.Context, in *GraphState, memory contractx.MemoryStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	profile, err := memory.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	in.Profile = profile

	turns, err := memory.RecentTurns(ctx, in.UserID, memoryTurnLimit)
	if err != nil {
		return nil, err
	}
	in.MemoryTurns = turns
	return in, nil
}

package nodes

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// WriteMemory records the finished exchange and runs business-context
// extraction on it. The response has already streamed, so store failures
// are logged instead of failing the turn.
func WriteMemory(ctx context.Context, in *GraphState, memory contractx.MemoryStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := memory.AppendTurn(ctx, in.UserID, in.Message, in.Response); err != nil {
		log.Error().Err(err).Str("user", in.UserID).Msg("append turn failed")
		return in, nil
	}
	if err := memory.ExtractContext(ctx, in.UserID, in.Message, in.Response); err != nil {
		log.Error().Err(err).Str("user", in.UserID).Msg("context extraction failed")
	}
	return in, nil
}

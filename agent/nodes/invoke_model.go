package nodes

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// InvokeModel issues the single generative request of the turn. Any backend
// failure is fatal: the turn aborts and no memory write happens.
func InvokeModel(ctx context.Context, in *GraphState, backend contractx.ModelBackend) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: model backend is nil", contractx.ErrValidation)
	}

	parts, err := backend.Generate(ctx, in.Prompt, in.Catalog)
	if err != nil {
		if errors.Is(err, contractx.ErrModelInvoke) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	in.Parts = parts
	return in, nil
}

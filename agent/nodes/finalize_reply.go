package nodes

import (
	"fmt"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return GraphOutput{Response: in.Response}, nil
}

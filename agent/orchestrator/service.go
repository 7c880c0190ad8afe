package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
	nodex "github.com/johnfletcher78/antigravity-agent/agent/nodes"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

// TurnRequest carries one user message plus the caller-held session
// transcript. History is the current session only; cross-session memory is
// loaded from the store inside the turn.
type TurnRequest struct {
	UserID      string
	Message     string
	ProjectName string
	History     []contractx.HistoryEntry
}

type Orchestrator struct {
	backend   contractx.ModelBackend
	memory    contractx.MemoryStore
	projects  contractx.ProjectStore
	providers []contractx.Provider

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	backend contractx.ModelBackend,
	memory contractx.MemoryStore,
	projects contractx.ProjectStore,
	providers []contractx.Provider,
) (*Orchestrator, error) {
	if backend == nil {
		return nil, errors.New("model backend is required")
	}
	if memory == nil {
		return nil, errors.New("memory store is required")
	}

	o := &Orchestrator{
		backend:   backend,
		memory:    memory,
		projects:  projects,
		providers: providers,
		now:       time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one full turn and returns the complete reply text.
// Fragments stream to sink as they are produced; the returned string is
// their exact concatenation. A nil sink disables streaming.
func (o *Orchestrator) HandleMessage(ctx context.Context, req TurnRequest, sink contractx.FragmentSink) (string, error) {
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID:      req.UserID,
		Message:     req.Message,
		ProjectName: req.ProjectName,
		History:     req.History,
		Sink:        sink,
	})
	if err != nil {
		return "", err
	}
	return out.Response, nil
}

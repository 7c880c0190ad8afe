package nodes

import (
	"errors"
	"strings"
	"time"

	catalogx "github.com/johnfletcher78/antigravity-agent/agent/catalog"
	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
)

// defaultUserID matches the profile the original single-user deployment
// created on first access.
const defaultUserID = "bull"

type GraphInput struct {
	UserID      string
	Message     string
	ProjectName string
	History     []contractx.HistoryEntry
	Sink        contractx.FragmentSink
}

type GraphOutput struct {
	Response string
}

// GraphState is threaded through every node of one turn. No state survives
// across turns; each message starts a fresh GraphState.
type GraphState struct {
	UserID      string
	Message     string
	ProjectName string
	History     []contractx.HistoryEntry
	Sink        contractx.FragmentSink
	Now         time.Time

	Profile       *contractx.UserProfile
	MemoryTurns   []contractx.ConversationTurn
	ActiveProject *contractx.ProjectRecord
	Projects      []contractx.ProjectRecord

	Prompt   string
	Catalog  []contractx.ToolDescriptor
	Dispatch catalogx.Dispatch
	Parts    []contractx.ReplyPart

	Response string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ErrInvalidMessage
	}

	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		userID = defaultUserID
	}

	sink := in.Sink
	if sink == nil {
		sink = func(contractx.OutputFragment) error { return nil }
	}

	return &GraphState{
		UserID:      userID,
		Message:     message,
		ProjectName: strings.TrimSpace(in.ProjectName),
		History:     in.History,
		Sink:        sink,
		Now:         nowFn().UTC(),
	}, nil
}

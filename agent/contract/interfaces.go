package contract

import "context"

// ModelBackend issues the single generative request of a turn. The prompt
// already contains all context; tools is the catalog for this request.
type ModelBackend interface {
	Generate(ctx context.Context, prompt string, tools []ToolDescriptor) ([]ReplyPart, error)
}

// Handler executes one tool operation with the arguments the model supplied.
// Omitted optional arguments default inside the handler.
type Handler func(ctx context.Context, args map[string]any) (ToolResult, error)

// Operation pairs a descriptor with the handler that serves it, so the
// catalog and the dispatch table can never disagree.
type Operation struct {
	Descriptor ToolDescriptor
	Handler    Handler
}

// Provider is one capability adapter. A provider that cannot initialize is
// never constructed; absence from the registry is the only admission control.
type Provider interface {
	Name() string
	Operations() []Operation
}

// MemoryStore persists user profiles and the bounded conversation log.
type MemoryStore interface {
	GetProfile(ctx context.Context, userID string) (*UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, updates map[string]any) error
	AppendTurn(ctx context.Context, userID, userMessage, response string) error
	RecentTurns(ctx context.Context, userID string, limit int) ([]ConversationTurn, error)
	ExtractContext(ctx context.Context, userID, message, response string) error
}

// ProjectStore is CRUD over named project records.
type ProjectStore interface {
	Create(ctx context.Context, rec *ProjectRecord) (*ProjectRecord, error)
	Get(ctx context.Context, id, name string) (*ProjectRecord, error)
	List(ctx context.Context) ([]ProjectRecord, error)
	Update(ctx context.Context, id string, updates map[string]any) (*ProjectRecord, error)
	Delete(ctx context.Context, id string) error
}

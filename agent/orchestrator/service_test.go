package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

type generateCall struct {
	prompt string
	tools  []contractx.ToolDescriptor
}

type fakeBackend struct {
	parts []contractx.ReplyPart
	err   error
	calls []generateCall
}

func (f *fakeBackend) Generate(ctx context.Context, prompt string, tools []contractx.ToolDescriptor) ([]contractx.ReplyPart, error) {
	f.calls = append(f.calls, generateCall{prompt: prompt, tools: tools})
	if f.err != nil {
		return nil, f.err
	}
	return f.parts, nil
}

type appendedTurn struct {
	userID   string
	message  string
	response string
}

type fakeMemory struct {
	profile    *contractx.UserProfile
	turns      []contractx.ConversationTurn
	appendErr  error
	appends    []appendedTurn
	extractErr error
	extracts   int
}

func (f *fakeMemory) GetProfile(ctx context.Context, userID string) (*contractx.UserProfile, error) {
	if f.profile != nil {
		return f.profile, nil
	}
	return &contractx.UserProfile{UserID: userID, Name: "Bull", CreatedAt: time.Now()}, nil
}

func (f *fakeMemory) UpdateProfile(ctx context.Context, userID string, updates map[string]any) error {
	return nil
}

func (f *fakeMemory) AppendTurn(ctx context.Context, userID, userMessage, response string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appends = append(f.appends, appendedTurn{userID: userID, message: userMessage, response: response})
	return nil
}

func (f *fakeMemory) RecentTurns(ctx context.Context, userID string, limit int) ([]contractx.ConversationTurn, error) {
	if limit < len(f.turns) {
		return f.turns[len(f.turns)-limit:], nil
	}
	return f.turns, nil
}

func (f *fakeMemory) ExtractContext(ctx context.Context, userID, message, response string) error {
	if f.extractErr != nil {
		return f.extractErr
	}
	f.extracts++
	return nil
}

type fakeProjects struct {
	records []contractx.ProjectRecord
}

func (f *fakeProjects) Create(ctx context.Context, rec *contractx.ProjectRecord) (*contractx.ProjectRecord, error) {
	return rec, nil
}

func (f *fakeProjects) Get(ctx context.Context, id, name string) (*contractx.ProjectRecord, error) {
	for i := range f.records {
		if f.records[i].ID == id || strings.EqualFold(f.records[i].Name, name) {
			return &f.records[i], nil
		}
	}
	return nil, contractx.ErrNotFound
}

func (f *fakeProjects) List(ctx context.Context) ([]contractx.ProjectRecord, error) {
	return f.records, nil
}

func (f *fakeProjects) Update(ctx context.Context, id string, updates map[string]any) (*contractx.ProjectRecord, error) {
	return nil, contractx.ErrNotFound
}

func (f *fakeProjects) Delete(ctx context.Context, id string) error {
	return contractx.ErrNotFound
}

type fakeProvider struct {
	name string
	ops  []contractx.Operation
}

func (f *fakeProvider) Name() string                      { return f.name }
func (f *fakeProvider) Operations() []contractx.Operation { return f.ops }

type recordedInvocation struct {
	args map[string]any
}

func docProvider(result contractx.ToolResult, handlerErr error, record *[]recordedInvocation) *fakeProvider {
	return &fakeProvider{
		name: "docs",
		ops: []contractx.Operation{
			{
				Descriptor: contractx.ToolDescriptor{
					Name:        "create_document",
					Description: "Create a Google Doc",
					Params: []contractx.ToolParam{
						{Name: "title", Type: contractx.ParamString, Required: true},
						{Name: "content", Type: contractx.ParamString},
					},
				},
				Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
					*record = append(*record, recordedInvocation{args: args})
					if handlerErr != nil {
						return nil, handlerErr
					}
					return result, nil
				},
			},
		},
	}
}

func collectSink(frags *[]contractx.OutputFragment) contractx.FragmentSink {
	return func(frag contractx.OutputFragment) error {
		*frags = append(*frags, frag)
		return nil
	}
}

func joinFragments(frags []contractx.OutputFragment) string {
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.Text)
	}
	return b.String()
}

func newTestOrchestrator(t *testing.T, backend contractx.ModelBackend, memory contractx.MemoryStore, providers []contractx.Provider) *Orchestrator {
	t.Helper()
	o, err := New(backend, memory, &fakeProjects{}, providers)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestHandleMessageEmptyMessage(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, &fakeBackend{}, &fakeMemory{}, nil)

	_, err := o.HandleMessage(context.Background(), TurnRequest{Message: "   "}, nil)
	if !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}

func TestHandleMessageTextOnly(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		parts: []contractx.ReplyPart{{Text: "Hello there, how can I help?"}},
	}
	memory := &fakeMemory{}

	o := newTestOrchestrator(t, backend, memory, nil)

	var frags []contractx.OutputFragment
	reply, err := o.HandleMessage(context.Background(), TurnRequest{
		UserID:  "bull",
		Message: "hi",
	}, collectSink(&frags))
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if reply != "Hello there, how can I help?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if got := joinFragments(frags); got != reply {
		t.Fatalf("fragment concatenation %q != reply %q", got, reply)
	}
	if len(backend.calls) != 1 {
		t.Fatalf("expected one model request, got %d", len(backend.calls))
	}
	if !strings.Contains(backend.calls[0].prompt, "User message: hi") {
		t.Fatalf("prompt missing user message: %q", backend.calls[0].prompt)
	}
	if len(memory.appends) != 1 {
		t.Fatalf("expected one stored turn, got %d", len(memory.appends))
	}
	if memory.appends[0].response != reply {
		t.Fatalf("stored response %q != reply %q", memory.appends[0].response, reply)
	}
	if memory.extracts != 1 {
		t.Fatalf("expected one context extraction, got %d", memory.extracts)
	}

	// Every streamed fragment is a token; later fragments carry their
	// separating space.
	if frags[0].Text != "Hello" {
		t.Fatalf("unexpected first fragment: %q", frags[0].Text)
	}
	if frags[1].Text != " there," {
		t.Fatalf("unexpected second fragment: %q", frags[1].Text)
	}
}

func TestHandleMessageToolDispatch(t *testing.T) {
	t.Parallel()

	var invocations []recordedInvocation
	provider := docProvider(contractx.ToolResult{
		"success": true,
		"title":   "Q3 Plan",
		"url":     "https://docs.google.com/document/d/abc",
	}, nil, &invocations)

	backend := &fakeBackend{
		parts: []contractx.ReplyPart{
			{Call: &contractx.ToolInvocation{
				Name: "create_document",
				Args: map[string]any{"title": "Q3 Plan", "content": "draft"},
			}},
			{Text: "The document is ready."},
		},
	}
	memory := &fakeMemory{}

	o := newTestOrchestrator(t, backend, memory, []contractx.Provider{provider})

	var frags []contractx.OutputFragment
	reply, err := o.HandleMessage(context.Background(), TurnRequest{
		Message: "draft the q3 plan doc",
	}, collectSink(&frags))
	if err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if len(invocations) != 1 {
		t.Fatalf("expected one handler invocation, got %d", len(invocations))
	}
	if invocations[0].args["title"] != "Q3 Plan" {
		t.Fatalf("handler args altered: %v", invocations[0].args)
	}

	if len(backend.calls) != 1 {
		t.Fatalf("tool results must not trigger a second model request, got %d", len(backend.calls))
	}
	if len(backend.calls[0].tools) != 1 || backend.calls[0].tools[0].Name != "create_document" {
		t.Fatalf("catalog not offered to model: %+v", backend.calls[0].tools)
	}

	var toolLine string
	for _, f := range frags {
		if f.Kind == contractx.FragmentTool {
			toolLine = f.Text
		}
	}
	if !strings.HasPrefix(toolLine, "✅ create_document:") {
		t.Fatalf("unexpected tool status line: %q", toolLine)
	}
	if !strings.Contains(toolLine, "title=Q3 Plan") || !strings.Contains(toolLine, "url=https://docs.google.com/document/d/abc") {
		t.Fatalf("status line missing salient fields: %q", toolLine)
	}

	if !strings.Contains(reply, toolLine+"\n\nThe document is ready.") {
		t.Fatalf("tool line and text not separated as expected: %q", reply)
	}
	if got := joinFragments(frags); got != reply {
		t.Fatalf("fragment concatenation %q != reply %q", got, reply)
	}
	if len(memory.appends) != 1 || memory.appends[0].response != reply {
		t.Fatalf("full reply not stored: %+v", memory.appends)
	}
}

func TestHandleMessageToolFailureContinuesTurn(t *testing.T) {
	t.Parallel()

	var invocations []recordedInvocation
	provider := docProvider(contractx.ToolResult{
		"success": false,
		"error":   "permission denied",
	}, nil, &invocations)

	backend := &fakeBackend{
		parts: []contractx.ReplyPart{
			{Text: "Creating the doc now."},
			{Call: &contractx.ToolInvocation{Name: "create_document", Args: map[string]any{"title": "x"}}},
		},
	}
	memory := &fakeMemory{}

	o := newTestOrchestrator(t, backend, memory, []contractx.Provider{provider})

	var frags []contractx.OutputFragment
	reply, err := o.HandleMessage(context.Background(), TurnRequest{Message: "make a doc"}, collectSink(&frags))
	if err != nil {
		t.Fatalf("tool failure must not fail the turn: %v", err)
	}
	if !strings.Contains(reply, "❌ create_document failed: permission denied") {
		t.Fatalf("missing failure line: %q", reply)
	}
	if !strings.Contains(reply, "Creating the doc now.\n\n❌") {
		t.Fatalf("text and tool line not separated: %q", reply)
	}
	if len(memory.appends) != 1 {
		t.Fatalf("turn with failed tool must still be stored, got %d appends", len(memory.appends))
	}
}

func TestHandleMessageUnknownToolIsNoOp(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{
		parts: []contractx.ReplyPart{
			{Call: &contractx.ToolInvocation{Name: "no_such_tool"}},
			{Text: "Anyway, here is the answer."},
		},
	}
	memory := &fakeMemory{}

	o := newTestOrchestrator(t, backend, memory, nil)

	var frags []contractx.OutputFragment
	reply, err := o.HandleMessage(context.Background(), TurnRequest{Message: "hello"}, collectSink(&frags))
	if err != nil {
		t.Fatalf("unknown tool must not fail the turn: %v", err)
	}
	for _, f := range frags {
		if f.Kind == contractx.FragmentTool {
			t.Fatalf("no status line expected for unmatched tool, got %q", f.Text)
		}
	}
	if !strings.Contains(reply, "Anyway, here is the answer.") {
		t.Fatalf("text part lost: %q", reply)
	}
}

func TestHandleMessageBackendFailure(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{err: errors.New("upstream 500")}
	memory := &fakeMemory{}

	o := newTestOrchestrator(t, backend, memory, nil)

	var frags []contractx.OutputFragment
	_, err := o.HandleMessage(context.Background(), TurnRequest{Message: "hello"}, collectSink(&frags))
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
	if len(frags) != 0 {
		t.Fatalf("no fragments expected on backend failure, got %d", len(frags))
	}
	if len(memory.appends) != 0 {
		t.Fatalf("failed turn must not be stored, got %d appends", len(memory.appends))
	}
}

func TestHandleMessageMemoryWriteFailureIsSilent(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{parts: []contractx.ReplyPart{{Text: "ok"}}}
	memory := &fakeMemory{appendErr: errors.New("disk full")}

	o := newTestOrchestrator(t, backend, memory, nil)

	reply, err := o.HandleMessage(context.Background(), TurnRequest{Message: "hello"}, nil)
	if err != nil {
		t.Fatalf("memory write failure must not fail the turn: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

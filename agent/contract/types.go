package contract

import "time"

// ParamType enumerates the wire types a tool parameter may declare.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// ToolParam describes one named parameter of a tool operation.
type ToolParam struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description,omitempty"`
	Required    bool      `json:"required,omitempty"`
}

// ToolDescriptor is the advertisement of one operation offered to the model.
// Built fresh per request from the available providers, never persisted.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Params      []ToolParam `json:"params,omitempty"`
}

// ToolInvocation is a model-issued request to execute one named operation.
type ToolInvocation struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ReplyPart is one element of the ordered model reply: either a plain-text
// fragment or a tool invocation, never both.
type ReplyPart struct {
	Text string          `json:"text,omitempty"`
	Call *ToolInvocation `json:"function_call,omitempty"`
}

// ToolResult is the uniform result mapping every provider operation returns.
// On success it carries "success": true plus the operation's salient fields;
// on failure an "error" key with a message.
type ToolResult map[string]any

// Err returns the result's error message, or "" when the call succeeded.
func (r ToolResult) Err() string {
	if r == nil {
		return "empty tool result"
	}
	if msg, ok := r["error"].(string); ok && msg != "" {
		return msg
	}
	if ok, present := r["success"].(bool); present && !ok {
		return "operation reported failure"
	}
	return ""
}

// FragmentKind distinguishes literal text tokens from tool status lines.
type FragmentKind string

const (
	FragmentText FragmentKind = "text"
	FragmentTool FragmentKind = "tool"
)

// OutputFragment is one unit of the outward response stream. Concatenating
// the Text of every fragment of a turn yields the full response verbatim.
type OutputFragment struct {
	Kind FragmentKind `json:"kind"`
	Text string       `json:"text"`
}

// FragmentSink receives fragments as the orchestrator produces them. A
// non-nil error stops emission but never a side effect already started.
type FragmentSink func(OutputFragment) error

// HistoryEntry is one caller-supplied current-session exchange line.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationTurn is one persisted exchange. Immutable once written; the
// store retains only a bounded window of the most recent turns.
type ConversationTurn struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	UserMsg   string    `json:"user_message"`
	Response  string    `json:"assistant_response"`
}

// UserProfile is the persistent cross-session record for one user.
type UserProfile struct {
	UserID          string              `json:"user_id"`
	Name            string              `json:"name"`
	CreatedAt       time.Time           `json:"created_at"`
	Preferences     map[string]string   `json:"preferences,omitempty"`
	BusinessContext map[string][]string `json:"business_context,omitempty"`
	VoiceProfile    string              `json:"voice_profile,omitempty"`
}

// ProjectRecord is one named project with an open metadata bag. Created,
// updated, and deleted only through explicit tool calls.
type ProjectRecord struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Domain           string         `json:"domain,omitempty"`
	Description      string         `json:"description,omitempty"`
	Industry         string         `json:"industry,omitempty"`
	PrimaryObjective string         `json:"primary_objective,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

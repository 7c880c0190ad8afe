package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// EmitParts consumes the model reply parts strictly in order, streaming
// text tokens and one status line per tool call. Tool results are not fed
// back to the model; the status line itself is the visible reply segment.
func EmitParts(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	// Side effects already dispatched must complete even if the caller
	// disconnects mid-stream.
	toolCtx := context.WithoutCancel(ctx)

	lastWasTool := false
	for _, part := range in.Parts {
		switch {
		case part.Call != nil:
			line := dispatchCall(toolCtx, in.Dispatch, part.Call)
			if line == "" {
				continue
			}
			if in.Response != "" {
				if err := in.emit(contractx.FragmentText, "\n\n"); err != nil {
					return nil, err
				}
			}
			if err := in.emit(contractx.FragmentTool, line); err != nil {
				return nil, err
			}
			lastWasTool = true
		case part.Text != "":
			if lastWasTool {
				if err := in.emit(contractx.FragmentText, "\n\n"); err != nil {
					return nil, err
				}
			}
			if err := in.emitText(part.Text); err != nil {
				return nil, err
			}
			lastWasTool = false
		}
	}
	return in, nil
}

// dispatchCall runs one tool invocation and renders its status line. An
// unmatched name never happens when the model honors the catalog; it is
// treated as a logged no-op so the stream survives regardless.
func dispatchCall(ctx context.Context, dispatch map[string]contractx.Handler, call *contractx.ToolInvocation) string {
	handler, ok := dispatch[call.Name]
	if !ok {
		log.Warn().Str("tool", call.Name).Msg("model invoked a tool outside the catalog")
		return ""
	}

	result, err := handler(ctx, call.Args)
	if err != nil {
		return fmt.Sprintf("❌ %s failed: %v", call.Name, err)
	}
	if msg := result.Err(); msg != "" {
		return fmt.Sprintf("❌ %s failed: %s", call.Name, msg)
	}
	return renderSuccess(call.Name, result)
}

// salientKeys fixes which result fields show up in a success line, in
// order. Unlisted fields stay available to the model user via the raw text.
var salientKeys = []string{
	"title", "name", "url", "id", "message_id", "draft_id",
	"to", "subject", "count", "rows_added", "rows", "active_users",
}

func renderSuccess(name string, result contractx.ToolResult) string {
	var fields []string
	for _, key := range salientKeys {
		if v, ok := result[key]; ok {
			fields = append(fields, fmt.Sprintf("%s=%v", key, v))
		}
	}
	if len(fields) == 0 {
		return fmt.Sprintf("✅ %s completed", name)
	}
	return fmt.Sprintf("✅ %s: %s", name, strings.Join(fields, ", "))
}

// emitText splits on single spaces and re-emits each token immediately.
// Every fragment after the first carries its separating space, so the
// concatenation of all fragments reproduces text byte-for-byte.
func (st *GraphState) emitText(text string) error {
	for i, token := range strings.Split(text, " ") {
		if i > 0 {
			token = " " + token
		}
		if err := st.emit(contractx.FragmentText, token); err != nil {
			return err
		}
	}
	return nil
}

func (st *GraphState) emit(kind contractx.FragmentKind, text string) error {
	st.Response += text
	return st.Sink(contractx.OutputFragment{Kind: kind, Text: text})
}

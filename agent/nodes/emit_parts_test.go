package nodes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	catalogx "github.com/johnfletcher78/antigravity-agent/agent/catalog"
	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

func stateWithSink(parts []contractx.ReplyPart, dispatch catalogx.Dispatch, frags *[]contractx.OutputFragment) *GraphState {
	return &GraphState{
		UserID:   "bull",
		Message:  "hi",
		Now:      time.Now(),
		Parts:    parts,
		Dispatch: dispatch,
		Sink: func(f contractx.OutputFragment) error {
			*frags = append(*frags, f)
			return nil
		},
	}
}

func TestEmitPartsTokenRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []string{
		"hello world",
		"single",
		"double  space inside",
		" leading and trailing ",
		"",
	}

	for _, text := range cases {
		text := text
		t.Run("text="+text, func(t *testing.T) {
			t.Parallel()

			var frags []contractx.OutputFragment
			st := stateWithSink([]contractx.ReplyPart{{Text: text}}, nil, &frags)

			out, err := EmitParts(context.Background(), st)
			if err != nil {
				t.Fatalf("EmitParts() error = %v", err)
			}
			if out.Response != text {
				t.Fatalf("response %q != input %q", out.Response, text)
			}

			var joined strings.Builder
			for _, f := range frags {
				if f.Kind != contractx.FragmentText {
					t.Fatalf("unexpected fragment kind %q", f.Kind)
				}
				joined.WriteString(f.Text)
			}
			if joined.String() != text {
				t.Fatalf("fragment concatenation %q != input %q", joined.String(), text)
			}
		})
	}
}

func TestEmitPartsToolBetweenText(t *testing.T) {
	t.Parallel()

	dispatch := catalogx.Dispatch{
		"create_document": func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{"success": true, "title": "Plan"}, nil
		},
	}

	var frags []contractx.OutputFragment
	st := stateWithSink([]contractx.ReplyPart{
		{Text: "Working on it."},
		{Call: &contractx.ToolInvocation{Name: "create_document"}},
		{Text: "All done."},
	}, dispatch, &frags)

	out, err := EmitParts(context.Background(), st)
	if err != nil {
		t.Fatalf("EmitParts() error = %v", err)
	}

	want := "Working on it.\n\n✅ create_document: title=Plan\n\nAll done."
	if out.Response != want {
		t.Fatalf("response = %q, want %q", out.Response, want)
	}

	toolFrags := 0
	for _, f := range frags {
		if f.Kind == contractx.FragmentTool {
			toolFrags++
		}
	}
	if toolFrags != 1 {
		t.Fatalf("expected exactly one tool fragment, got %d", toolFrags)
	}
}

func TestEmitPartsToolOnlyNoSeparators(t *testing.T) {
	t.Parallel()

	dispatch := catalogx.Dispatch{
		"fetch_url": func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{"success": true, "url": "https://a.example"}, nil
		},
	}

	var frags []contractx.OutputFragment
	st := stateWithSink([]contractx.ReplyPart{
		{Call: &contractx.ToolInvocation{Name: "fetch_url"}},
	}, dispatch, &frags)

	out, err := EmitParts(context.Background(), st)
	if err != nil {
		t.Fatalf("EmitParts() error = %v", err)
	}
	if out.Response != "✅ fetch_url: url=https://a.example" {
		t.Fatalf("tool-only reply must carry no separators: %q", out.Response)
	}
}

func TestEmitPartsHandlerError(t *testing.T) {
	t.Parallel()

	dispatch := catalogx.Dispatch{
		"send_email": func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return nil, errors.New("smtp unreachable")
		},
	}

	var frags []contractx.OutputFragment
	st := stateWithSink([]contractx.ReplyPart{
		{Call: &contractx.ToolInvocation{Name: "send_email"}},
	}, dispatch, &frags)

	out, err := EmitParts(context.Background(), st)
	if err != nil {
		t.Fatalf("handler error must not fail the turn: %v", err)
	}
	if out.Response != "❌ send_email failed: smtp unreachable" {
		t.Fatalf("unexpected failure line: %q", out.Response)
	}
}

func TestEmitPartsUnknownTool(t *testing.T) {
	t.Parallel()

	var frags []contractx.OutputFragment
	st := stateWithSink([]contractx.ReplyPart{
		{Call: &contractx.ToolInvocation{Name: "ghost_tool"}},
		{Text: "Moving on."},
	}, nil, &frags)

	out, err := EmitParts(context.Background(), st)
	if err != nil {
		t.Fatalf("EmitParts() error = %v", err)
	}
	if out.Response != "Moving on." {
		t.Fatalf("unmatched tool must leave no trace in the reply: %q", out.Response)
	}
}

func TestEmitPartsSinkErrorStops(t *testing.T) {
	t.Parallel()

	sinkErr := errors.New("client gone")
	calls := 0
	st := &GraphState{
		Parts: []contractx.ReplyPart{{Text: "one two three"}},
		Sink: func(contractx.OutputFragment) error {
			calls++
			if calls == 2 {
				return sinkErr
			}
			return nil
		},
	}

	_, err := EmitParts(context.Background(), st)
	if !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("emission must stop at the failing fragment, got %d calls", calls)
	}
}

package catalog

import (
	"context"
	"testing"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

type staticProvider struct {
	name string
	ops  []contractx.Operation
}

func (p *staticProvider) Name() string                      { return p.name }
func (p *staticProvider) Operations() []contractx.Operation { return p.ops }

func op(name string) contractx.Operation {
	return contractx.Operation{
		Descriptor: contractx.ToolDescriptor{Name: name, Description: name},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{"success": true, "op": name}, nil
		},
	}
}

func TestBuildPreservesProviderOrder(t *testing.T) {
	t.Parallel()

	descriptors, dispatch := Build([]contractx.Provider{
		&staticProvider{name: "docs", ops: []contractx.Operation{op("create_document"), op("read_document")}},
		&staticProvider{name: "scraper", ops: []contractx.Operation{op("fetch_url")}},
	})

	want := []string{"create_document", "read_document", "fetch_url"}
	if len(descriptors) != len(want) {
		t.Fatalf("expected %d descriptors, got %d", len(want), len(descriptors))
	}
	for i, name := range want {
		if descriptors[i].Name != name {
			t.Fatalf("descriptor %d = %q, want %q", i, descriptors[i].Name, name)
		}
	}
	for _, name := range want {
		if dispatch[name] == nil {
			t.Fatalf("advertised %q has no handler", name)
		}
	}
}

func TestBuildSkipsNilAndInvalid(t *testing.T) {
	t.Parallel()

	descriptors, dispatch := Build([]contractx.Provider{
		nil,
		&staticProvider{name: "broken", ops: []contractx.Operation{
			{Descriptor: contractx.ToolDescriptor{Name: ""}},
			{Descriptor: contractx.ToolDescriptor{Name: "no_handler"}},
		}},
		&staticProvider{name: "ok", ops: []contractx.Operation{op("fetch_url")}},
	})

	if len(descriptors) != 1 || descriptors[0].Name != "fetch_url" {
		t.Fatalf("unexpected catalog: %+v", descriptors)
	}
	if len(dispatch) != 1 {
		t.Fatalf("unexpected dispatch size: %d", len(dispatch))
	}
}

func TestBuildFirstDuplicateWins(t *testing.T) {
	t.Parallel()

	first := contractx.Operation{
		Descriptor: contractx.ToolDescriptor{Name: "fetch_url", Description: "first"},
		Handler: func(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
			return contractx.ToolResult{"success": true, "source": "first"}, nil
		},
	}

	descriptors, dispatch := Build([]contractx.Provider{
		&staticProvider{name: "a", ops: []contractx.Operation{first}},
		&staticProvider{name: "b", ops: []contractx.Operation{op("fetch_url")}},
	})

	if len(descriptors) != 1 {
		t.Fatalf("duplicate name must register once, got %d descriptors", len(descriptors))
	}
	if descriptors[0].Description != "first" {
		t.Fatalf("later duplicate overrode earlier registration")
	}
	result, err := dispatch["fetch_url"](context.Background(), nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if result["source"] != "first" {
		t.Fatalf("dispatch bound to wrong handler: %v", result)
	}
}

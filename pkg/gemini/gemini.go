package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

type Config struct {
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"gemini-flash-latest"`
	Temperature float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
}

// Client adapts the Gemini API to the orchestrator's ModelBackend contract.
// One Generate call is one turn; there is no follow-up round after tools run.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ contractx.ModelBackend = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-flash-latest"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// Generate issues the single model request of a turn and flattens the
// candidate content into ordered reply parts. Any transport or API failure
// is fatal for the turn and wraps ErrModelInvoke.
func (c *Client) Generate(
	ctx context.Context,
	prompt string,
	tools []contractx.ToolDescriptor,
) ([]contractx.ReplyPart, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	conf := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
	}
	if decls := toDeclarations(tools); len(decls) > 0 {
		conf.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: empty candidate content", contractx.ErrModelInvoke)
	}

	parts := make([]contractx.ReplyPart, 0, len(resp.Candidates[0].Content.Parts))
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil {
			continue
		}
		switch {
		case part.FunctionCall != nil:
			parts = append(parts, contractx.ReplyPart{
				Call: &contractx.ToolInvocation{
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				},
			})
		case part.Text != "":
			parts = append(parts, contractx.ReplyPart{Text: part.Text})
		}
	}
	return parts, nil
}

func toDeclarations(tools []contractx.ToolDescriptor) []*genai.FunctionDeclaration {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
		}
		if len(t.Params) > 0 {
			props := make(map[string]*genai.Schema, len(t.Params))
			var required []string
			for _, p := range t.Params {
				props[p.Name] = &genai.Schema{
					Type:        toSchemaType(p.Type),
					Description: p.Description,
				}
				if p.Required {
					required = append(required, p.Name)
				}
			}
			decl.Parameters = &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   required,
			}
		}
		decls = append(decls, decl)
	}
	return decls
}

func toSchemaType(t contractx.ParamType) genai.Type {
	switch t {
	case contractx.ParamInteger:
		return genai.TypeInteger
	case contractx.ParamNumber:
		return genai.TypeNumber
	case contractx.ParamBoolean:
		return genai.TypeBoolean
	case contractx.ParamArray:
		return genai.TypeArray
	case contractx.ParamObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

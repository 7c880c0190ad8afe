package capability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const maxScrapeBytes = 2 << 20

type ScraperConfig struct {
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
	UserAgent string        `envconfig:"USER_AGENT" split_words:"true" default:"Mozilla/5.0 (compatible; AntigravityAgent/1.0)"`
}

// ScraperProvider fetches web pages and runs basic on-page SEO checks.
// Needs no credentials, so it is always present in the registry.
type ScraperProvider struct {
	httpClient *http.Client
	userAgent  string
}

var _ contractx.Provider = (*ScraperProvider)(nil)

func NewScraperProvider(cfg ScraperConfig) *ScraperProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ScraperProvider{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  cfg.UserAgent,
	}
}

func (p *ScraperProvider) Name() string { return "scraper" }

func (p *ScraperProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "fetch_url",
				Description: "Fetch a web page and return its title and readable text content.",
				Params: []contractx.ToolParam{
					{Name: "url", Type: contractx.ParamString, Description: "URL to fetch", Required: true},
					{Name: "max_length", Type: contractx.ParamInteger, Description: "Maximum content characters to return (default 5000)"},
				},
			},
			Handler: p.fetchURL,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "analyze_seo",
				Description: "Analyze basic on-page SEO elements of a web page: title, meta description, H1 tags, image alt coverage, canonical tag.",
				Params: []contractx.ToolParam{
					{Name: "url", Type: contractx.ParamString, Description: "URL to analyze", Required: true},
				},
			},
			Handler: p.analyzeSEO,
		},
	}
}

func (p *ScraperProvider) fetchURL(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	target, err := requireString(args, "url")
	if err != nil {
		return failure(err.Error()), nil
	}
	maxLength := intArg(args, "max_length", 5000)

	doc, err := p.fetch(ctx, target)
	if err != nil {
		return failuref("failed to fetch URL: %v", err), nil
	}

	content := strings.TrimSpace(visibleText(doc))
	if runes := []rune(content); len(runes) > maxLength {
		content = string(runes[:maxLength]) + "..."
	}

	return contractx.ToolResult{
		"success": true,
		"url":     target,
		"title":   pageTitle(doc),
		"content": content,
		"length":  len([]rune(content)),
	}, nil
}

func (p *ScraperProvider) analyzeSEO(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	target, err := requireString(args, "url")
	if err != nil {
		return failure(err.Error()), nil
	}

	doc, err := p.fetch(ctx, target)
	if err != nil {
		return failuref("SEO analysis failed: %v", err), nil
	}

	title := pageTitle(doc)
	description := metaDescription(doc)
	h1s := headingTexts(doc, "h1")
	total, withoutAlt := imageAltStats(doc)
	canonical := canonicalURL(doc)

	coverage := "N/A"
	if total > 0 {
		coverage = fmt.Sprintf("%.1f%%", float64(total-withoutAlt)/float64(total)*100)
	}

	return contractx.ToolResult{
		"success": true,
		"url":     target,
		"seo_elements": map[string]any{
			"title": map[string]any{
				"present": title != "",
				"content": title,
				"length":  len(title),
				"optimal": len(title) >= 50 && len(title) <= 60,
			},
			"meta_description": map[string]any{
				"present": description != "",
				"content": description,
				"length":  len(description),
				"optimal": len(description) >= 150 && len(description) <= 160,
			},
			"h1_tags": map[string]any{
				"count":   len(h1s),
				"content": h1s,
				"optimal": len(h1s) == 1,
			},
			"images": map[string]any{
				"total":             total,
				"without_alt":       withoutAlt,
				"alt_text_coverage": coverage,
			},
			"canonical": map[string]any{
				"present": canonical != "",
				"url":     canonical,
			},
		},
	}, nil
}

func (p *ScraperProvider) fetch(ctx context.Context, target string) (*html.Node, error) {
	parsed, err := url.ParseRequestURI(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL format")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return html.Parse(io.LimitReader(resp.Body, maxScrapeBytes))
}

func pageTitle(doc *html.Node) string {
	var title string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return false
		}
		return true
	})
	return title
}

func metaDescription(doc *html.Node) string {
	var description string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" &&
			attr(n, "name") == "description" {
			description = attr(n, "content")
			return false
		}
		return true
	})
	return description
}

func headingTexts(doc *html.Node, tag string) []string {
	var texts []string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			texts = append(texts, strings.TrimSpace(nodeText(n)))
			return false
		}
		return true
	})
	return texts
}

func imageAltStats(doc *html.Node) (total, withoutAlt int) {
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "img" {
			total++
			if strings.TrimSpace(attr(n, "alt")) == "" {
				withoutAlt++
			}
		}
		return true
	})
	return total, withoutAlt
}

func canonicalURL(doc *html.Node) string {
	var canonical string
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "link" &&
			attr(n, "rel") == "canonical" {
			canonical = attr(n, "href")
			return false
		}
		return true
	})
	return canonical
}

// visibleText collects text nodes, skipping script and style subtrees.
func visibleText(doc *html.Node) string {
	var b strings.Builder
	walk(doc, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return false
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
		return true
	})
	return b.String()
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// walk visits nodes depth-first; visit returning false prunes the subtree.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

package capability

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const (
	docsBaseURL  = "https://docs.googleapis.com/v1"
	driveBaseURL = "https://www.googleapis.com/drive/v3"
)

// DocsProvider adapts the Google Docs and Drive REST APIs for document
// creation, editing, and listing.
type DocsProvider struct {
	client *googleClient
}

var _ contractx.Provider = (*DocsProvider)(nil)

func NewDocsProvider(cfg GoogleConfig) (*DocsProvider, error) {
	client, err := newGoogleClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("docs provider: %w", err)
	}
	return &DocsProvider{client: client}, nil
}

func (p *DocsProvider) Name() string { return "docs" }

func (p *DocsProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "create_document",
				Description: "Create a new Google Doc with a title and optional initial content. Returns the document title, id, and shareable URL.",
				Params: []contractx.ToolParam{
					{Name: "title", Type: contractx.ParamString, Description: "Title of the document", Required: true},
					{Name: "content", Type: contractx.ParamString, Description: "Initial plain-text content"},
				},
			},
			Handler: p.createDocument,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "update_document",
				Description: "Replace the content of an existing Google Doc.",
				Params: []contractx.ToolParam{
					{Name: "document_id", Type: contractx.ParamString, Description: "ID of the document", Required: true},
					{Name: "new_content", Type: contractx.ParamString, Description: "Replacement plain-text content", Required: true},
				},
			},
			Handler: p.updateDocument,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "read_document",
				Description: "Read the plain-text content of a Google Doc.",
				Params: []contractx.ToolParam{
					{Name: "document_id", Type: contractx.ParamString, Description: "ID of the document", Required: true},
				},
			},
			Handler: p.readDocument,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "list_documents",
				Description: "List the most recently modified Google Docs.",
				Params: []contractx.ToolParam{
					{Name: "max_results", Type: contractx.ParamInteger, Description: "Maximum documents to return (default 10)"},
				},
			},
			Handler: p.listDocuments,
		},
	}
}

func (p *DocsProvider) createDocument(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	title, err := requireString(args, "title")
	if err != nil {
		return failure(err.Error()), nil
	}
	content := stringArg(args, "content", "")

	var created struct {
		DocumentID string `json:"documentId"`
	}
	err = p.client.do(ctx, http.MethodPost, docsBaseURL+"/documents",
		map[string]any{"title": title}, &created)
	if err != nil {
		return failuref("create document: %v", err), nil
	}

	if content != "" {
		if err := p.insertText(ctx, created.DocumentID, content); err != nil {
			return failuref("write document content: %v", err), nil
		}
	}

	result := contractx.ToolResult{
		"success": true,
		"id":      created.DocumentID,
		"title":   title,
	}

	// The document already exists at this point; a failed link lookup must
	// not misreport the creation.
	var file struct {
		WebViewLink string `json:"webViewLink"`
	}
	linkURL := fmt.Sprintf("%s/files/%s?fields=webViewLink", driveBaseURL, created.DocumentID)
	if err := p.client.do(ctx, http.MethodGet, linkURL, nil, &file); err != nil {
		log.Warn().Err(err).Str("document_id", created.DocumentID).
			Msg("document created but link lookup failed")
		return result, nil
	}
	result["url"] = file.WebViewLink

	return result, nil
}

func (p *DocsProvider) updateDocument(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	documentID, err := requireString(args, "document_id")
	if err != nil {
		return failure(err.Error()), nil
	}
	newContent, err := requireString(args, "new_content")
	if err != nil {
		return failure(err.Error()), nil
	}

	endIndex, err := p.documentEndIndex(ctx, documentID)
	if err != nil {
		return failuref("read document: %v", err), nil
	}

	var requests []map[string]any
	if endIndex > 2 {
		requests = append(requests, map[string]any{
			"deleteContentRange": map[string]any{
				"range": map[string]any{"startIndex": 1, "endIndex": endIndex - 1},
			},
		})
	}
	requests = append(requests, map[string]any{
		"insertText": map[string]any{
			"location": map[string]any{"index": 1},
			"text":     newContent,
		},
	})

	batchURL := fmt.Sprintf("%s/documents/%s:batchUpdate", docsBaseURL, documentID)
	if err := p.client.do(ctx, http.MethodPost, batchURL, map[string]any{"requests": requests}, nil); err != nil {
		return failuref("update document: %v", err), nil
	}

	return contractx.ToolResult{"success": true, "id": documentID}, nil
}

func (p *DocsProvider) readDocument(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	documentID, err := requireString(args, "document_id")
	if err != nil {
		return failure(err.Error()), nil
	}

	doc, err := p.fetchDocument(ctx, documentID)
	if err != nil {
		return failuref("read document: %v", err), nil
	}

	var text string
	for _, element := range doc.Body.Content {
		if element.Paragraph == nil {
			continue
		}
		for _, pe := range element.Paragraph.Elements {
			if pe.TextRun != nil {
				text += pe.TextRun.Content
			}
		}
	}

	return contractx.ToolResult{
		"success": true,
		"id":      documentID,
		"title":   doc.Title,
		"content": text,
	}, nil
}

func (p *DocsProvider) listDocuments(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	maxResults := intArg(args, "max_results", 10)

	query := url.Values{}
	query.Set("q", "mimeType='application/vnd.google-apps.document' and trashed=false")
	query.Set("orderBy", "modifiedTime desc")
	query.Set("pageSize", fmt.Sprint(maxResults))
	query.Set("fields", "files(id,name,modifiedTime,webViewLink)")

	var listing struct {
		Files []struct {
			ID           string `json:"id"`
			Name         string `json:"name"`
			ModifiedTime string `json:"modifiedTime"`
			WebViewLink  string `json:"webViewLink"`
		} `json:"files"`
	}
	if err := p.client.do(ctx, http.MethodGet, driveBaseURL+"/files?"+query.Encode(), nil, &listing); err != nil {
		return failuref("list documents: %v", err), nil
	}

	docs := make([]map[string]any, 0, len(listing.Files))
	for _, f := range listing.Files {
		docs = append(docs, map[string]any{
			"id":       f.ID,
			"title":    f.Name,
			"modified": f.ModifiedTime,
			"url":      f.WebViewLink,
		})
	}
	return contractx.ToolResult{"success": true, "documents": docs, "count": len(docs)}, nil
}

type docBody struct {
	Title string `json:"title"`
	Body  struct {
		Content []struct {
			EndIndex  int `json:"endIndex"`
			Paragraph *struct {
				Elements []struct {
					TextRun *struct {
						Content string `json:"content"`
					} `json:"textRun"`
				} `json:"elements"`
			} `json:"paragraph"`
		} `json:"content"`
	} `json:"body"`
}

func (p *DocsProvider) fetchDocument(ctx context.Context, documentID string) (*docBody, error) {
	doc := new(docBody)
	err := p.client.do(ctx, http.MethodGet,
		fmt.Sprintf("%s/documents/%s", docsBaseURL, documentID), nil, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *DocsProvider) documentEndIndex(ctx context.Context, documentID string) (int, error) {
	doc, err := p.fetchDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}
	end := 1
	for _, element := range doc.Body.Content {
		if element.EndIndex > end {
			end = element.EndIndex
		}
	}
	return end, nil
}

func (p *DocsProvider) insertText(ctx context.Context, documentID, text string) error {
	batchURL := fmt.Sprintf("%s/documents/%s:batchUpdate", docsBaseURL, documentID)
	return p.client.do(ctx, http.MethodPost, batchURL, map[string]any{
		"requests": []map[string]any{{
			"insertText": map[string]any{
				"location": map[string]any{"index": 1},
				"text":     text,
			},
		}},
	}, nil)
}

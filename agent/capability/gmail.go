package capability

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const gmailBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

// GmailProvider adapts the Gmail REST API for sending, drafting, and
// searching mail. Sends are fire-and-forget: a failure is reported in the
// result, never retried.
type GmailProvider struct {
	client *googleClient
}

var _ contractx.Provider = (*GmailProvider)(nil)

func NewGmailProvider(cfg GoogleConfig) (*GmailProvider, error) {
	client, err := newGoogleClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("gmail provider: %w", err)
	}
	return &GmailProvider{client: client}, nil
}

func (p *GmailProvider) Name() string { return "gmail" }

func (p *GmailProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "send_email",
				Description: "Send an email from the user's Gmail account.",
				Params: []contractx.ToolParam{
					{Name: "to", Type: contractx.ParamString, Description: "Recipient email address", Required: true},
					{Name: "subject", Type: contractx.ParamString, Description: "Email subject", Required: true},
					{Name: "body", Type: contractx.ParamString, Description: "Plain-text email body", Required: true},
				},
			},
			Handler: p.sendEmail,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "draft_email",
				Description: "Create a Gmail draft without sending it.",
				Params: []contractx.ToolParam{
					{Name: "to", Type: contractx.ParamString, Description: "Recipient email address", Required: true},
					{Name: "subject", Type: contractx.ParamString, Description: "Email subject", Required: true},
					{Name: "body", Type: contractx.ParamString, Description: "Plain-text email body", Required: true},
				},
			},
			Handler: p.draftEmail,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "get_unread_emails",
				Description: "List the user's unread emails with sender, subject, and snippet.",
				Params: []contractx.ToolParam{
					{Name: "max_results", Type: contractx.ParamInteger, Description: "Maximum emails to return (default 10)"},
				},
			},
			Handler: p.getUnreadEmails,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "search_emails",
				Description: "Search the user's mailbox with a Gmail query string.",
				Params: []contractx.ToolParam{
					{Name: "query", Type: contractx.ParamString, Description: "Gmail search query, e.g. from:alice subject:report", Required: true},
					{Name: "max_results", Type: contractx.ParamInteger, Description: "Maximum emails to return (default 10)"},
				},
			},
			Handler: p.searchEmails,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "mark_as_read",
				Description: "Mark one email as read.",
				Params: []contractx.ToolParam{
					{Name: "message_id", Type: contractx.ParamString, Description: "ID of the message", Required: true},
				},
			},
			Handler: p.markAsRead,
		},
	}
}

func (p *GmailProvider) sendEmail(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	raw, to, subject, errResult := rawMessageFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	var sent struct {
		ID string `json:"id"`
	}
	err := p.client.do(ctx, http.MethodPost, gmailBaseURL+"/messages/send",
		map[string]any{"raw": raw}, &sent)
	if err != nil {
		return failuref("send email: %v", err), nil
	}

	return contractx.ToolResult{
		"success":    true,
		"message_id": sent.ID,
		"to":         to,
		"subject":    subject,
	}, nil
}

func (p *GmailProvider) draftEmail(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	raw, to, subject, errResult := rawMessageFromArgs(args)
	if errResult != nil {
		return errResult, nil
	}

	var draft struct {
		ID string `json:"id"`
	}
	err := p.client.do(ctx, http.MethodPost, gmailBaseURL+"/drafts",
		map[string]any{"message": map[string]any{"raw": raw}}, &draft)
	if err != nil {
		return failuref("create draft: %v", err), nil
	}

	return contractx.ToolResult{
		"success":  true,
		"draft_id": draft.ID,
		"to":       to,
		"subject":  subject,
	}, nil
}

func (p *GmailProvider) getUnreadEmails(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	return p.listMessages(ctx, "is:unread", intArg(args, "max_results", 10))
}

func (p *GmailProvider) searchEmails(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	query, err := requireString(args, "query")
	if err != nil {
		return failure(err.Error()), nil
	}
	return p.listMessages(ctx, query, intArg(args, "max_results", 10))
}

func (p *GmailProvider) markAsRead(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	messageID, err := requireString(args, "message_id")
	if err != nil {
		return failure(err.Error()), nil
	}

	endpoint := fmt.Sprintf("%s/messages/%s/modify", gmailBaseURL, messageID)
	err = p.client.do(ctx, http.MethodPost, endpoint,
		map[string]any{"removeLabelIds": []string{"UNREAD"}}, nil)
	if err != nil {
		return failuref("mark as read: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "message_id": messageID}, nil
}

func (p *GmailProvider) listMessages(ctx context.Context, query string, maxResults int) (contractx.ToolResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprint(maxResults))

	var listing struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := p.client.do(ctx, http.MethodGet, gmailBaseURL+"/messages?"+params.Encode(), nil, &listing); err != nil {
		return failuref("list emails: %v", err), nil
	}

	emails := make([]map[string]any, 0, len(listing.Messages))
	for _, m := range listing.Messages {
		meta, err := p.messageMetadata(ctx, m.ID)
		if err != nil {
			return failuref("read email %s: %v", m.ID, err), nil
		}
		emails = append(emails, meta)
	}
	return contractx.ToolResult{"success": true, "emails": emails, "count": len(emails)}, nil
}

func (p *GmailProvider) messageMetadata(ctx context.Context, messageID string) (map[string]any, error) {
	endpoint := fmt.Sprintf(
		"%s/messages/%s?format=metadata&metadataHeaders=From&metadataHeaders=Subject&metadataHeaders=Date",
		gmailBaseURL, messageID)

	var msg struct {
		ID      string `json:"id"`
		Snippet string `json:"snippet"`
		Payload struct {
			Headers []struct {
				Name  string `json:"name"`
				Value string `json:"value"`
			} `json:"headers"`
		} `json:"payload"`
	}
	if err := p.client.do(ctx, http.MethodGet, endpoint, nil, &msg); err != nil {
		return nil, err
	}

	meta := map[string]any{"id": msg.ID, "snippet": msg.Snippet}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			meta["from"] = h.Value
		case "Subject":
			meta["subject"] = h.Value
		case "Date":
			meta["date"] = h.Value
		}
	}
	return meta, nil
}

func rawMessageFromArgs(args map[string]any) (raw, to, subject string, fail contractx.ToolResult) {
	to, err := requireString(args, "to")
	if err != nil {
		return "", "", "", failure(err.Error())
	}
	subject, err = requireString(args, "subject")
	if err != nil {
		return "", "", "", failure(err.Error())
	}
	body, err := requireString(args, "body")
	if err != nil {
		return "", "", "", failure(err.Error())
	}

	message := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", to, subject, body)
	raw = base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(message))
	return raw, to, subject, nil
}

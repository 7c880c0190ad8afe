package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const contactsRange = "Sheet1!A:D"

type ContactsConfig struct {
	SpreadsheetID string `envconfig:"SPREADSHEET_ID" split_words:"true"`
}

// ContactsProvider keeps the user's contact book in a Google Sheet with
// Name/Email/Phone/Description columns, reusing the sheets adapter.
type ContactsProvider struct {
	sheets        *SheetsProvider
	spreadsheetID string
}

var _ contractx.Provider = (*ContactsProvider)(nil)

func NewContactsProvider(cfg ContactsConfig, sheets *SheetsProvider) (*ContactsProvider, error) {
	if sheets == nil {
		return nil, errors.New("contacts provider: sheets adapter is required")
	}
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("contacts provider: spreadsheet id is required")
	}
	return &ContactsProvider{sheets: sheets, spreadsheetID: spreadsheetID}, nil
}

func (p *ContactsProvider) Name() string { return "contacts" }

func (p *ContactsProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "search_contact",
				Description: "Find a contact by name in the user's contact book.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Name to search for (case-insensitive partial match)", Required: true},
				},
			},
			Handler: p.searchContact,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "add_contact",
				Description: "Add a contact to the user's contact book.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Contact name", Required: true},
					{Name: "email", Type: contractx.ParamString, Description: "Contact email", Required: true},
					{Name: "phone", Type: contractx.ParamString, Description: "Contact phone number"},
					{Name: "description", Type: contractx.ParamString, Description: "Notes about the contact"},
				},
			},
			Handler: p.addContact,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "list_contacts",
				Description: "List every contact in the user's contact book.",
			},
			Handler: p.listContacts,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "update_contact",
				Description: "Update fields of an existing contact. Only the supplied fields change.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Name of the contact to update", Required: true},
					{Name: "email", Type: contractx.ParamString, Description: "New email"},
					{Name: "phone", Type: contractx.ParamString, Description: "New phone number"},
					{Name: "description", Type: contractx.ParamString, Description: "New notes"},
				},
			},
			Handler: p.updateContact,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "delete_contact",
				Description: "Remove a contact from the user's contact book.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Name of the contact to remove", Required: true},
				},
			},
			Handler: p.deleteContact,
		},
	}
}

type contactRow struct {
	rowIndex    int // 1-based sheet row
	name        string
	email       string
	phone       string
	description string
}

func (r contactRow) toMap() map[string]any {
	return map[string]any{
		"name":        r.name,
		"email":       r.email,
		"phone":       r.phone,
		"description": r.description,
	}
}

func (p *ContactsProvider) searchContact(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	row, err := p.findContact(ctx, name)
	if err != nil {
		return failuref("search contact: %v", err), nil
	}
	if row == nil {
		return failuref("no contact found matching %q", name), nil
	}
	return contractx.ToolResult{"success": true, "contact": row.toMap()}, nil
}

func (p *ContactsProvider) addContact(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}
	email, err := requireString(args, "email")
	if err != nil {
		return failure(err.Error()), nil
	}

	row := []string{name, email, stringArg(args, "phone", ""), stringArg(args, "description", "")}
	if err := p.sheets.appendValues(ctx, p.spreadsheetID, contactsRange, [][]string{row}); err != nil {
		return failuref("add contact: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "name": name, "email": email}, nil
}

func (p *ContactsProvider) listContacts(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	rows, err := p.loadContacts(ctx)
	if err != nil {
		return failuref("list contacts: %v", err), nil
	}

	contacts := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.toMap())
	}
	return contractx.ToolResult{"success": true, "contacts": contacts, "count": len(contacts)}, nil
}

func (p *ContactsProvider) updateContact(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	row, err := p.findContact(ctx, name)
	if err != nil {
		return failuref("update contact: %v", err), nil
	}
	if row == nil {
		return failuref("no contact found matching %q", name), nil
	}

	row.email = stringArg(args, "email", row.email)
	row.phone = stringArg(args, "phone", row.phone)
	row.description = stringArg(args, "description", row.description)

	if err := p.writeRow(ctx, row.rowIndex, []any{row.name, row.email, row.phone, row.description}); err != nil {
		return failuref("update contact: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "contact": row.toMap()}, nil
}

func (p *ContactsProvider) deleteContact(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	row, err := p.findContact(ctx, name)
	if err != nil {
		return failuref("delete contact: %v", err), nil
	}
	if row == nil {
		return failuref("no contact found matching %q", name), nil
	}

	if err := p.writeRow(ctx, row.rowIndex, []any{"", "", "", ""}); err != nil {
		return failuref("delete contact: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "name": row.name}, nil
}

func (p *ContactsProvider) loadContacts(ctx context.Context) ([]contactRow, error) {
	values, err := p.sheets.getValues(ctx, p.spreadsheetID, contactsRange)
	if err != nil {
		return nil, err
	}

	var rows []contactRow
	for i, raw := range values {
		row := contactRow{rowIndex: i + 1}
		for j, cell := range raw {
			value := strings.TrimSpace(fmt.Sprint(cell))
			switch j {
			case 0:
				row.name = value
			case 1:
				row.email = value
			case 2:
				row.phone = value
			case 3:
				row.description = value
			}
		}
		if row.name == "" || strings.EqualFold(row.name, "name") {
			continue // blank or header row
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (p *ContactsProvider) findContact(ctx context.Context, name string) (*contactRow, error) {
	rows, err := p.loadContacts(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(name))
	for i := range rows {
		if strings.Contains(strings.ToLower(rows[i].name), needle) {
			return &rows[i], nil
		}
	}
	return nil, nil
}

func (p *ContactsProvider) writeRow(ctx context.Context, rowIndex int, cells []any) error {
	rangeName := fmt.Sprintf("Sheet1!A%d:D%d", rowIndex, rowIndex)
	return p.sheets.updateValues(ctx, p.spreadsheetID, rangeName, [][]any{cells})
}

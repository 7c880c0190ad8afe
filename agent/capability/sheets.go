package capability

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const sheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetsProvider adapts the Google Sheets REST API. The contacts provider
// reuses its value helpers for the contact book sheet.
type SheetsProvider struct {
	client *googleClient
}

var _ contractx.Provider = (*SheetsProvider)(nil)

func NewSheetsProvider(cfg GoogleConfig) (*SheetsProvider, error) {
	client, err := newGoogleClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets provider: %w", err)
	}
	return &SheetsProvider{client: client}, nil
}

func (p *SheetsProvider) Name() string { return "sheets" }

func (p *SheetsProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "create_spreadsheet",
				Description: "Create a new Google Spreadsheet, optionally populated with a 2D array of data. Returns title, id, and URL.",
				Params: []contractx.ToolParam{
					{Name: "title", Type: contractx.ParamString, Description: "Title of the spreadsheet", Required: true},
					{Name: "data", Type: contractx.ParamArray, Description: "Optional 2D array of rows, e.g. [[\"Name\",\"Email\"]]"},
				},
			},
			Handler: p.createSpreadsheet,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "add_sheet_data",
				Description: "Append rows of data to a spreadsheet range.",
				Params: []contractx.ToolParam{
					{Name: "spreadsheet_id", Type: contractx.ParamString, Description: "ID of the spreadsheet", Required: true},
					{Name: "data", Type: contractx.ParamArray, Description: "2D array of rows to append", Required: true},
					{Name: "range", Type: contractx.ParamString, Description: "Target range (default Sheet1)"},
				},
			},
			Handler: p.addSheetData,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "read_sheet_data",
				Description: "Read the values of a spreadsheet range.",
				Params: []contractx.ToolParam{
					{Name: "spreadsheet_id", Type: contractx.ParamString, Description: "ID of the spreadsheet", Required: true},
					{Name: "range", Type: contractx.ParamString, Description: "Range to read (default Sheet1)"},
				},
			},
			Handler: p.readSheetData,
		},
	}
}

func (p *SheetsProvider) createSpreadsheet(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	title, err := requireString(args, "title")
	if err != nil {
		return failure(err.Error()), nil
	}

	var created struct {
		SpreadsheetID  string `json:"spreadsheetId"`
		SpreadsheetURL string `json:"spreadsheetUrl"`
		Properties     struct {
			Title string `json:"title"`
		} `json:"properties"`
	}
	body := map[string]any{"properties": map[string]any{"title": title}}
	if err := p.client.do(ctx, http.MethodPost, sheetsBaseURL+"?fields=spreadsheetId,spreadsheetUrl,properties/title", body, &created); err != nil {
		return failuref("create spreadsheet: %v", err), nil
	}

	if rows := rowsArg(args, "data"); len(rows) > 0 {
		if err := p.appendValues(ctx, created.SpreadsheetID, "Sheet1", rows); err != nil {
			return failuref("populate spreadsheet: %v", err), nil
		}
	}

	return contractx.ToolResult{
		"success": true,
		"id":      created.SpreadsheetID,
		"title":   created.Properties.Title,
		"url":     created.SpreadsheetURL,
	}, nil
}

func (p *SheetsProvider) addSheetData(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	spreadsheetID, err := requireString(args, "spreadsheet_id")
	if err != nil {
		return failure(err.Error()), nil
	}
	rows := rowsArg(args, "data")
	if len(rows) == 0 {
		return failure("data is required"), nil
	}
	rangeName := stringArg(args, "range", "Sheet1")

	if err := p.appendValues(ctx, spreadsheetID, rangeName, rows); err != nil {
		return failuref("append data: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "id": spreadsheetID, "rows_added": len(rows)}, nil
}

func (p *SheetsProvider) readSheetData(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	spreadsheetID, err := requireString(args, "spreadsheet_id")
	if err != nil {
		return failure(err.Error()), nil
	}
	rangeName := stringArg(args, "range", "Sheet1")

	values, err := p.getValues(ctx, spreadsheetID, rangeName)
	if err != nil {
		return failuref("read data: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "id": spreadsheetID, "values": values, "rows": len(values)}, nil
}

func (p *SheetsProvider) appendValues(ctx context.Context, spreadsheetID, rangeName string, rows [][]string) error {
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}

	endpoint := fmt.Sprintf("%s/%s/values/%s:append?valueInputOption=RAW",
		sheetsBaseURL, spreadsheetID, url.PathEscape(rangeName))
	return p.client.do(ctx, http.MethodPost, endpoint, map[string]any{"values": values}, nil)
}

func (p *SheetsProvider) getValues(ctx context.Context, spreadsheetID, rangeName string) ([][]any, error) {
	var out struct {
		Values [][]any `json:"values"`
	}
	endpoint := fmt.Sprintf("%s/%s/values/%s", sheetsBaseURL, spreadsheetID, url.PathEscape(rangeName))
	if err := p.client.do(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out.Values, nil
}

func (p *SheetsProvider) updateValues(ctx context.Context, spreadsheetID, rangeName string, rows [][]any) error {
	endpoint := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW",
		sheetsBaseURL, spreadsheetID, url.PathEscape(rangeName))
	return p.client.do(ctx, http.MethodPut, endpoint, map[string]any{"values": rows}, nil)
}

package capability

import (
	"fmt"
	"strings"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// Argument accessors for model-supplied tool arguments. Omitted optional
// arguments fall back to the operation's documented default; a missing
// required argument becomes a failure result, never a panic.

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func requireString(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func intArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	default:
		return fallback
	}
}

// rowsArg coerces a model-supplied 2D array into [][]string cells.
func rowsArg(args map[string]any, key string) [][]string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	rows := make([][]string, 0, len(raw))
	for _, r := range raw {
		cells, ok := r.([]any)
		if !ok {
			continue
		}
		row := make([]string, 0, len(cells))
		for _, c := range cells {
			row = append(row, fmt.Sprint(c))
		}
		rows = append(rows, row)
	}
	return rows
}

func failure(msg string) contractx.ToolResult {
	return contractx.ToolResult{"success": false, "error": msg}
}

func failuref(format string, a ...any) contractx.ToolResult {
	return failure(fmt.Sprintf(format, a...))
}

// Package promptctx assembles the bounded prompt for one turn from
// persistent memory, project state, and the session history. All truncation
// limits are fixed contract values; changing them changes visible behavior.
package promptctx

import (
	"fmt"
	"sort"
	"strings"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

const (
	memoryTurnLimit     = 3
	replyPreviewLimit   = 200
	snippetsPerCategory = 3
	projectListLimit    = 5
	historyTurnLimit    = 10
	historyCharLimit    = 500
)

// systemPrompt is the fixed persona and behavioral preamble of every turn.
const systemPrompt = `You are the Antigravity Marketing Agent.
Your goal is to help users with SEO, SEM, Google Ads monitoring, and campaign optimization.
You can create documents and spreadsheets, send and search email, look up analytics, fetch and analyze web pages, and manage projects through the tools offered to you.
Be professional, data-driven, and helpful.`

// knownCategories fixes the rendering order of business-context categories;
// unknown categories follow alphabetically.
var knownCategories = []string{"industry", "products", "goals", "challenges"}

// Input carries everything the assembler needs. Any empty piece causes its
// section to be omitted entirely, never rendered blank.
type Input struct {
	Profile       *contractx.UserProfile
	MemoryTurns   []contractx.ConversationTurn
	ActiveProject *contractx.ProjectRecord
	Projects      []contractx.ProjectRecord
	History       []contractx.HistoryEntry
	Message       string
}

// Assemble produces the single prompt string of a turn, in fixed section
// order: system instructions, persisted memory, business context, project
// context, session history, final directive.
func Assemble(in Input) string {
	sections := []string{systemPrompt}

	if s := renderMemory(in.MemoryTurns); s != "" {
		sections = append(sections, s)
	}
	if in.Profile != nil {
		if s := renderBusinessContext(in.Profile.BusinessContext); s != "" {
			sections = append(sections, s)
		}
	}
	if s := renderProject(in.ActiveProject, in.Projects); s != "" {
		sections = append(sections, s)
	}
	if s := renderHistory(in.History); s != "" {
		sections = append(sections, s)
	}

	sections = append(sections, fmt.Sprintf(
		"User message: %s\nAnswer based on all the context above.", in.Message))

	return strings.Join(sections, "\n\n")
}

func renderMemory(turns []contractx.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	if len(turns) > memoryTurnLimit {
		turns = turns[len(turns)-memoryTurnLimit:]
	}

	var b strings.Builder
	b.WriteString("Recent conversation history:")
	for _, turn := range turns {
		b.WriteString("\nUser: ")
		b.WriteString(turn.UserMsg)
		b.WriteString("\nAgent: ")
		b.WriteString(truncate(turn.Response, replyPreviewLimit))
	}
	return b.String()
}

func renderBusinessContext(context map[string][]string) string {
	if len(context) == 0 {
		return ""
	}

	var lines []string
	for _, category := range orderedCategories(context) {
		snippets := context[category]
		if len(snippets) == 0 {
			continue
		}
		if len(snippets) > snippetsPerCategory {
			snippets = snippets[:snippetsPerCategory]
		}
		lines = append(lines, fmt.Sprintf("%s: %s", titleCase(category), strings.Join(snippets, ", ")))
	}
	if len(lines) == 0 {
		return ""
	}
	return "Business Context:\n" + strings.Join(lines, "\n")
}

func renderProject(active *contractx.ProjectRecord, known []contractx.ProjectRecord) string {
	if active != nil {
		var b strings.Builder
		fmt.Fprintf(&b, "🎯 ACTIVE PROJECT: %s", active.Name)
		if active.Domain != "" {
			fmt.Fprintf(&b, "\nDomain: %s", active.Domain)
		}
		if active.Description != "" {
			fmt.Fprintf(&b, "\nDescription: %s", active.Description)
		}
		if active.Industry != "" {
			fmt.Fprintf(&b, "\nIndustry: %s", active.Industry)
		}
		if active.PrimaryObjective != "" {
			fmt.Fprintf(&b, "\n\n🚀 PRIMARY OBJECTIVE: %s", active.PrimaryObjective)
			b.WriteString("\n→ Keep ALL recommendations aligned with this objective")
		}
		return b.String()
	}

	if len(known) == 0 {
		return ""
	}
	if len(known) > projectListLimit {
		known = known[:projectListLimit]
	}

	var b strings.Builder
	b.WriteString("Known Projects:")
	for _, p := range known {
		b.WriteString("\n- ")
		b.WriteString(p.Name)
		if p.Domain != "" {
			fmt.Fprintf(&b, " (%s)", p.Domain)
		}
	}
	return b.String()
}

func renderHistory(history []contractx.HistoryEntry) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > historyTurnLimit {
		history = history[len(history)-historyTurnLimit:]
	}

	var b strings.Builder
	b.WriteString("Current conversation:")
	for _, entry := range history {
		b.WriteString("\n")
		b.WriteString(entry.Role)
		b.WriteString(": ")
		b.WriteString(truncate(entry.Content, historyCharLimit))
	}
	return b.String()
}

// truncate caps s at limit characters, never splitting a rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orderedCategories(context map[string][]string) []string {
	seen := make(map[string]bool, len(context))
	var out []string
	for _, category := range knownCategories {
		if _, ok := context[category]; ok {
			out = append(out, category)
			seen[category] = true
		}
	}
	var rest []string
	for category := range context {
		if !seen[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

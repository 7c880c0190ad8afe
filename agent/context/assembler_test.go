package promptctx

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

func TestAssembleMinimal(t *testing.T) {
	t.Parallel()

	prompt := Assemble(Input{Message: "hello"})

	if !strings.HasPrefix(prompt, "You are the Antigravity Marketing Agent.") {
		t.Fatalf("prompt missing system preamble: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "User message: hello\nAnswer based on all the context above.") {
		t.Fatalf("prompt missing final directive: %q", prompt)
	}
	for _, header := range []string{"Recent conversation history:", "Business Context:", "Known Projects:", "Current conversation:"} {
		if strings.Contains(prompt, header) {
			t.Fatalf("empty section %q must be omitted, got:\n%s", header, prompt)
		}
	}
}

func TestAssembleMemoryPreviewTruncation(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 250)
	prompt := Assemble(Input{
		MemoryTurns: []contractx.ConversationTurn{
			{UserMsg: "earlier question", Response: long},
		},
		Message: "hi",
	})

	want := "Agent: " + strings.Repeat("x", 200) + "..."
	if !strings.Contains(prompt, want) {
		t.Fatalf("reply preview not truncated at 200 chars:\n%s", prompt)
	}
	if strings.Contains(prompt, strings.Repeat("x", 201)) {
		t.Fatalf("untruncated reply leaked into prompt")
	}
}

func TestAssembleTruncationCountsCharacters(t *testing.T) {
	t.Parallel()

	// 400 characters but 800 bytes: under the 500-character history limit.
	entry := strings.Repeat("é", 400)
	prompt := Assemble(Input{
		History: []contractx.HistoryEntry{{Role: "user", Content: entry}},
		Message: "hi",
	})

	if !strings.Contains(prompt, "user: "+entry) {
		t.Fatalf("400-character entry must not be truncated at the 500-character limit")
	}

	// 250 characters of multibyte text: truncated at 200 characters, on a
	// rune boundary.
	reply := strings.Repeat("日", 250)
	prompt = Assemble(Input{
		MemoryTurns: []contractx.ConversationTurn{{UserMsg: "q", Response: reply}},
		Message:     "hi",
	})

	if !utf8.ValidString(prompt) {
		t.Fatalf("assembled prompt contains invalid UTF-8 after preview truncation")
	}
	if !strings.Contains(prompt, "Agent: "+strings.Repeat("日", 200)+"...") {
		t.Fatalf("multibyte reply not truncated at 200 characters:\n%s", prompt)
	}
	if strings.Contains(prompt, strings.Repeat("日", 201)) {
		t.Fatalf("untruncated multibyte reply leaked into prompt")
	}
}

func TestAssembleMemoryTurnCap(t *testing.T) {
	t.Parallel()

	var turns []contractx.ConversationTurn
	for i := 0; i < 6; i++ {
		turns = append(turns, contractx.ConversationTurn{
			UserMsg:  fmt.Sprintf("question %d", i),
			Response: fmt.Sprintf("answer %d", i),
		})
	}

	prompt := Assemble(Input{MemoryTurns: turns, Message: "hi"})

	if strings.Contains(prompt, "question 2") {
		t.Fatalf("older turns beyond the last 3 must be dropped:\n%s", prompt)
	}
	for i := 3; i < 6; i++ {
		if !strings.Contains(prompt, fmt.Sprintf("question %d", i)) {
			t.Fatalf("recent turn %d missing:\n%s", i, prompt)
		}
	}
}

func TestAssembleBusinessContext(t *testing.T) {
	t.Parallel()

	prompt := Assemble(Input{
		Profile: &contractx.UserProfile{
			UserID: "bull",
			BusinessContext: map[string][]string{
				"goals":    {"grow organic traffic", "double newsletter signups", "rank top 3", "a fourth goal"},
				"industry": {"we run a b2b saas company"},
			},
		},
		Message: "hi",
	})

	idxIndustry := strings.Index(prompt, "Industry: we run a b2b saas company")
	idxGoals := strings.Index(prompt, "Goals: grow organic traffic, double newsletter signups, rank top 3")
	if idxIndustry < 0 || idxGoals < 0 {
		t.Fatalf("business context lines missing:\n%s", prompt)
	}
	if idxIndustry > idxGoals {
		t.Fatalf("industry must render before goals:\n%s", prompt)
	}
	if strings.Contains(prompt, "a fourth goal") {
		t.Fatalf("more than 3 snippets per category rendered:\n%s", prompt)
	}
}

func TestAssembleActiveProject(t *testing.T) {
	t.Parallel()

	prompt := Assemble(Input{
		ActiveProject: &contractx.ProjectRecord{
			Name:             "Acme Launch",
			Domain:           "acme.io",
			PrimaryObjective: "grow signups 20%",
		},
		Projects: []contractx.ProjectRecord{{Name: "Other"}},
		Message:  "hi",
	})

	if !strings.Contains(prompt, "🎯 ACTIVE PROJECT: Acme Launch") {
		t.Fatalf("active project block missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "🚀 PRIMARY OBJECTIVE: grow signups 20%") {
		t.Fatalf("primary objective missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "→ Keep ALL recommendations aligned with this objective") {
		t.Fatalf("objective directive missing:\n%s", prompt)
	}
	if strings.Contains(prompt, "Known Projects:") {
		t.Fatalf("project list must not render alongside an active project:\n%s", prompt)
	}
}

func TestAssembleProjectListCap(t *testing.T) {
	t.Parallel()

	var projects []contractx.ProjectRecord
	for i := 0; i < 7; i++ {
		projects = append(projects, contractx.ProjectRecord{
			Name:   fmt.Sprintf("project-%d", i),
			Domain: fmt.Sprintf("p%d.example.com", i),
		})
	}

	prompt := Assemble(Input{Projects: projects, Message: "hi"})

	if !strings.Contains(prompt, "Known Projects:\n- project-0 (p0.example.com)") {
		t.Fatalf("project list missing or malformed:\n%s", prompt)
	}
	if strings.Contains(prompt, "project-5") || strings.Contains(prompt, "project-6") {
		t.Fatalf("project list must stop at 5 entries:\n%s", prompt)
	}
}

func TestAssembleHistoryCaps(t *testing.T) {
	t.Parallel()

	var history []contractx.HistoryEntry
	for i := 0; i < 12; i++ {
		history = append(history, contractx.HistoryEntry{
			Role:    "user",
			Content: fmt.Sprintf("message %d", i),
		})
	}
	history = append(history, contractx.HistoryEntry{
		Role:    "assistant",
		Content: strings.Repeat("y", 600),
	})

	prompt := Assemble(Input{History: history, Message: "hi"})

	if strings.Contains(prompt, "message 2") {
		t.Fatalf("history beyond the last 10 entries must be dropped:\n%s", prompt)
	}
	if !strings.Contains(prompt, "message 11") {
		t.Fatalf("recent history entry missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "assistant: "+strings.Repeat("y", 500)+"...") {
		t.Fatalf("history entry not truncated at 500 chars:\n%s", prompt)
	}
}

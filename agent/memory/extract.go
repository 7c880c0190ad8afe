package memory

import "strings"

// BusinessKeywords is the fixed category -> keyword map used to capture
// business context from user messages.
var BusinessKeywords = map[string][]string{
	"industry":   {"industry", "business", "company", "sector"},
	"products":   {"product", "service", "offering"},
	"goals":      {"goal", "target", "objective", "want to", "need to"},
	"challenges": {"problem", "challenge", "issue", "struggle"},
}

// ExtractBusinessContext captures, per category, the sentences of message
// that contain one of the category's keywords. For each matching keyword the
// first containing sentence is kept; snippets are deduplicated per category.
// Pure function over (message, keywords); storage-independent.
func ExtractBusinessContext(message string, keywords map[string][]string) map[string][]string {
	lower := strings.ToLower(message)
	sentences := strings.Split(message, ".")

	out := make(map[string][]string)
	for category, words := range keywords {
		for _, keyword := range words {
			if !strings.Contains(lower, keyword) {
				continue
			}
			for _, sentence := range sentences {
				trimmed := strings.TrimSpace(sentence)
				if trimmed == "" {
					continue
				}
				if !strings.Contains(strings.ToLower(sentence), keyword) {
					continue
				}
				if !containsString(out[category], trimmed) {
					out[category] = append(out[category], trimmed)
				}
				break
			}
		}
	}
	return out
}

// MergeContext appends the snippets of add to base, skipping duplicates.
// base may be nil; the merged map is returned.
func MergeContext(base, add map[string][]string) map[string][]string {
	if len(add) == 0 {
		return base
	}
	if base == nil {
		base = make(map[string][]string, len(add))
	}
	for category, snippets := range add {
		for _, s := range snippets {
			if !containsString(base[category], s) {
				base[category] = append(base[category], s)
			}
		}
	}
	return base
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

package memory

import (
	"reflect"
	"testing"
)

func TestExtractBusinessContext(t *testing.T) {
	t.Parallel()

	msg := "We are a company in the retail sector. Our main product is handmade candles. We want to double online sales."

	got := ExtractBusinessContext(msg, BusinessKeywords)

	industry := got["industry"]
	if len(industry) != 1 || industry[0] != "We are a company in the retail sector" {
		t.Fatalf("unexpected industry snippets: %v", industry)
	}
	products := got["products"]
	if len(products) != 1 || products[0] != "Our main product is handmade candles" {
		t.Fatalf("unexpected products snippets: %v", products)
	}
	goals := got["goals"]
	if len(goals) != 1 || goals[0] != "We want to double online sales" {
		t.Fatalf("unexpected goals snippets: %v", goals)
	}
	if len(got["challenges"]) != 0 {
		t.Fatalf("no challenge keyword present, got %v", got["challenges"])
	}
}

func TestExtractBusinessContextDeduplicates(t *testing.T) {
	t.Parallel()

	// "business" and "company" both match the same sentence.
	msg := "Our business is a family company."

	got := ExtractBusinessContext(msg, BusinessKeywords)

	if len(got["industry"]) != 1 {
		t.Fatalf("same sentence captured twice: %v", got["industry"])
	}
}

func TestExtractBusinessContextNoMatch(t *testing.T) {
	t.Parallel()

	got := ExtractBusinessContext("hello there", BusinessKeywords)
	if len(got) != 0 {
		t.Fatalf("expected empty extraction, got %v", got)
	}
}

func TestMergeContext(t *testing.T) {
	t.Parallel()

	base := map[string][]string{
		"goals": {"grow traffic"},
	}
	add := map[string][]string{
		"goals":    {"grow traffic", "double signups"},
		"industry": {"retail business"},
	}

	got := MergeContext(base, add)

	want := map[string][]string{
		"goals":    {"grow traffic", "double signups"},
		"industry": {"retail business"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MergeContext() = %v, want %v", got, want)
	}
}

func TestMergeContextNilBase(t *testing.T) {
	t.Parallel()

	got := MergeContext(nil, map[string][]string{"products": {"candles"}})
	if len(got["products"]) != 1 || got["products"][0] != "candles" {
		t.Fatalf("unexpected merge into nil base: %v", got)
	}

	if out := MergeContext(nil, nil); out != nil {
		t.Fatalf("merging nothing must return nil, got %v", out)
	}
}

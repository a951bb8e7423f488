package service

import (
	"strings"
	"testing"
)

func TestGenerateSlug_LengthAndCharset(t *testing.T) {
	for i := 0; i < 100; i++ {
		slug := GenerateSlug(DefaultSlugLength)
		if len(slug) != DefaultSlugLength {
			t.Fatalf("expected length %d, got %d (%q)", DefaultSlugLength, len(slug), slug)
		}
		for _, r := range slug {
			if !strings.ContainsRune(slugAlphabet, r) {
				t.Fatalf("slug %q contains %q outside the alphanumeric alphabet", slug, r)
			}
		}
	}
}

func TestGenerateSlug_DefaultsLength(t *testing.T) {
	if got := len(GenerateSlug(0)); got != DefaultSlugLength {
		t.Fatalf("expected default length %d, got %d", DefaultSlugLength, got)
	}
}

func TestGenerateSlug_Spread(t *testing.T) {
	// 62^7 values: a run of 1000 should be essentially collision-free.
	// Allow a handful of repeats so the test cannot flake.
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		seen[GenerateSlug(DefaultSlugLength)] = struct{}{}
	}
	if len(seen) < 995 {
		t.Fatalf("expected near-unique slugs, got %d distinct out of 1000", len(seen))
	}
}

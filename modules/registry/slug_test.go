package registry

import (
	"strings"
	"testing"
)

func TestNewSlug(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		slug := newSlug()

		adj, animal, ok := strings.Cut(slug, "-")
		if !ok {
			t.Fatalf("newSlug() = %q, want adjective-animal", slug)
		}
		if !contains(slugAdjectives, adj) {
			t.Errorf("newSlug() adjective %q not in word list", adj)
		}
		if !contains(slugAnimals, animal) {
			t.Errorf("newSlug() animal %q not in word list", animal)
		}
		seen[slug] = true
	}

	// Not a uniqueness guarantee, but 100 draws from ~900 combinations
	// should never collapse to a handful of values.
	if len(seen) < 10 {
		t.Errorf("newSlug() produced only %d distinct slugs in 100 draws", len(seen))
	}
}

func contains(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}

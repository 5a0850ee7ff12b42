package recipe

import (
	"context"
	"testing"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

func TestMemorySourceList(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	recipes, err := src.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recipes) < 5 {
		t.Fatalf("expected at least 5 recipes, got %d", len(recipes))
	}
	for i := 1; i < len(recipes); i++ {
		if recipes[i-1].Title > recipes[i].Title {
			t.Fatalf("list not sorted by title: %q before %q", recipes[i-1].Title, recipes[i].Title)
		}
	}
}

func TestMemorySourceGet(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	tests := []struct {
		id      string
		wantErr error
	}{
		{"masala-dosa", nil},
		{"paneer-butter-masala", nil},
		{"lemon-rice", nil},
		{"nonexistent", domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			r, err := src.Get(ctx, tt.id)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.ID != tt.id {
				t.Fatalf("expected ID %s, got %s", tt.id, r.ID)
			}
			if len(r.Instructions) == 0 {
				t.Fatal("recipe has no instructions")
			}
			if len(r.Ingredients) == 0 {
				t.Fatal("recipe has no ingredients")
			}
		})
	}
}

func TestMemorySourceSearch(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	src := NewMemorySource(log)
	ctx := context.Background()

	tests := []struct {
		query    string
		minCount int
		wantTop  string
	}{
		{"find me a paneer curry", 1, "paneer-butter-masala"},
		{"masala dosa", 1, "masala-dosa"},
		{"something with rice", 2, ""},
		{"a quick tangy lunch", 1, "lemon-rice"},
		{"nonexistent-query-xyz", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			results, err := src.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(results) < tt.minCount {
				t.Fatalf("query=%q: expected at least %d results, got %d", tt.query, tt.minCount, len(results))
			}
			if tt.wantTop != "" && results[0].ID != tt.wantTop {
				t.Fatalf("query=%q: expected top result %s, got %s (%.2f)", tt.query, tt.wantTop, results[0].ID, results[0].Similarity)
			}
			for i := 1; i < len(results); i++ {
				if results[i-1].Similarity < results[i].Similarity {
					t.Fatalf("results not ordered by similarity: %v", results)
				}
			}
		})
	}
}

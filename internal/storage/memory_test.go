package storage

import (
	"context"
	"testing"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

func testSession(id string) *domain.Session {
	sess := domain.NewSession(id)
	sess.SetResponse("masala-dosa", "Masala Dosa", &domain.StructuredResponse{
		Greeting: "Let's make Masala Dosa together.",
		Ingredients: []domain.IngredientItem{
			{Text: "2 cups rice"},
		},
		Steps: []domain.StepItem{
			{StepNum: 1, Text: "Soak the rice."},
			{StepNum: 2, Text: "Grind into batter."},
		},
		Closing: "Enjoy!",
	})
	return sess
}

func TestMemoryStoreCRUD(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemoryStore(log)
	ctx := context.Background()

	session := testSession("test-session-1")

	// Save.
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Load.
	loaded, err := store.Load(ctx, "test-session-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != session.ID {
		t.Fatalf("expected ID %s, got %s", session.ID, loaded.ID)
	}
	if loaded.RecipeTitle != "Masala Dosa" {
		t.Fatalf("recipe title lost: %q", loaded.RecipeTitle)
	}

	// Load nonexistent.
	_, err = store.Load(ctx, "nonexistent")
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// ListActive.
	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(active))
	}

	// Delete.
	if err := store.Delete(ctx, "test-session-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = store.Load(ctx, "test-session-1")
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Delete nonexistent.
	if err := store.Delete(ctx, "nonexistent"); err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListActiveFilters(t *testing.T) {
	log := logger.New(logger.LevelOff, nil)
	store := NewMemoryStore(log)
	ctx := context.Background()

	selected := domain.NewSession("s1")
	selected.State = domain.StateRecipeSelected

	cooking := domain.NewSession("s2")
	cooking.State = domain.StateCooking

	paused := domain.NewSession("s3")
	paused.State = domain.StatePaused

	idle := domain.NewSession("s4")

	completed := domain.NewSession("s5")
	completed.State = domain.StateCompleted

	for _, s := range []*domain.Session{selected, cooking, paused, idle, completed} {
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save %s: %v", s.ID, err)
		}
	}

	active, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 3 {
		t.Fatalf("expected 3 in-flight sessions, got %d", len(active))
	}
}

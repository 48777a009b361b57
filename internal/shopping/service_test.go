package shopping

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"weekly-meal-planner/internal/database"
	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
)

type fixture struct {
	service *Service
	items   *Repository
	recipes *recipe.Repository
	plans   *planner.PlanRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	recipes := recipe.NewRepository(db.SQL)
	plans := planner.NewPlanRepository(db.SQL)
	items := NewRepository(db.SQL)
	return &fixture{
		service: NewService(plans, recipes, items),
		items:   items,
		recipes: recipes,
		plans:   plans,
	}
}

var testWeek = time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

// seedWeek creates two recipes sharing a tomato ingredient and assigns both
// to the test week's plan.
func (f *fixture) seedWeek(t *testing.T, ctx context.Context, userID string) (string, string) {
	t.Helper()

	pastaID, err := f.recipes.Create(ctx, recipe.Recipe{
		UserID: userID, Name: "Pasta al pomodoro", Category: recipe.CategoryDinner, Servings: 2,
	}, []recipe.Ingredient{
		{Name: "tomato", Quantity: "200", Unit: "g"},
		{Name: "spaghetti", Quantity: "180", Unit: "g"},
	})
	if err != nil {
		t.Fatalf("Create pasta failed: %v", err)
	}

	bruschettaID, err := f.recipes.Create(ctx, recipe.Recipe{
		UserID: userID, Name: "Bruschetta", Category: recipe.CategoryLunch, Servings: 2,
	}, []recipe.Ingredient{
		{Name: "tomato", Quantity: "1", Unit: "g"},
		{Name: "bread", Quantity: "4", Unit: "pz"},
	})
	if err != nil {
		t.Fatalf("Create bruschetta failed: %v", err)
	}

	var grid planner.Grid
	grid.Assign(planner.Monday, planner.Dinner, pastaID)
	grid.Assign(planner.Tuesday, planner.Lunch, bruschettaID)
	if err := f.plans.Upsert(ctx, userID, testWeek, grid); err != nil {
		t.Fatalf("Upsert plan failed: %v", err)
	}
	return pastaID, bruschettaID
}

func findItem(items []Item, name string) *Item {
	for i := range items {
		if items[i].IngredientName == name {
			return &items[i]
		}
	}
	return nil
}

func TestRegenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("MergesAcrossRecipes", func(t *testing.T) {
		f := newFixture(t)
		pastaID, bruschettaID := f.seedWeek(t, ctx, "u")

		items, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("Expected 3 items (tomato merged), got %d", len(items))
		}

		tomato := findItem(items, "tomato")
		if tomato == nil {
			t.Fatal("Expected a tomato item")
		}
		if tomato.Quantity != "201" || tomato.Unit != "g" {
			t.Errorf("Tomato = %s %s, want 201 g", tomato.Quantity, tomato.Unit)
		}
		if len(tomato.RecipeIDs) != 2 {
			t.Errorf("Tomato should trace to both recipes, got %v", tomato.RecipeIDs)
		}
		for _, id := range tomato.RecipeIDs {
			if id != pastaID && id != bruschettaID {
				t.Errorf("Unexpected contributing recipe %q", id)
			}
		}
	})

	t.Run("NoPlan", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Regenerate(ctx, "u", testWeek)
		if !errors.Is(err, ErrNoMealPlan) {
			t.Errorf("Expected ErrNoMealPlan, got %v", err)
		}
	})

	t.Run("EmptyPlanLeavesExistingListAlone", func(t *testing.T) {
		f := newFixture(t)
		f.seedWeek(t, ctx, "u")

		if _, err := f.service.Regenerate(ctx, "u", testWeek); err != nil {
			t.Fatalf("Initial Regenerate failed: %v", err)
		}

		// Empty out every slot, then regenerate: precondition must fail
		// before any deletion happens.
		if err := f.plans.Upsert(ctx, "u", testWeek, planner.Grid{}); err != nil {
			t.Fatalf("Upsert empty grid failed: %v", err)
		}

		_, err := f.service.Regenerate(ctx, "u", testWeek)
		if !errors.Is(err, ErrEmptyPlan) {
			t.Fatalf("Expected ErrEmptyPlan, got %v", err)
		}

		list, err := f.items.ListWeek(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("ListWeek failed: %v", err)
		}
		if len(list.NotPurchased) != 3 {
			t.Errorf("Prior list should be untouched, got %d items", len(list.NotPurchased))
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		f := newFixture(t)
		f.seedWeek(t, ctx, "u")

		first, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("First Regenerate failed: %v", err)
		}
		second, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("Second Regenerate failed: %v", err)
		}

		if len(first) != len(second) {
			t.Fatalf("Item counts differ: %d vs %d", len(first), len(second))
		}
		for i := range first {
			a, b := first[i], second[i]
			if a.IngredientName != b.IngredientName || a.Quantity != b.Quantity || a.Unit != b.Unit {
				t.Errorf("Run mismatch at %d: %+v vs %+v", i, a, b)
			}
		}
	})

	t.Run("DiscardsManualEdits", func(t *testing.T) {
		f := newFixture(t)
		f.seedWeek(t, ctx, "u")

		items, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}

		tomato := findItem(items, "tomato")
		if err := f.items.TogglePurchased(ctx, "u", tomato.ID); err != nil {
			t.Fatalf("TogglePurchased failed: %v", err)
		}
		if err := f.items.EditQuantity(ctx, "u", tomato.ID, "999"); err != nil {
			t.Fatalf("EditQuantity failed: %v", err)
		}

		regenerated, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		fresh := findItem(regenerated, "tomato")
		if fresh == nil {
			t.Fatal("Expected tomato after regeneration")
		}
		if fresh.Purchased {
			t.Error("Regenerated item should start not purchased")
		}
		if fresh.Quantity != "201" {
			t.Errorf("Regenerated quantity = %q, want recomputed \"201\"", fresh.Quantity)
		}
	})

	t.Run("HardDeletesSoftDeletedItems", func(t *testing.T) {
		f := newFixture(t)
		f.seedWeek(t, ctx, "u")

		items, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		bread := findItem(items, "bread")
		if err := f.items.SoftDelete(ctx, "u", bread.ID); err != nil {
			t.Fatalf("SoftDelete failed: %v", err)
		}

		regenerated, err := f.service.Regenerate(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("Regenerate failed: %v", err)
		}
		// Regeneration replaces everything; bread is back as a fresh row.
		fresh := findItem(regenerated, "bread")
		if fresh == nil {
			t.Fatal("Expected bread to reappear after regeneration")
		}
		if fresh.ID == bread.ID {
			t.Error("Expected a new row, not the soft-deleted one")
		}
	})

	t.Run("ScopedToUser", func(t *testing.T) {
		f := newFixture(t)
		f.seedWeek(t, ctx, "alice")
		f.seedWeek(t, ctx, "bob")

		if _, err := f.service.Regenerate(ctx, "alice", testWeek); err != nil {
			t.Fatalf("Regenerate for alice failed: %v", err)
		}

		list, err := f.items.ListWeek(ctx, "bob", testWeek)
		if err != nil {
			t.Fatalf("ListWeek failed: %v", err)
		}
		if len(list.NotPurchased)+len(list.Purchased) != 0 {
			t.Error("Bob's week should be empty; regeneration must stay user-scoped")
		}
	})
}

func TestItemStateMachine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWeek(t, ctx, "u")

	items, err := f.service.Regenerate(ctx, "u", testWeek)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	tomato := findItem(items, "tomato")
	bread := findItem(items, "bread")

	t.Run("ToggleFlipsOnlyTarget", func(t *testing.T) {
		if err := f.items.TogglePurchased(ctx, "u", tomato.ID); err != nil {
			t.Fatalf("TogglePurchased failed: %v", err)
		}

		got, err := f.items.Get(ctx, "u", tomato.ID)
		if err != nil || got == nil {
			t.Fatalf("Get failed: %v, %v", got, err)
		}
		if !got.Purchased {
			t.Error("Expected purchased=true after toggle")
		}

		other, err := f.items.Get(ctx, "u", bread.ID)
		if err != nil || other == nil {
			t.Fatalf("Get failed: %v, %v", other, err)
		}
		if other.Purchased {
			t.Error("Toggle must not touch other items")
		}

		// Toggle back.
		if err := f.items.TogglePurchased(ctx, "u", tomato.ID); err != nil {
			t.Fatalf("TogglePurchased failed: %v", err)
		}
		got, _ = f.items.Get(ctx, "u", tomato.ID)
		if got.Purchased {
			t.Error("Expected purchased=false after second toggle")
		}
	})

	t.Run("EditQuantityStoresTextVerbatim", func(t *testing.T) {
		if err := f.items.EditQuantity(ctx, "u", tomato.ID, "circa 250"); err != nil {
			t.Fatalf("EditQuantity failed: %v", err)
		}
		got, _ := f.items.Get(ctx, "u", tomato.ID)
		if got.Quantity != "circa 250" {
			t.Errorf("Quantity = %q, want verbatim \"circa 250\"", got.Quantity)
		}
	})

	t.Run("SoftDeleteHidesFromList", func(t *testing.T) {
		if err := f.items.SoftDelete(ctx, "u", bread.ID); err != nil {
			t.Fatalf("SoftDelete failed: %v", err)
		}

		list, err := f.items.ListWeek(ctx, "u", testWeek)
		if err != nil {
			t.Fatalf("ListWeek failed: %v", err)
		}
		for _, item := range append(list.NotPurchased, list.Purchased...) {
			if item.ID == bread.ID {
				t.Error("Soft-deleted item must not appear in the list")
			}
		}

		// The row itself survives until regeneration.
		got, err := f.items.Get(ctx, "u", bread.ID)
		if err != nil || got == nil {
			t.Fatalf("Get failed: %v, %v", got, err)
		}
		if !got.Deleted {
			t.Error("Expected deleted flag set")
		}
	})

	t.Run("OwnershipEnforced", func(t *testing.T) {
		if err := f.items.TogglePurchased(ctx, "intruder", tomato.ID); err == nil {
			t.Error("Expected error toggling another user's item")
		}
	})
}

func TestListWeekPartitionAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWeek(t, ctx, "u")

	items, err := f.service.Regenerate(ctx, "u", testWeek)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}

	spaghetti := findItem(items, "spaghetti")
	if err := f.items.TogglePurchased(ctx, "u", spaghetti.ID); err != nil {
		t.Fatalf("TogglePurchased failed: %v", err)
	}

	list, err := f.items.ListWeek(ctx, "u", testWeek)
	if err != nil {
		t.Fatalf("ListWeek failed: %v", err)
	}

	if len(list.Purchased) != 1 || list.Purchased[0].IngredientName != "spaghetti" {
		t.Errorf("Purchased partition = %+v", list.Purchased)
	}
	if len(list.NotPurchased) != 2 {
		t.Fatalf("Expected 2 not-purchased items, got %d", len(list.NotPurchased))
	}
	if list.NotPurchased[0].IngredientName > list.NotPurchased[1].IngredientName {
		t.Errorf("Not-purchased items not name-sorted: %s before %s",
			list.NotPurchased[0].IngredientName, list.NotPurchased[1].IngredientName)
	}
}

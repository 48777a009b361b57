package shopping

import (
	"context"
	"errors"
	"time"

	"weekly-meal-planner/internal/planner"
	"weekly-meal-planner/internal/recipe"
)

var (
	// ErrNoMealPlan means no plan record exists for the target week.
	ErrNoMealPlan = errors.New("no meal plan for this week")
	// ErrEmptyPlan means the plan exists but all 21 slots are empty.
	ErrEmptyPlan = errors.New("meal plan has no assigned recipes")
)

// Service regenerates a week's shopping list from its meal plan.
type Service struct {
	plans   *planner.PlanRepository
	recipes *recipe.Repository
	items   *Repository
}

// NewService creates a shopping Service.
func NewService(plans *planner.PlanRepository, recipes *recipe.Repository, items *Repository) *Service {
	return &Service{plans: plans, recipes: recipes, items: items}
}

// Regenerate rebuilds the shopping list for a (user, week) pair from the
// recipes assigned in that week's grid. The existing list, manual quantity
// edits, purchased flags and soft-deletes included, is discarded and
// replaced wholesale. Both precondition failures happen before anything is
// deleted, so a failed call leaves any prior list untouched. Re-running with
// an unchanged plan yields the same items again.
func (s *Service) Regenerate(ctx context.Context, userID string, weekStart time.Time) ([]Item, error) {
	plan, err := s.plans.Get(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrNoMealPlan
	}

	recipeIDs := plan.Grid.RecipeIDsInUse()
	if len(recipeIDs) == 0 {
		return nil, ErrEmptyPlan
	}

	lines, err := s.recipes.IngredientLinesForRecipes(ctx, userID, recipeIDs)
	if err != nil {
		return nil, err
	}

	entries := Aggregate(lines)
	return s.items.ReplaceWeek(ctx, userID, weekStart, entries)
}

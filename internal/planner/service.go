package planner

import (
	"context"
	"fmt"
	"time"

	"weekly-meal-planner/internal/recipe"
)

// Service wires slot assignment to recipe ownership checks. Every operation
// takes the acting user explicitly; nothing is inferred from ambient state.
type Service struct {
	plans   *PlanRepository
	recipes *recipe.Repository
}

// NewService creates a planner Service.
func NewService(plans *PlanRepository, recipes *recipe.Repository) *Service {
	return &Service{plans: plans, recipes: recipes}
}

// Assign puts a recipe into a slot, creating the week's plan if needed.
// The recipe must exist and belong to the acting user.
func (s *Service) Assign(ctx context.Context, userID string, weekStart time.Time, day Day, meal Meal, recipeID string) error {
	rec, err := s.recipes.Get(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("recipe %s not found for user %s", recipeID, userID)
	}

	plan, err := s.plans.Get(ctx, userID, weekStart)
	if err != nil {
		return err
	}

	var grid Grid
	if plan != nil {
		grid = plan.Grid
	}
	grid.Assign(day, meal, recipeID)
	return s.plans.Upsert(ctx, userID, weekStart, grid)
}

// Unassign clears a slot. A missing plan means the slot is already empty,
// which is not an error.
func (s *Service) Unassign(ctx context.Context, userID string, weekStart time.Time, day Day, meal Meal) error {
	plan, err := s.plans.Get(ctx, userID, weekStart)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil // already empty
	}
	plan.Grid.Unassign(day, meal)
	return s.plans.Upsert(ctx, userID, weekStart, plan.Grid)
}

// Get returns the week's plan, or (nil, nil) when none exists.
func (s *Service) Get(ctx context.Context, userID string, weekStart time.Time) (*MealPlan, error) {
	return s.plans.Get(ctx, userID, weekStart)
}

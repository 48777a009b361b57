// Package planner models the weekly meal plan: a fixed 7×3 grid of slots,
// one per (day, meal) pair, each optionally referencing a recipe.
package planner

import (
	"fmt"
	"strings"

	"weekly-meal-planner/internal/recipe"
)

// Day indexes the grid's day axis, Monday first.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	DayCount = 7
)

var dayNames = [DayCount]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (d Day) String() string {
	if d < 0 || d >= DayCount {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// ParseDay maps a lowercase English day name to its Day value.
func ParseDay(s string) (Day, error) {
	for i, name := range dayNames {
		if strings.EqualFold(s, name) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Meal indexes the grid's meal axis.
type Meal int

const (
	Breakfast Meal = iota
	Lunch
	Dinner

	MealCount = 3
)

var mealNames = [MealCount]string{"breakfast", "lunch", "dinner"}

func (m Meal) String() string {
	if m < 0 || m >= MealCount {
		return fmt.Sprintf("Meal(%d)", int(m))
	}
	return mealNames[m]
}

// ParseMeal maps a lowercase meal name to its Meal value.
func ParseMeal(s string) (Meal, error) {
	for i, name := range mealNames {
		if strings.EqualFold(s, name) {
			return Meal(i), nil
		}
	}
	return 0, fmt.Errorf("unknown meal %q", s)
}

// Category returns the recipe category conventionally cooked at this meal,
// used to filter recipe pickers.
func (m Meal) Category() recipe.Category {
	switch m {
	case Breakfast:
		return recipe.CategoryBreakfast
	case Lunch:
		return recipe.CategoryLunch
	default:
		return recipe.CategoryDinner
	}
}

// Grid is the typed slot table for one week. An empty string means the slot
// is free; anything else is a recipe ID.
type Grid struct {
	Slots [DayCount][MealCount]string `json:"slots"`
}

// Assign sets a slot to reference the given recipe.
func (g *Grid) Assign(day Day, meal Meal, recipeID string) {
	g.Slots[day][meal] = recipeID
}

// Unassign clears a slot.
func (g *Grid) Unassign(day Day, meal Meal) {
	g.Slots[day][meal] = ""
}

// RecipeID returns the recipe assigned to a slot, or "" when the slot is free.
func (g *Grid) RecipeID(day Day, meal Meal) string {
	return g.Slots[day][meal]
}

// RecipeIDsInUse returns the distinct recipe IDs assigned anywhere in the
// grid, in day-major slot order of first appearance. The order is
// deterministic so aggregation results are reproducible.
func (g *Grid) RecipeIDsInUse() []string {
	seen := make(map[string]bool)
	var ids []string
	for day := 0; day < DayCount; day++ {
		for meal := 0; meal < MealCount; meal++ {
			id := g.Slots[day][meal]
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// AssignedCount returns the number of filled slots, out of 21.
func (g *Grid) AssignedCount() int {
	count := 0
	for day := 0; day < DayCount; day++ {
		for meal := 0; meal < MealCount; meal++ {
			if g.Slots[day][meal] != "" {
				count++
			}
		}
	}
	return count
}

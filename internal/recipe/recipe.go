// Package recipe holds the recipe and ingredient models and their
// sqlite-backed repository. Recipes are always scoped to an owning user;
// ingredients live and die with their recipe.
package recipe

import "fmt"

// Category classifies a recipe by the meal it is cooked for.
type Category string

const (
	CategoryBreakfast Category = "colazione"
	CategoryLunch     Category = "pranzo"
	CategoryDinner    Category = "cena"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryDinner:
		return true
	}
	return false
}

// Recipe is a user-owned recipe. Meal-plan slots reference recipes by ID
// but never own them.
type Recipe struct {
	ID       string   `json:"id"`
	UserID   string   `json:"user_id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Servings int      `json:"servings"`
}

// Validate checks the basic required fields.
func (r Recipe) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("recipe name is required")
	}
	if !r.Category.Valid() {
		return fmt.Errorf("unknown recipe category %q", r.Category)
	}
	if r.Servings <= 0 {
		return fmt.Errorf("servings must be positive, got %d", r.Servings)
	}
	return nil
}

// Ingredient is one line of a recipe. Quantity is free text: it usually
// parses as a number but values like "qb" (quanto basta) are allowed.
type Ingredient struct {
	ID       string `json:"id"`
	RecipeID string `json:"recipe_id"`
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Position int    `json:"position"`
}

// IngredientLine is an ingredient row annotated with its owning recipe's
// display name, the shape the shopping-list aggregator consumes.
type IngredientLine struct {
	RecipeID   string
	RecipeName string
	Name       string
	Quantity   string
	Unit       string
}

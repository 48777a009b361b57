// Package shopping contains the shopping-list aggregation algorithm and the
// per-item purchased/deleted state handling.
package shopping

import "time"

// Item is one shopping-list row: an aggregated ingredient for a (user, week)
// pair, traceable back to the recipes that contributed it.
type Item struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	WeekStart      time.Time `json:"week_start"`
	IngredientName string    `json:"ingredient_name"`
	Quantity       string    `json:"quantity"`
	Unit           string    `json:"unit"`
	RecipeIDs      []string  `json:"recipe_ids"`
	RecipeNames    []string  `json:"recipe_names"`
	Purchased      bool      `json:"is_purchased"`
	Deleted        bool      `json:"is_deleted"`
}

// WeekList is the active (non-deleted) item set of one week, partitioned the
// way it is presented: things still to buy and things already bought, each
// sorted by ingredient name.
type WeekList struct {
	NotPurchased []Item
	Purchased    []Item
}

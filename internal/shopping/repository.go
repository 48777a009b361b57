package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weekly-meal-planner/internal/week"
)

// Repository handles persistence of shopping-list items.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping-list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// ReplaceWeek hard-deletes every item of a (user, week) pair, soft-deleted
// ones included, and inserts the freshly aggregated entries, all in one
// transaction. A crash can therefore never leave the week half-replaced.
func (r *Repository) ReplaceWeek(ctx context.Context, userID string, weekStart time.Time, entries []Entry) ([]Item, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	weekKey := week.Key(weekStart)
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM shopping_list_items
		WHERE user_id = ? AND week_start_date = ?
	`, userID, weekKey); err != nil {
		return nil, fmt.Errorf("failed to clear previous list: %w", err)
	}

	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		recipeIDs, err := json.Marshal(e.RecipeIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal recipe ids: %w", err)
		}
		recipeNames, err := json.Marshal(e.RecipeNames)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal recipe names: %w", err)
		}

		item := Item{
			ID:             uuid.NewString(),
			UserID:         userID,
			WeekStart:      weekStart,
			IngredientName: e.Name,
			Quantity:       e.Quantity,
			Unit:           e.Unit,
			RecipeIDs:      e.RecipeIDs,
			RecipeNames:    e.RecipeNames,
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shopping_list_items
				(id, user_id, week_start_date, ingredient_name, quantity, unit,
				 recipe_ids, recipe_names, is_purchased, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0)
		`, item.ID, userID, weekKey, item.IngredientName, item.Quantity, item.Unit,
			string(recipeIDs), string(recipeNames)); err != nil {
			return nil, fmt.Errorf("failed to insert shopping item %q: %w", item.IngredientName, err)
		}
		items = append(items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit list replacement: %w", err)
	}
	return items, nil
}

// ListWeek returns the active (non-deleted) items of a week, split into
// not-purchased and purchased, each ordered by ingredient name.
func (r *Repository) ListWeek(ctx context.Context, userID string, weekStart time.Time) (*WeekList, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ingredient_name, quantity, unit, recipe_ids, recipe_names, is_purchased
		FROM shopping_list_items
		WHERE user_id = ? AND week_start_date = ? AND is_deleted = 0
		ORDER BY is_purchased, ingredient_name
	`, userID, week.Key(weekStart))
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	defer rows.Close()

	list := &WeekList{}
	for rows.Next() {
		var item Item
		var recipeIDs, recipeNames string
		if err := rows.Scan(&item.ID, &item.IngredientName, &item.Quantity, &item.Unit,
			&recipeIDs, &recipeNames, &item.Purchased); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		if err := json.Unmarshal([]byte(recipeIDs), &item.RecipeIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe ids: %w", err)
		}
		if err := json.Unmarshal([]byte(recipeNames), &item.RecipeNames); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipe names: %w", err)
		}
		item.UserID = userID
		item.WeekStart = weekStart

		if item.Purchased {
			list.Purchased = append(list.Purchased, item)
		} else {
			list.NotPurchased = append(list.NotPurchased, item)
		}
	}
	return list, rows.Err()
}

// Get retrieves one item owned by the given user. Returns (nil, nil) when
// absent.
func (r *Repository) Get(ctx context.Context, userID, itemID string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, week_start_date, ingredient_name, quantity, unit,
		       recipe_ids, recipe_names, is_purchased, is_deleted
		FROM shopping_list_items
		WHERE id = ? AND user_id = ?
	`, itemID, userID)

	var item Item
	var weekKey, recipeIDs, recipeNames string
	if err := row.Scan(&item.ID, &weekKey, &item.IngredientName, &item.Quantity, &item.Unit,
		&recipeIDs, &recipeNames, &item.Purchased, &item.Deleted); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to get shopping item: %w", err)
	}

	weekStart, err := week.ParseKey(weekKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored week key: %w", err)
	}
	if err := json.Unmarshal([]byte(recipeIDs), &item.RecipeIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe ids: %w", err)
	}
	if err := json.Unmarshal([]byte(recipeNames), &item.RecipeNames); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipe names: %w", err)
	}
	item.UserID = userID
	item.WeekStart = weekStart
	return &item, nil
}

// TogglePurchased flips one item's purchased flag. No other item is touched.
func (r *Repository) TogglePurchased(ctx context.Context, userID, itemID string) error {
	return r.updateItem(ctx, `
		UPDATE shopping_list_items
		SET is_purchased = 1 - is_purchased
		WHERE id = ? AND user_id = ?
	`, itemID, userID)
}

// SoftDelete hides an item from list views. The row stays until the next
// regeneration hard-deletes the whole week.
func (r *Repository) SoftDelete(ctx context.Context, userID, itemID string) error {
	return r.updateItem(ctx, `
		UPDATE shopping_list_items
		SET is_deleted = 1
		WHERE id = ? AND user_id = ?
	`, itemID, userID)
}

// EditQuantity stores the new quantity text verbatim, with no re-parsing.
func (r *Repository) EditQuantity(ctx context.Context, userID, itemID, quantity string) error {
	return r.updateItem(ctx, `
		UPDATE shopping_list_items
		SET quantity = ?
		WHERE id = ? AND user_id = ?
	`, quantity, itemID, userID)
}

func (r *Repository) updateItem(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update shopping item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("shopping item not found")
	}
	return nil
}

package recipe

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Repository is a database-backed repository for recipes and their ingredients.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Create inserts a recipe together with its ingredients in one transaction.
// Empty ingredient names are skipped, matching the form behavior of only
// persisting filled-in rows. The assigned recipe ID is returned.
func (r *Repository) Create(ctx context.Context, rec Recipe, ingredients []Ingredient) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	rec.ID = uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (id, user_id, name, category, servings)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.Name, string(rec.Category), rec.Servings)
	if err != nil {
		return "", fmt.Errorf("failed to insert recipe: %w", err)
	}

	if err := insertIngredients(ctx, tx, rec.ID, ingredients); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit recipe: %w", err)
	}
	return rec.ID, nil
}

// Get retrieves a recipe owned by the given user. Returns (nil, nil) when
// no such recipe exists.
func (r *Repository) Get(ctx context.Context, userID, recipeID string) (*Recipe, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, category, servings
		FROM recipes
		WHERE id = ? AND user_id = ?
	`, recipeID, userID)

	var rec Recipe
	var category string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Name, &category, &rec.Servings); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	rec.Category = Category(category)
	return &rec, nil
}

// ListByUser retrieves all recipes of a user, ordered by name.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Recipe, error) {
	return r.list(ctx, `
		SELECT id, user_id, name, category, servings
		FROM recipes
		WHERE user_id = ?
		ORDER BY name
	`, userID)
}

// ListByUserAndCategory retrieves a user's recipes for one category,
// ordered by name. Used to filter the slot picker to matching meals.
func (r *Repository) ListByUserAndCategory(ctx context.Context, userID string, category Category) ([]Recipe, error) {
	return r.list(ctx, `
		SELECT id, user_id, name, category, servings
		FROM recipes
		WHERE user_id = ? AND category = ?
		ORDER BY name
	`, userID, string(category))
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Recipe, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var rec Recipe
		var category string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Name, &category, &rec.Servings); err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		rec.Category = Category(category)
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}

// Update rewrites a recipe and fully replaces its ingredient set
// (delete-all-then-reinsert) in one transaction.
func (r *Repository) Update(ctx context.Context, rec Recipe, ingredients []Ingredient) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE recipes
		SET name = ?, category = ?, servings = ?
		WHERE id = ? AND user_id = ?
	`, rec.Name, string(rec.Category), rec.Servings, rec.ID, rec.UserID)
	if err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recipe %s not found for user %s", rec.ID, rec.UserID)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredients WHERE recipe_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}
	if err := insertIngredients(ctx, tx, rec.ID, ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe update: %w", err)
	}
	return nil
}

// Delete removes a recipe; its ingredients go with it via the foreign key
// cascade.
func (r *Repository) Delete(ctx context.Context, userID, recipeID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM recipes WHERE id = ? AND user_id = ?
	`, recipeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recipe %s not found for user %s", recipeID, userID)
	}
	return nil
}

// Ingredients retrieves a recipe's ingredients in display order.
func (r *Repository) Ingredients(ctx context.Context, recipeID string) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recipe_id, name, quantity, unit, position
		FROM ingredients
		WHERE recipe_id = ?
		ORDER BY position
	`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Name, &ing.Quantity, &ing.Unit, &ing.Position); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient row: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	return ingredients, rows.Err()
}

// IngredientLinesForRecipes retrieves the ingredient rows of every recipe in
// the given set, annotated with the owning recipe's name. Rows are ordered
// by recipe name then ingredient position so the aggregator's output order
// is stable across runs.
func (r *Repository) IngredientLinesForRecipes(ctx context.Context, userID string, recipeIDs []string) ([]IngredientLine, error) {
	if len(recipeIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(recipeIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(recipeIDs)+1)
	args = append(args, userID)
	for _, id := range recipeIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT i.recipe_id, r.name, i.name, i.quantity, i.unit
		FROM ingredients i
		JOIN recipes r ON r.id = i.recipe_id
		WHERE r.user_id = ? AND i.recipe_id IN (%s)
		ORDER BY r.name, i.position
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ingredient lines: %w", err)
	}
	defer rows.Close()

	var lines []IngredientLine
	for rows.Next() {
		var line IngredientLine
		if err := rows.Scan(&line.RecipeID, &line.RecipeName, &line.Name, &line.Quantity, &line.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func insertIngredients(ctx context.Context, tx *sql.Tx, recipeID string, ingredients []Ingredient) error {
	position := 0
	for _, ing := range ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingredients (id, recipe_id, name, quantity, unit, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), recipeID, ing.Name, ing.Quantity, ing.Unit, position)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient %q: %w", ing.Name, err)
		}
		position++
	}
	return nil
}

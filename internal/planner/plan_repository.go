package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"weekly-meal-planner/internal/week"
)

// MealPlan is one stored plan: the grid for a (user, week) pair.
type MealPlan struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	WeekStart time.Time `json:"week_start"`
	Grid      Grid      `json:"grid"`
}

// PlanRepository is a database-backed repository for meal plans. The grid is
// persisted as a JSON document in a single column.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Upsert writes the grid for a (user, week) pair, creating the plan row if
// none exists yet. Callers never see separate create/update paths.
func (r *PlanRepository) Upsert(ctx context.Context, userID string, weekStart time.Time, grid Grid) error {
	slots, err := json.Marshal(grid)
	if err != nil {
		return fmt.Errorf("failed to marshal plan grid: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meal_plans (id, user_id, week_start_date, slots)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, week_start_date)
		DO UPDATE SET slots = excluded.slots, updated_at = CURRENT_TIMESTAMP
	`, uuid.NewString(), userID, week.Key(weekStart), string(slots))
	if err != nil {
		return fmt.Errorf("failed to upsert meal plan: %w", err)
	}
	return nil
}

// Get retrieves the plan for a (user, week) pair. Returns (nil, nil) when no
// plan exists for that week.
func (r *PlanRepository) Get(ctx context.Context, userID string, weekStart time.Time) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, slots
		FROM meal_plans
		WHERE user_id = ? AND week_start_date = ?
	`, userID, week.Key(weekStart))

	var plan MealPlan
	var slots string
	if err := row.Scan(&plan.ID, &slots); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No plan for this week
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}

	if err := json.Unmarshal([]byte(slots), &plan.Grid); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan grid: %w", err)
	}
	plan.UserID = userID
	plan.WeekStart = weekStart
	return &plan, nil
}

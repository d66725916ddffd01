package mealplan

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the meal plan operations consumed by the API layer.
type Store interface {
	CreatePlan(ctx context.Context, p *MealPlan) error
	GetPlan(ctx context.Context, id int64) (*MealPlan, error)
	ListPlansByOwner(ctx context.Context, ownerID int64) ([]*MealPlan, error)
	DeletePlan(ctx context.Context, id int64) error
	AddRecipe(ctx context.Context, pr *PlanRecipe) error
	RemoveRecipe(ctx context.Context, entryID int64) error
	PlanRecipes(ctx context.Context, planID int64) ([]PlanRecipe, error)
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore and ensures the plan and
// plan-recipe link tables exist. Deleting a plan cascades its recipe links;
// the shopping list store declares its own cascade on the same key.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS meal_plans (
		id BIGSERIAL PRIMARY KEY,
		owner_id BIGINT NOT NULL DEFAULT 0,
		name TEXT NOT NULL DEFAULT '',
		start_date DATE NOT NULL,
		end_date DATE NOT NULL
	);
	CREATE TABLE IF NOT EXISTS mealplan_recipes (
		id BIGSERIAL PRIMARY KEY,
		mealplan_id BIGINT NOT NULL REFERENCES meal_plans(id) ON DELETE CASCADE,
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		meal_type TEXT NOT NULL DEFAULT '',
		scheduled_date DATE NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create meal plan tables: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// CreatePlan inserts a meal plan and fills in the generated id.
func (s *PostgresStore) CreatePlan(ctx context.Context, p *MealPlan) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO meal_plans (owner_id, name, start_date, end_date) VALUES ($1, $2, $3, $4) RETURNING id",
		p.OwnerID, p.Name, p.StartDate, p.EndDate,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert meal plan: %w", err)
	}
	return nil
}

// GetPlan retrieves a meal plan by id, or nil when it does not exist.
func (s *PostgresStore) GetPlan(ctx context.Context, id int64) (*MealPlan, error) {
	var p MealPlan
	err := s.db.GetContext(ctx, &p,
		"SELECT id, owner_id, name, start_date, end_date FROM meal_plans WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Plan not found
		}
		return nil, fmt.Errorf("failed to get meal plan: %w", err)
	}
	return &p, nil
}

// ListPlansByOwner returns every plan owned by a user.
func (s *PostgresStore) ListPlansByOwner(ctx context.Context, ownerID int64) ([]*MealPlan, error) {
	plans := []*MealPlan{}
	err := s.db.SelectContext(ctx, &plans,
		"SELECT id, owner_id, name, start_date, end_date FROM meal_plans WHERE owner_id = $1 ORDER BY start_date", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans: %w", err)
	}
	return plans, nil
}

// DeletePlan removes a plan; recipe links and shopping list items cascade.
func (s *PostgresStore) DeletePlan(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM meal_plans WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete meal plan: %w", err)
	}
	return nil
}

// AddRecipe schedules one recipe occurrence in a plan. The same recipe may
// be scheduled any number of times.
func (s *PostgresStore) AddRecipe(ctx context.Context, pr *PlanRecipe) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO mealplan_recipes (mealplan_id, recipe_id, meal_type, scheduled_date) VALUES ($1, $2, $3, $4) RETURNING id",
		pr.MealPlanID, pr.RecipeID, pr.MealType, pr.ScheduledDate,
	).Scan(&pr.ID)
	if err != nil {
		return fmt.Errorf("failed to schedule recipe: %w", err)
	}
	return nil
}

// RemoveRecipe deletes one scheduled occurrence.
func (s *PostgresStore) RemoveRecipe(ctx context.Context, entryID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM mealplan_recipes WHERE id = $1", entryID); err != nil {
		return fmt.Errorf("failed to remove scheduled recipe: %w", err)
	}
	return nil
}

// PlanRecipes returns every scheduled occurrence of a plan.
func (s *PostgresStore) PlanRecipes(ctx context.Context, planID int64) ([]PlanRecipe, error) {
	entries := []PlanRecipe{}
	err := s.db.SelectContext(ctx, &entries,
		"SELECT id, mealplan_id, recipe_id, meal_type, scheduled_date FROM mealplan_recipes WHERE mealplan_id = $1 ORDER BY scheduled_date, id", planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled recipes: %w", err)
	}
	return entries, nil
}

package shoppinglist

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore implements the Store interface plus the single-item CRUD
// used by the manual shopping list endpoints.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore and ensures its table
// exists. The referenced meal plan and ingredient tables are owned by the
// mealplan and recipe stores and must be created first.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS shopping_list_items (
		id BIGSERIAL PRIMARY KEY,
		mealplan_id BIGINT NOT NULL REFERENCES meal_plans(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
		quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
		unit TEXT NOT NULL DEFAULT '',
		is_checked BOOLEAN NOT NULL DEFAULT FALSE
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create shopping_list_items table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// InTx runs fn inside one transaction; any error rolls back every
// statement fn issued.
func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (after: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// pgTx implements Tx over one open sqlx transaction.
type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) DeleteItems(ctx context.Context, mealPlanID int64) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM shopping_list_items WHERE mealplan_id = $1", mealPlanID); err != nil {
		return fmt.Errorf("failed to delete shopping list items: %w", err)
	}
	return nil
}

// PlanRecipeIDs returns every recipe scheduled in the plan, one entry per
// occurrence. Duplicates are the basis for quantity multiplication.
func (t *pgTx) PlanRecipeIDs(ctx context.Context, mealPlanID int64) ([]int64, error) {
	var ids []int64
	err := t.tx.SelectContext(ctx, &ids,
		"SELECT recipe_id FROM mealplan_recipes WHERE mealplan_id = $1 ORDER BY id", mealPlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to select plan recipes: %w", err)
	}
	return ids, nil
}

func (t *pgTx) RecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]RecipeIngredient, error) {
	query, args, err := sqlx.In(`
		SELECT ri.recipe_id, ri.ingredient_id, ri.quantity, i.name, i.unit
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id IN (?)`, recipeIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build recipe ingredients query: %w", err)
	}

	rows, err := t.tx.QueryxContext(ctx, t.tx.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select recipe ingredients: %w", err)
	}
	defer rows.Close()

	compositions := make(map[int64][]RecipeIngredient)
	for rows.Next() {
		var recipeID int64
		var ing RecipeIngredient
		if err := rows.Scan(&recipeID, &ing.IngredientID, &ing.RawQuantity, &ing.Name, &ing.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan recipe ingredient row: %w", err)
		}
		compositions[recipeID] = append(compositions[recipeID], ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return compositions, nil
}

func (t *pgTx) InsertItem(ctx context.Context, item *Item) error {
	err := t.tx.QueryRowContext(ctx,
		"INSERT INTO shopping_list_items (mealplan_id, ingredient_id, quantity, unit, is_checked) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		item.MealPlanID, item.IngredientID, item.Quantity, item.Unit, item.IsChecked,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list item: %w", err)
	}
	return nil
}

// ItemsForPlan returns the full shopping list of a plan, each row joined
// with the ingredient's current name.
func (s *PostgresStore) ItemsForPlan(ctx context.Context, mealPlanID int64) ([]Item, error) {
	items := []Item{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT s.id, s.mealplan_id, s.ingredient_id, i.name, s.quantity, s.unit, s.is_checked
		FROM shopping_list_items s
		JOIN ingredients i ON i.id = s.ingredient_id
		WHERE s.mealplan_id = $1
		ORDER BY s.id`, mealPlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to select shopping list items: %w", err)
	}
	return items, nil
}

// AddItem inserts one manually-entered line item.
func (s *PostgresStore) AddItem(ctx context.Context, item *Item) error {
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO shopping_list_items (mealplan_id, ingredient_id, quantity, unit, is_checked) VALUES ($1, $2, $3, $4, FALSE) RETURNING id",
		item.MealPlanID, item.IngredientID, item.Quantity, item.Unit,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("failed to add shopping list item: %w", err)
	}
	return nil
}

// ToggleItem flips the is_checked flag of one line item and returns the
// updated row, or nil when the item does not exist.
func (s *PostgresStore) ToggleItem(ctx context.Context, itemID int64) (*Item, error) {
	var item Item
	err := s.db.QueryRowContext(ctx,
		"UPDATE shopping_list_items SET is_checked = NOT is_checked WHERE id = $1 RETURNING id, mealplan_id, ingredient_id, quantity, unit, is_checked",
		itemID,
	).Scan(&item.ID, &item.MealPlanID, &item.IngredientID, &item.Quantity, &item.Unit, &item.IsChecked)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to toggle shopping list item: %w", err)
	}
	return &item, nil
}

// DeleteItem removes one line item. Deleting a missing item is not an error.
func (s *PostgresStore) DeleteItem(ctx context.Context, itemID int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM shopping_list_items WHERE id = $1", itemID); err != nil {
		return fmt.Errorf("failed to delete shopping list item: %w", err)
	}
	return nil
}

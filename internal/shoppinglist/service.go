package shoppinglist

import (
	"context"
	"fmt"
)

// ErrInvalidMealPlanID is returned when Generate is called without a usable
// meal plan identifier. It is raised before any storage access.
var ErrInvalidMealPlanID = fmt.Errorf("meal plan id is required")

// Tx exposes the reads and writes the generator performs inside one
// storage transaction.
type Tx interface {
	DeleteItems(ctx context.Context, mealPlanID int64) error
	PlanRecipeIDs(ctx context.Context, mealPlanID int64) ([]int64, error)
	RecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]RecipeIngredient, error)
	InsertItem(ctx context.Context, item *Item) error
}

// Store runs a function inside a single all-or-nothing transaction.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Generator produces and persists the shopping list for one meal plan.
type Generator struct {
	store Store
}

// NewGenerator creates a new Generator.
func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

// Generate rebuilds the shopping list for a meal plan and returns the
// created line items. The previous list is always wiped first, so a plan
// with no scheduled recipes ends up with an empty list; that is a valid
// terminal state, not an error. Any failure rolls back both the wipe and
// the inserts, leaving the previous list in place.
//
// Two concurrent calls for the same plan race at the storage layer; the
// last committed transaction wins and no merge is attempted.
func (g *Generator) Generate(ctx context.Context, mealPlanID int64) ([]Item, error) {
	if mealPlanID <= 0 {
		return nil, ErrInvalidMealPlanID
	}

	created := []Item{}
	err := g.store.InTx(ctx, func(tx Tx) error {
		if err := tx.DeleteItems(ctx, mealPlanID); err != nil {
			return fmt.Errorf("failed to clear shopping list: %w", err)
		}

		recipeIDs, err := tx.PlanRecipeIDs(ctx, mealPlanID)
		if err != nil {
			return fmt.Errorf("failed to read meal plan recipes: %w", err)
		}
		if len(recipeIDs) == 0 {
			// Nothing scheduled: the wipe stands and the list is empty.
			return nil
		}

		compositions, err := tx.RecipeIngredients(ctx, distinct(recipeIDs))
		if err != nil {
			return fmt.Errorf("failed to read recipe ingredients: %w", err)
		}

		for _, item := range Aggregate(recipeIDs, compositions) {
			item.MealPlanID = mealPlanID
			if err := tx.InsertItem(ctx, &item); err != nil {
				return fmt.Errorf("failed to insert shopping list item: %w", err)
			}
			created = append(created, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// distinct returns the unique ids in first-seen order.
func distinct(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

package recipe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store defines the recipe catalog operations consumed by the API layer.
type Store interface {
	CreateRecipe(ctx context.Context, r *Recipe) error
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	ListRecipes(ctx context.Context) ([]*Recipe, error)
	UpsertIngredient(ctx context.Context, name, unit string) (*Ingredient, error)
	ListIngredients(ctx context.Context) ([]*Ingredient, error)
	SetImagePath(ctx context.Context, recipeID int64, path string) error
}

// PostgresStore implements the Store interface for PostgreSQL.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a new PostgresStore and ensures the recipe,
// ingredient and pairing tables exist.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS ingredients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		unit TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS recipes (
		id BIGSERIAL PRIMARY KEY,
		author_id BIGINT NOT NULL DEFAULT 0,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		servings INT NOT NULL DEFAULT 1,
		image_path TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS recipe_ingredients (
		recipe_id BIGINT NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		ingredient_id BIGINT NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE,
		quantity TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (recipe_id, ingredient_id)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipe tables: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// CreateRecipe inserts a recipe together with its ingredient pairings in
// one transaction and fills in the generated id.
func (s *PostgresStore) CreateRecipe(ctx context.Context, r *Recipe) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		"INSERT INTO recipes (author_id, title, description, servings, image_path) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		r.AuthorID, r.Title, r.Description, r.Servings, r.ImagePath,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	for _, p := range r.Ingredients {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity) VALUES ($1, $2, $3)",
			r.ID, p.IngredientID, p.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert recipe ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recipe: %w", err)
	}
	return nil
}

// GetRecipe retrieves a recipe with its composition, or nil when it does
// not exist.
func (s *PostgresStore) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	var r Recipe
	err := s.db.GetContext(ctx, &r,
		"SELECT id, author_id, title, description, servings, image_path FROM recipes WHERE id = $1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Recipe not found
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	err = s.db.SelectContext(ctx, &r.Ingredients, `
		SELECT ri.ingredient_id, i.name, i.unit, ri.quantity
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = $1
		ORDER BY ri.ingredient_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe ingredients: %w", err)
	}

	return &r, nil
}

// ListRecipes returns every recipe without its composition.
func (s *PostgresStore) ListRecipes(ctx context.Context) ([]*Recipe, error) {
	recipes := []*Recipe{}
	err := s.db.SelectContext(ctx, &recipes,
		"SELECT id, author_id, title, description, servings, image_path FROM recipes ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, nil
}

// UpsertIngredient creates an ingredient or updates the unit of an
// existing one with the same name, and returns the stored row.
func (s *PostgresStore) UpsertIngredient(ctx context.Context, name, unit string) (*Ingredient, error) {
	var ing Ingredient
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO ingredients (name, unit) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET unit = $2 RETURNING id, name, unit",
		name, unit,
	).Scan(&ing.ID, &ing.Name, &ing.Unit)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert ingredient: %w", err)
	}
	return &ing, nil
}

// ListIngredients returns the full ingredient catalog.
func (s *PostgresStore) ListIngredients(ctx context.Context) ([]*Ingredient, error) {
	ingredients := []*Ingredient{}
	err := s.db.SelectContext(ctx, &ingredients, "SELECT id, name, unit FROM ingredients ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

// SetImagePath records the stored photo path of a recipe.
func (s *PostgresStore) SetImagePath(ctx context.Context, recipeID int64, path string) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE recipes SET image_path = $2 WHERE id = $1", recipeID, path); err != nil {
		return fmt.Errorf("failed to set recipe image path: %w", err)
	}
	return nil
}

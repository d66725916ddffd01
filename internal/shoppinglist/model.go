package shoppinglist

// Item is one line of a generated shopping list: the total required
// quantity of one ingredient across every recipe occurrence in a meal plan.
type Item struct {
	ID           int64   `json:"id" db:"id"`
	MealPlanID   int64   `json:"mealplan_id" db:"mealplan_id"`
	IngredientID int64   `json:"ingredient_id" db:"ingredient_id"`
	Name         string  `json:"name,omitempty" db:"name"`
	Quantity     float64 `json:"quantity" db:"quantity"`
	Unit         string  `json:"unit" db:"unit"`
	IsChecked    bool    `json:"is_checked" db:"is_checked"`
}

// RecipeIngredient is one row of a recipe's composition: which ingredient,
// how much of it (raw quantity string as entered by the author), and the
// ingredient's display name and unit label.
type RecipeIngredient struct {
	IngredientID int64  `json:"ingredient_id" db:"ingredient_id"`
	Name         string `json:"name" db:"name"`
	Unit         string `json:"unit" db:"unit"`
	RawQuantity  string `json:"quantity" db:"quantity"`
}

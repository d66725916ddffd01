package recipe

// Ingredient is one catalog entry. The unit is a free-text label shared by
// every recipe pairing of this ingredient (e.g. "g", "quả").
type Ingredient struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Unit string `json:"unit" db:"unit"`
}

// Pairing links a recipe to one ingredient with the raw quantity string as
// entered by the author. The quantity may use a comma as the decimal
// separator; it is parsed leniently at aggregation time, not here.
type Pairing struct {
	IngredientID int64  `json:"ingredient_id" db:"ingredient_id"`
	Name         string `json:"name" db:"name"`
	Unit         string `json:"unit" db:"unit"`
	Quantity     string `json:"quantity" db:"quantity"`
}

// Recipe is a published recipe with its ingredient composition.
type Recipe struct {
	ID          int64     `json:"id" db:"id"`
	AuthorID    int64     `json:"author_id" db:"author_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Servings    int       `json:"servings" db:"servings"`
	ImagePath   string    `json:"image_path" db:"image_path"`
	Ingredients []Pairing `json:"ingredients,omitempty"`
}

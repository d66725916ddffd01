package mealplan

import "time"

// MealPlan is a user-owned schedule of recipes across a date range.
type MealPlan struct {
	ID        int64     `json:"id" db:"id"`
	OwnerID   int64     `json:"owner_id" db:"owner_id"`
	Name      string    `json:"name" db:"name"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
}

// PlanRecipe is one scheduled occurrence of a recipe within a plan.
// (mealplan_id, recipe_id) is not unique: the same recipe scheduled on two
// days is two rows, and each row counts once during list generation.
type PlanRecipe struct {
	ID            int64     `json:"id" db:"id"`
	MealPlanID    int64     `json:"mealplan_id" db:"mealplan_id"`
	RecipeID      int64     `json:"recipe_id" db:"recipe_id"`
	MealType      string    `json:"meal_type" db:"meal_type"`
	ScheduledDate time.Time `json:"scheduled_date" db:"scheduled_date"`
}

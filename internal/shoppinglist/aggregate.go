package shoppinglist

import (
	"sort"
	"strconv"
	"strings"
)

// ParseQuantity parses a raw recipe quantity string. Authors enter these
// free-form and may use a comma as the decimal separator; unparsable or
// empty strings count as zero rather than failing the whole generation.
func ParseQuantity(raw string) float64 {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Aggregate combines ingredient quantities across every recipe occurrence
// in a meal plan into one line item per distinct ingredient.
//
// recipeIDs is the plan's recipe list with duplicates preserved: a recipe
// scheduled N times appears N times and its quantities are multiplied by N.
// compositions maps each distinct recipe id to its ingredient rows.
//
// Each accumulated total is normalized once at the end, so recognized
// mass/volume units come out in grams/milliliters; unrecognized units keep
// the raw sum and the ingredient's own unit label. Output is sorted by
// ingredient id so repeated runs over the same inputs produce identical lists.
func Aggregate(recipeIDs []int64, compositions map[int64][]RecipeIngredient) []Item {
	occurrences := make(map[int64]int, len(recipeIDs))
	for _, id := range recipeIDs {
		occurrences[id]++
	}

	// Recipes are visited in first-seen order, never map order: float
	// addition is not associative, so iterating the occurrence map would
	// make totals vary between runs when an ingredient spans three or
	// more recipes.
	totals := make(map[int64]*Item)
	for _, recipeID := range distinct(recipeIDs) {
		count := occurrences[recipeID]
		for _, ing := range compositions[recipeID] {
			contribution := ParseQuantity(ing.RawQuantity) * float64(count)
			if existing, ok := totals[ing.IngredientID]; ok {
				existing.Quantity += contribution
				continue
			}
			totals[ing.IngredientID] = &Item{
				IngredientID: ing.IngredientID,
				Name:         ing.Name,
				Quantity:     contribution,
				Unit:         ing.Unit,
			}
		}
	}

	items := make([]Item, 0, len(totals))
	for _, item := range totals {
		if norm, ok := Normalize(item.Quantity, item.Unit); ok {
			item.Quantity = norm.Quantity
			item.Unit = norm.Unit
		}
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].IngredientID < items[j].IngredientID })
	return items
}

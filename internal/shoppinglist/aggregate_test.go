package shoppinglist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuantity(t *testing.T) {
	assert.Equal(t, 1.5, ParseQuantity("1,500"))
	assert.Equal(t, 1.5, ParseQuantity("1.5"))
	assert.Equal(t, 200.0, ParseQuantity(" 200 "))
	assert.Equal(t, 0.0, ParseQuantity("abc"))
	assert.Equal(t, 0.0, ParseQuantity(""))
	assert.Equal(t, 0.0, ParseQuantity("   "))
}

func TestAggregate_DuplicateRecipeMultiplication(t *testing.T) {
	// Recipe 1 is scheduled three times; its quantities triple.
	recipeIDs := []int64{1, 1, 1}
	compositions := map[int64][]RecipeIngredient{
		1: {{IngredientID: 10, Name: "trứng", Unit: "quả", RawQuantity: "2"}},
	}

	items := Aggregate(recipeIDs, compositions)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(10), items[0].IngredientID)
	assert.Equal(t, 6.0, items[0].Quantity)
	assert.Equal(t, "qua", items[0].Unit)
}

func TestAggregate_MultiRecipeSummation(t *testing.T) {
	recipeIDs := []int64{1, 2}
	compositions := map[int64][]RecipeIngredient{
		1: {{IngredientID: 7, Name: "flour", Unit: "g", RawQuantity: "100"}},
		2: {{IngredientID: 7, Name: "flour", Unit: "g", RawQuantity: "50"}},
	}

	items := Aggregate(recipeIDs, compositions)
	assert.Len(t, items, 1)
	assert.Equal(t, 150.0, items[0].Quantity)
	assert.Equal(t, "g", items[0].Unit)
	assert.Equal(t, "flour", items[0].Name)
}

func TestAggregate_NormalizesRecognizedUnits(t *testing.T) {
	recipeIDs := []int64{1}
	compositions := map[int64][]RecipeIngredient{
		1: {
			{IngredientID: 1, Name: "thịt bò", Unit: "kg", RawQuantity: "1,5"},
			{IngredientID: 2, Name: "nước mắm", Unit: "muỗng", RawQuantity: "2"},
		},
	}

	items := Aggregate(recipeIDs, compositions)
	assert.Len(t, items, 2)
	// Recognized unit reported in its base unit
	assert.Equal(t, 1500.0, items[0].Quantity)
	assert.Equal(t, "g", items[0].Unit)
	// Unrecognized unit passes through raw
	assert.Equal(t, 2.0, items[1].Quantity)
	assert.Equal(t, "muỗng", items[1].Unit)
}

func TestAggregate_LenientParsing(t *testing.T) {
	recipeIDs := []int64{1}
	compositions := map[int64][]RecipeIngredient{
		1: {
			{IngredientID: 1, Name: "muối", Unit: "g", RawQuantity: "abc"},
			{IngredientID: 2, Name: "đường", Unit: "g", RawQuantity: ""},
		},
	}

	items := Aggregate(recipeIDs, compositions)
	assert.Len(t, items, 2)
	assert.Equal(t, 0.0, items[0].Quantity)
	assert.Equal(t, 0.0, items[1].Quantity)
}

func TestAggregate_EmptyAndUnknownRecipes(t *testing.T) {
	// No occurrences at all
	assert.Empty(t, Aggregate(nil, nil))

	// A recipe with no ingredient rows contributes nothing
	items := Aggregate([]int64{1, 2}, map[int64][]RecipeIngredient{
		2: {{IngredientID: 5, Name: "gạo", Unit: "kg", RawQuantity: "1"}},
	})
	assert.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].IngredientID)
}

func TestAggregate_StableFloatAccumulation(t *testing.T) {
	// One ingredient split across three recipes with quantities whose
	// float sum depends on addition order. The total must match the
	// first-seen recipe order and never vary between runs.
	recipeIDs := []int64{1, 2, 3}
	compositions := map[int64][]RecipeIngredient{
		1: {{IngredientID: 1, Name: "nước mắm", Unit: "muỗng", RawQuantity: "0,1"}},
		2: {{IngredientID: 1, Name: "nước mắm", Unit: "muỗng", RawQuantity: "0,2"}},
		3: {{IngredientID: 1, Name: "nước mắm", Unit: "muỗng", RawQuantity: "0,3"}},
	}

	a, b, c := 0.1, 0.2, 0.3
	expected := a + b + c

	first := Aggregate(recipeIDs, compositions)
	assert.Len(t, first, 1)
	assert.Equal(t, expected, first[0].Quantity)
	for i := 0; i < 2000; i++ {
		assert.Equal(t, first, Aggregate(recipeIDs, compositions))
	}
}

func TestAggregate_DeterministicOrder(t *testing.T) {
	recipeIDs := []int64{1, 2, 2}
	compositions := map[int64][]RecipeIngredient{
		1: {
			{IngredientID: 30, Name: "c", Unit: "g", RawQuantity: "1"},
			{IngredientID: 10, Name: "a", Unit: "g", RawQuantity: "2"},
		},
		2: {{IngredientID: 20, Name: "b", Unit: "g", RawQuantity: "3"}},
	}

	first := Aggregate(recipeIDs, compositions)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Aggregate(recipeIDs, compositions))
	}
	assert.Equal(t, int64(10), first[0].IngredientID)
	assert.Equal(t, int64(20), first[1].IngredientID)
	assert.Equal(t, int64(30), first[2].IngredientID)
	assert.Equal(t, 6.0, first[1].Quantity)
}

package shoppinglist

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeStore implements Store with commit semantics: mutations run against a
// staged copy of the item table and only reach the committed state when the
// transaction function returns nil.
type fakeStore struct {
	items        map[int64][]Item
	planRecipes  map[int64][]int64
	compositions map[int64][]RecipeIngredient
	nextID       int64

	deleteErr      error
	readErr        error
	insertErr      error
	insertErrAfter int
	txCalls        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:        make(map[int64][]Item),
		planRecipes:  make(map[int64][]int64),
		compositions: make(map[int64][]RecipeIngredient),
	}
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.txCalls++
	staged := make(map[int64][]Item, len(s.items))
	for plan, items := range s.items {
		staged[plan] = append([]Item(nil), items...)
	}
	tx := &fakeTx{store: s, staged: staged}
	if err := fn(tx); err != nil {
		return err // staged copy is discarded
	}
	s.items = tx.staged
	return nil
}

type fakeTx struct {
	store   *fakeStore
	staged  map[int64][]Item
	inserts int
}

func (t *fakeTx) DeleteItems(ctx context.Context, mealPlanID int64) error {
	if t.store.deleteErr != nil {
		return t.store.deleteErr
	}
	delete(t.staged, mealPlanID)
	return nil
}

func (t *fakeTx) PlanRecipeIDs(ctx context.Context, mealPlanID int64) ([]int64, error) {
	if t.store.readErr != nil {
		return nil, t.store.readErr
	}
	return t.store.planRecipes[mealPlanID], nil
}

func (t *fakeTx) RecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]RecipeIngredient, error) {
	out := make(map[int64][]RecipeIngredient)
	for _, id := range recipeIDs {
		if rows, ok := t.store.compositions[id]; ok {
			out[id] = rows
		}
	}
	return out, nil
}

func (t *fakeTx) InsertItem(ctx context.Context, item *Item) error {
	t.inserts++
	if t.store.insertErr != nil && t.inserts > t.store.insertErrAfter {
		return t.store.insertErr
	}
	t.store.nextID++
	item.ID = t.store.nextID
	t.staged[item.MealPlanID] = append(t.staged[item.MealPlanID], *item)
	return nil
}

func TestGenerate(t *testing.T) {
	store := newFakeStore()
	store.planRecipes[1] = []int64{100, 200, 100}
	store.compositions[100] = []RecipeIngredient{
		{IngredientID: 1, Name: "flour", Unit: "g", RawQuantity: "100"},
		{IngredientID: 2, Name: "trứng", Unit: "quả", RawQuantity: "2"},
	}
	store.compositions[200] = []RecipeIngredient{
		{IngredientID: 1, Name: "flour", Unit: "g", RawQuantity: "50"},
	}

	gen := NewGenerator(store)
	items, err := gen.Generate(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	// Recipe 100 occurs twice: flour 100*2 + 50, eggs 2*2
	assert.Equal(t, int64(1), items[0].IngredientID)
	assert.Equal(t, 250.0, items[0].Quantity)
	assert.Equal(t, "g", items[0].Unit)
	assert.Equal(t, int64(2), items[1].IngredientID)
	assert.Equal(t, 4.0, items[1].Quantity)
	assert.Equal(t, "qua", items[1].Unit)

	// Every created row carries the plan id and a storage-assigned id
	for _, item := range items {
		assert.Equal(t, int64(1), item.MealPlanID)
		assert.NotZero(t, item.ID)
		assert.False(t, item.IsChecked)
	}

	// The new list was committed
	assert.Len(t, store.items[1], 2)
}

func TestGenerate_InvalidPlanID(t *testing.T) {
	store := newFakeStore()
	gen := NewGenerator(store)

	_, err := gen.Generate(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidMealPlanID)

	_, err = gen.Generate(context.Background(), -7)
	assert.ErrorIs(t, err, ErrInvalidMealPlanID)

	// The precondition fails before any storage access
	assert.Equal(t, 0, store.txCalls)
}

func TestGenerate_EmptyPlan(t *testing.T) {
	store := newFakeStore()
	store.items[1] = []Item{{ID: 9, MealPlanID: 1, IngredientID: 5, Quantity: 3, Unit: "g"}}

	gen := NewGenerator(store)
	items, err := gen.Generate(context.Background(), 1)
	assert.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	// The wipe of the stale list is committed
	assert.Empty(t, store.items[1])
}

func TestGenerate_Idempotent(t *testing.T) {
	store := newFakeStore()
	store.planRecipes[1] = []int64{100, 100}
	store.compositions[100] = []RecipeIngredient{
		{IngredientID: 1, Name: "gạo", Unit: "kg", RawQuantity: "0,5"},
	}

	gen := NewGenerator(store)
	first, err := gen.Generate(context.Background(), 1)
	assert.NoError(t, err)
	second, err := gen.Generate(context.Background(), 1)
	assert.NoError(t, err)

	assert.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].IngredientID, second[i].IngredientID)
		assert.Equal(t, first[i].Quantity, second[i].Quantity)
		assert.Equal(t, first[i].Unit, second[i].Unit)
	}
	assert.Equal(t, 1000.0, first[0].Quantity)
	assert.Equal(t, "g", first[0].Unit)
	assert.Len(t, store.items[1], 1)
}

func TestGenerate_ReplacesManualItems(t *testing.T) {
	store := newFakeStore()
	store.planRecipes[1] = []int64{100}
	store.compositions[100] = []RecipeIngredient{
		{IngredientID: 1, Name: "flour", Unit: "g", RawQuantity: "100"},
	}
	// A manually added item whose ingredient appears in no scheduled recipe
	store.items[1] = []Item{{ID: 50, MealPlanID: 1, IngredientID: 99, Quantity: 1, Unit: "goi"}}

	gen := NewGenerator(store)
	items, err := gen.Generate(context.Background(), 1)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].IngredientID)

	for _, item := range store.items[1] {
		assert.NotEqual(t, int64(99), item.IngredientID)
	}
}

func TestGenerate_RollbackOnInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.planRecipes[1] = []int64{100}
	store.compositions[100] = []RecipeIngredient{
		{IngredientID: 1, Name: "flour", Unit: "g", RawQuantity: "100"},
		{IngredientID: 2, Name: "sugar", Unit: "g", RawQuantity: "20"},
	}
	previous := []Item{{ID: 3, MealPlanID: 1, IngredientID: 7, Quantity: 2, Unit: "qua"}}
	store.items[1] = append([]Item(nil), previous...)

	// First insert succeeds, second fails partway through
	store.insertErr = fmt.Errorf("constraint violation")
	store.insertErrAfter = 1

	gen := NewGenerator(store)
	_, err := gen.Generate(context.Background(), 1)
	assert.Error(t, err)

	// Both the wipe and the partial inserts rolled back
	assert.Equal(t, previous, store.items[1])
}

func TestGenerate_StorageReadFailure(t *testing.T) {
	store := newFakeStore()
	store.items[1] = []Item{{ID: 3, MealPlanID: 1, IngredientID: 7, Quantity: 2, Unit: "qua"}}
	store.readErr = fmt.Errorf("connection reset")

	gen := NewGenerator(store)
	_, err := gen.Generate(context.Background(), 1)
	assert.Error(t, err)
	assert.Len(t, store.items[1], 1)
}

package api

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nfnt/resize"

	"cookshare/internal/mealplan"
	"cookshare/internal/platform/gemini"
	"cookshare/internal/recipe"
	"cookshare/internal/shoppinglist"
)

const dateLayout = "2006-01-02"

// Generator defines the shopping list generation operation.
type Generator interface {
	Generate(ctx context.Context, mealPlanID int64) ([]shoppinglist.Item, error)
}

// ShoppingListStore defines the single-item shopping list operations.
type ShoppingListStore interface {
	ItemsForPlan(ctx context.Context, mealPlanID int64) ([]shoppinglist.Item, error)
	AddItem(ctx context.Context, item *shoppinglist.Item) error
	ToggleItem(ctx context.Context, itemID int64) (*shoppinglist.Item, error)
	DeleteItem(ctx context.Context, itemID int64) error
}

// MealPlanStore defines the meal plan operations used by the handlers.
type MealPlanStore interface {
	CreatePlan(ctx context.Context, p *mealplan.MealPlan) error
	GetPlan(ctx context.Context, id int64) (*mealplan.MealPlan, error)
	ListPlansByOwner(ctx context.Context, ownerID int64) ([]*mealplan.MealPlan, error)
	DeletePlan(ctx context.Context, id int64) error
	AddRecipe(ctx context.Context, pr *mealplan.PlanRecipe) error
	RemoveRecipe(ctx context.Context, entryID int64) error
	PlanRecipes(ctx context.Context, planID int64) ([]mealplan.PlanRecipe, error)
}

// RecipeStore defines the recipe catalog operations used by the handlers.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, r *recipe.Recipe) error
	GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error)
	ListRecipes(ctx context.Context) ([]*recipe.Recipe, error)
	UpsertIngredient(ctx context.Context, name, unit string) (*recipe.Ingredient, error)
	ListIngredients(ctx context.Context) ([]*recipe.Ingredient, error)
	SetImagePath(ctx context.Context, recipeID int64, path string) error
}

// SuggestionClient defines the recipe suggestion operation.
type SuggestionClient interface {
	SuggestRecipes(ctx context.Context, ingredients []string) ([]gemini.Suggestion, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Generator        Generator
	ShoppingList     ShoppingListStore
	MealPlans        MealPlanStore
	Recipes          RecipeStore
	SuggestionClient SuggestionClient
	ImageDir         string
}

// NewHandler creates a new Handler. suggestions may be nil when no Gemini
// API key is configured.
func NewHandler(generator Generator, shoppingList ShoppingListStore, mealPlans MealPlanStore, recipes RecipeStore, suggestions SuggestionClient) *Handler {
	return &Handler{
		Generator:        generator,
		ShoppingList:     shoppingList,
		MealPlans:        mealPlans,
		Recipes:          recipes,
		SuggestionClient: suggestions,
		ImageDir:         "images",
	}
}

// GenerateShoppingList rebuilds the shopping list of a meal plan.
func (h *Handler) GenerateShoppingList(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("mealplan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal plan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	items, err := h.Generator.Generate(ctx, planID)
	if err != nil {
		if errors.Is(err, shoppinglist.ErrInvalidMealPlanID) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusRequestTimeout, gin.H{"success": false, "error": "shopping list generation timed out"})
			return
		}
		log.Printf("shopping list generation failed for plan %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// GetShoppingList returns every line item of a plan's shopping list.
func (h *Handler) GetShoppingList(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("mealplan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal plan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	items, err := h.ShoppingList.ItemsForPlan(ctx, planID)
	if err != nil {
		log.Printf("failed to read shopping list for plan %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
}

// addItemRequest accepts the quantity as either a JSON number or a string;
// whatever cannot be parsed becomes zero.
type addItemRequest struct {
	MealPlanID   int64       `json:"mealplan_id"`
	IngredientID int64       `json:"ingredient_id"`
	Quantity     interface{} `json:"quantity"`
	Unit         string      `json:"unit"`
}

func coerceQuantity(v interface{}) float64 {
	switch q := v.(type) {
	case float64:
		return q
	case string:
		return shoppinglist.ParseQuantity(q)
	default:
		return 0
	}
}

// AddShoppingListItem inserts a manually-entered line item.
func (h *Handler) AddShoppingListItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	if req.MealPlanID <= 0 || req.IngredientID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "mealplan_id and ingredient_id are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item := &shoppinglist.Item{
		MealPlanID:   req.MealPlanID,
		IngredientID: req.IngredientID,
		Quantity:     coerceQuantity(req.Quantity),
		Unit:         req.Unit,
	}
	if err := h.ShoppingList.AddItem(ctx, item); err != nil {
		log.Printf("failed to add shopping list item: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

// ToggleShoppingListItem flips the is_checked flag of one line item.
func (h *Handler) ToggleShoppingListItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid item id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	item, err := h.ShoppingList.ToggleItem(ctx, itemID)
	if err != nil {
		log.Printf("failed to toggle shopping list item %d: %v", itemID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "item not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

// DeleteShoppingListItem removes one line item.
func (h *Handler) DeleteShoppingListItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid item id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.ShoppingList.DeleteItem(ctx, itemID); err != nil {
		log.Printf("failed to delete shopping list item %d: %v", itemID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SuggestRecipes asks the suggestion client for dishes cookable from a
// plan's current shopping list.
func (h *Handler) SuggestRecipes(c *gin.Context) {
	if h.SuggestionClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "recipe suggestions are not configured"})
		return
	}

	planID, err := strconv.ParseInt(c.Param("mealplan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal plan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	items, err := h.ShoppingList.ItemsForPlan(ctx, planID)
	if err != nil {
		log.Printf("failed to read shopping list for plan %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	if len(names) == 0 {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": []gemini.Suggestion{}})
		return
	}

	suggestions, err := h.SuggestionClient.SuggestRecipes(ctx, names)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusRequestTimeout, gin.H{"success": false, "error": "suggestion request timed out"})
			return
		}
		log.Printf("recipe suggestion failed for plan %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": suggestions})
}

type createPlanRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// CreateMealPlan creates a meal plan owned by the authenticated user.
func (h *Handler) CreateMealPlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "end_date must be YYYY-MM-DD"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	plan := &mealplan.MealPlan{
		OwnerID:   c.GetInt64("user_id"),
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
	}
	if err := h.MealPlans.CreatePlan(ctx, plan); err != nil {
		log.Printf("failed to create meal plan: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": plan})
}

// GetMealPlan returns one plan together with its scheduled recipes.
func (h *Handler) GetMealPlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("mealplan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal plan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	plan, err := h.MealPlans.GetPlan(ctx, planID)
	if err != nil {
		log.Printf("failed to get meal plan %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	if plan == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "meal plan not found"})
		return
	}

	entries, err := h.MealPlans.PlanRecipes(ctx, planID)
	if err != nil {
		log.Printf("failed to list plan recipes for %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"plan": plan, "recipes": entries}})
}

// ListMealPlans returns the authenticated user's plans.
func (h *Handler) ListMealPlans(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	plans, err := h.MealPlans.ListPlansByOwner(ctx, c.GetInt64("user_id"))
	if err != nil {
		log.Printf("failed to list meal plans: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": plans})
}

// DeleteMealPlan removes a plan; its recipe links and shopping list cascade.
func (h *Handler) DeleteMealPlan(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("mealplan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal plan id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.MealPlans.DeletePlan(ctx, planID); err != nil {
		log.Printf("failed to delete meal plan %d: %v", planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type scheduleRecipeRequest struct {
	RecipeID      int64  `json:"recipe_id"`
	MealType      string `json:"meal_type"`
	ScheduledDate string `json:"scheduled_date"`
}

// ScheduleRecipe adds one recipe occurrence to a plan. Scheduling the same
// recipe again creates another occurrence.
func (h *Handler) ScheduleRecipe(c *gin.Context) {
	planID, err := strconv.ParseInt(c.Param("mealplan_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid meal plan id"})
		return
	}

	var req scheduleRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RecipeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "recipe_id is required"})
		return
	}
	scheduled, err := time.Parse(dateLayout, req.ScheduledDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "scheduled_date must be YYYY-MM-DD"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entry := &mealplan.PlanRecipe{
		MealPlanID:    planID,
		RecipeID:      req.RecipeID,
		MealType:      req.MealType,
		ScheduledDate: scheduled,
	}
	if err := h.MealPlans.AddRecipe(ctx, entry); err != nil {
		log.Printf("failed to schedule recipe %d in plan %d: %v", req.RecipeID, planID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": entry})
}

// RemoveScheduledRecipe deletes one recipe occurrence from a plan.
func (h *Handler) RemoveScheduledRecipe(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("entry_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid entry id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.MealPlans.RemoveRecipe(ctx, entryID); err != nil {
		log.Printf("failed to remove scheduled recipe %d: %v", entryID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type createRecipeRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Servings    int    `json:"servings"`
	Ingredients []struct {
		Name     string `json:"name"`
		Unit     string `json:"unit"`
		Quantity string `json:"quantity"`
	} `json:"ingredients"`
}

// CreateRecipe publishes a recipe. Ingredients are upserted into the
// catalog by name, so two recipes naming "flour" share one ingredient row.
// Listing the same ingredient twice merges into one pairing with summed
// quantities; the pairing table is keyed on (recipe_id, ingredient_id).
func (h *Handler) CreateRecipe(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "title is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	r := &recipe.Recipe{
		AuthorID:    c.GetInt64("user_id"),
		Title:       req.Title,
		Description: req.Description,
		Servings:    req.Servings,
	}
	pairingIndex := make(map[int64]int)
	for _, ing := range req.Ingredients {
		stored, err := h.Recipes.UpsertIngredient(ctx, ing.Name, ing.Unit)
		if err != nil {
			log.Printf("failed to upsert ingredient %q: %v", ing.Name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
			return
		}
		if idx, ok := pairingIndex[stored.ID]; ok {
			merged := shoppinglist.ParseQuantity(r.Ingredients[idx].Quantity) + shoppinglist.ParseQuantity(ing.Quantity)
			r.Ingredients[idx].Quantity = strconv.FormatFloat(merged, 'f', -1, 64)
			continue
		}
		pairingIndex[stored.ID] = len(r.Ingredients)
		r.Ingredients = append(r.Ingredients, recipe.Pairing{
			IngredientID: stored.ID,
			Name:         stored.Name,
			Unit:         stored.Unit,
			Quantity:     ing.Quantity,
		})
	}

	if err := h.Recipes.CreateRecipe(ctx, r); err != nil {
		log.Printf("failed to create recipe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": r})
}

// GetRecipe returns one recipe with its composition.
func (h *Handler) GetRecipe(c *gin.Context) {
	recipeID, err := strconv.ParseInt(c.Param("recipe_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid recipe id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		log.Printf("failed to get recipe %d: %v", recipeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "recipe not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": r})
}

// ListRecipes returns every published recipe.
func (h *Handler) ListRecipes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, err := h.Recipes.ListRecipes(ctx)
	if err != nil {
		log.Printf("failed to list recipes: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": recipes})
}

// ListIngredients returns the ingredient catalog.
func (h *Handler) ListIngredients(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ingredients, err := h.Recipes.ListIngredients(ctx)
	if err != nil {
		log.Printf("failed to list ingredients: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": ingredients})
}

// UploadRecipePhoto stores a resized photo for a recipe.
func (h *Handler) UploadRecipePhoto(c *gin.Context) {
	recipeID, err := strconv.ParseInt(c.Param("recipe_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid recipe id"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("get form err: %s", err.Error())})
		return
	}

	allowedExtensions := map[string]bool{
		".jpeg": true,
		".jpg":  true,
		".png":  true,
	}
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[extension] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "only JPEG, JPG and PNG images are allowed"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	r, err := h.Recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		log.Printf("failed to get recipe %d: %v", recipeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "recipe not found"})
		return
	}

	imagePath, err := h.savePhoto(src, recipeID, extension)
	if err != nil {
		log.Printf("failed to save recipe photo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	if err := h.Recipes.SetImagePath(ctx, recipeID, imagePath); err != nil {
		log.Printf("failed to record recipe photo path: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"image_path": imagePath}})
}

// savePhoto decodes the uploaded image, scales it to 800px wide and writes
// it under the image directory.
func (h *Handler) savePhoto(src io.Reader, recipeID int64, extension string) (string, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	img = resize.Resize(800, 0, img, resize.Lanczos3)

	if err := os.MkdirAll(h.ImageDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	imagePath := filepath.Join(h.ImageDir, fmt.Sprintf("recipe_%d%s", recipeID, extension))
	out, err := os.Create(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	switch extension {
	case ".jpeg", ".jpg":
		err = jpeg.Encode(out, img, nil)
	case ".png":
		err = png.Encode(out, img)
	default:
		return "", fmt.Errorf("unsupported image format: %s", extension)
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	return imagePath, nil
}

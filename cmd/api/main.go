package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"cookshare/internal/api"
	"cookshare/internal/auth"
	"cookshare/internal/config"
	"cookshare/internal/mealplan"
	"cookshare/internal/platform/gemini"
	"cookshare/internal/recipe"
	"cookshare/internal/shoppinglist"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Errorf("failed to connect to database: %w", err))
	}

	// Store construction order matters: the shopping list table references
	// the meal plan and ingredient tables.
	recipeStore, err := recipe.NewPostgresStore(db)
	if err != nil {
		panic(fmt.Errorf("error creating recipe store: %w", err))
	}
	planStore, err := mealplan.NewPostgresStore(db)
	if err != nil {
		panic(fmt.Errorf("error creating meal plan store: %w", err))
	}
	listStore, err := shoppinglist.NewPostgresStore(db)
	if err != nil {
		panic(fmt.Errorf("error creating shopping list store: %w", err))
	}

	generator := shoppinglist.NewGenerator(listStore)

	var suggestions api.SuggestionClient
	if cfg.GeminiAPIKey != "" {
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			panic(fmt.Errorf("error creating gemini client: %w", err))
		}
		suggestions = client
	} else {
		log.Println("GEMINI_API_KEY not set, recipe suggestions disabled")
	}

	handler := api.NewHandler(generator, listStore, planStore, recipeStore, suggestions)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	public := r.Group("/api")
	public.GET("/shopping-list/:mealplan_id", handler.GetShoppingList)
	public.GET("/recipes", handler.ListRecipes)
	public.GET("/recipes/:recipe_id", handler.GetRecipe)
	public.GET("/ingredients", handler.ListIngredients)

	protected := r.Group("/api")
	if cfg.JWTSecret != "" {
		protected.Use(auth.Middleware([]byte(cfg.JWTSecret)))
	} else {
		log.Println("JWT_SECRET not set, running without authentication")
	}
	protected.POST("/shopping-list/generate/:mealplan_id", handler.GenerateShoppingList)
	protected.POST("/shopping-list/suggest/:mealplan_id", handler.SuggestRecipes)
	protected.POST("/shopping-list", handler.AddShoppingListItem)
	protected.PATCH("/shopping-list/toggle/:item_id", handler.ToggleShoppingListItem)
	protected.DELETE("/shopping-list/:item_id", handler.DeleteShoppingListItem)
	protected.POST("/mealplans", handler.CreateMealPlan)
	protected.GET("/mealplans", handler.ListMealPlans)
	protected.GET("/mealplans/:mealplan_id", handler.GetMealPlan)
	protected.DELETE("/mealplans/:mealplan_id", handler.DeleteMealPlan)
	protected.POST("/mealplans/:mealplan_id/recipes", handler.ScheduleRecipe)
	protected.DELETE("/mealplans/:mealplan_id/recipes/:entry_id", handler.RemoveScheduledRecipe)
	protected.POST("/recipes", handler.CreateRecipe)
	protected.POST("/recipes/:recipe_id/photo", handler.UploadRecipePhoto)

	r.Static("/images", "./images")

	r.Run(":" + cfg.Port)
}

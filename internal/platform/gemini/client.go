package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Suggestion is one recipe idea generated from a shopping list's
// ingredients.
type Suggestion struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	UsedIngredients []string `json:"used_ingredients"`
}

// Client is a client for the Gemini API.
type Client struct {
	model *genai.GenerativeModel
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Client{model: client.GenerativeModel("gemini-1.5-flash")}, nil
}

// SuggestRecipes asks Gemini for recipe ideas using the given ingredient
// names.
func (c *Client) SuggestRecipes(ctx context.Context, ingredients []string) ([]Suggestion, error) {
	if len(ingredients) == 0 {
		return nil, fmt.Errorf("no ingredients to suggest from")
	}

	promptText := fmt.Sprintf(
		"I have these ingredients on my shopping list: %s. Suggest up to 3 dishes I could cook with them. Return a clean JSON array of objects with the keys 'title' (string), 'description' (string, one or two sentences) and 'used_ingredients' (array of strings taken from my list). No markdown formatting (e.g., ```json).",
		strings.Join(ingredients, ", "))

	resp, err := c.model.GenerateContent(ctx, genai.Text(promptText))
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	// Extract the JSON array, which might be wrapped in markdown anyway
	startIndex := strings.Index(string(text), "[")
	endIndex := strings.LastIndex(string(text), "]")
	if startIndex == -1 || endIndex == -1 || startIndex > endIndex {
		return nil, fmt.Errorf("could not find JSON array in response: %s", text)
	}
	cleanJSON := string(text)[startIndex : endIndex+1]

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(cleanJSON), &suggestions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal suggestions JSON: %w. Raw response: %s", err, cleanJSON)
	}

	return suggestions, nil
}

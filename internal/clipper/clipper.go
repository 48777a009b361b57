// Package clipper imports recipes from web pages: fetch, strip the page down
// to text, and let the LLM turn it into a structured recipe.
package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/recipe"

	"github.com/PuerkitoBio/goquery"
)

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	recipes *recipe.Repository
	textGen llm.TextGenerator
}

// extractedRecipe is the shape the AI is asked to produce.
type extractedRecipe struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Servings    int    `json:"servings"`
	Ingredients []struct {
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
		Unit     string `json:"unit"`
	} `json:"ingredients"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(recipes *recipe.Repository, textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		recipes: recipes,
		textGen: textGen,
	}
}

// ClipURL fetches the URL, extracts the recipe using AI, and stores it as a
// recipe owned by the given user. Returns the new recipe's ID.
func (c *Clipper) ClipURL(ctx context.Context, userID, url string) (string, error) {
	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "name": "Recipe Name",
  "category": "colazione" | "pranzo" | "cena",
  "servings": 4,
  "ingredients": [
    {"name": "ingredient name", "quantity": "200", "unit": "g"},
    ...
  ]
}

Quantities as strings; units from: g, kg, ml, l, pz, qb.

Page Content:
%s
`, content)

	llmResponse, err := c.textGen.GenerateContent(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("ai extraction failed: %w", err)
	}

	extracted, err := parseExtractedRecipe(llmResponse)
	if err != nil {
		return "", err
	}

	rec := recipe.Recipe{
		UserID:   userID,
		Name:     extracted.Name,
		Category: recipe.Category(extracted.Category),
		Servings: extracted.Servings,
	}
	if !rec.Category.Valid() {
		rec.Category = recipe.CategoryLunch
	}
	if rec.Servings <= 0 {
		rec.Servings = 2
	}

	ingredients := make([]recipe.Ingredient, 0, len(extracted.Ingredients))
	for _, ing := range extracted.Ingredients {
		ingredients = append(ingredients, recipe.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
		})
	}

	return c.recipes.Create(ctx, rec, ingredients)
}

// parseExtractedRecipe finds the outermost JSON object in the reply and
// parses it, tolerating surrounding commentary.
func parseExtractedRecipe(raw string) (*extractedRecipe, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("failed to parse AI response: no JSON object. Response: %s", raw)
	}

	var extracted extractedRecipe
	if err := json.Unmarshal([]byte(raw[start:end+1]), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, raw)
	}
	if extracted.Name == "" {
		return nil, fmt.Errorf("failed to parse AI response: recipe name missing")
	}
	return &extracted, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

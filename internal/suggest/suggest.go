// Package suggest asks a text-generation service for a plausible ingredient
// list for a recipe name and parses the reply into candidates the caller can
// present for opt-out selection.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/recipe"
)

// ErrResponseParse means the generation output did not contain a usable
// JSON array of ingredients.
var ErrResponseParse = errors.New("invalid AI ingredient response")

// Candidate is one suggested ingredient. Selected defaults to true so a
// consumer can show an opt-out checklist.
type Candidate struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
	Selected bool   `json:"selected"`
}

const systemPrompt = `You are an expert home-cooking assistant.
Given the name of a recipe, generate a realistic ingredient list with quantities appropriate for 2-4 servings.
Reply ONLY with a JSON array, no extra text.
Required format:
[
  {"name": "ingredient name", "quantity": "200", "unit": "g"},
  {"name": "other ingredient", "quantity": "2", "unit": "pz"}
]

Rules:
- Units from this set only: g, kg, ml, l, pz, qb
- Realistic quantities for home cooking
- Essential, common ingredients
- At most 10 ingredients
- Ingredient names in lowercase
- If the category is "colazione", generate breakfast ingredients
- If the category is "pranzo" or "cena", generate ingredients for a main meal`

// Service wraps a text generator behind the suggestion operation. Failed
// calls surface immediately; there is no retry.
type Service struct {
	textGen llm.TextGenerator
}

// NewService creates a suggestion Service.
func NewService(textGen llm.TextGenerator) *Service {
	return &Service{textGen: textGen}
}

// Suggest generates ingredient candidates for a recipe name. The category is
// optional and only steers the prompt.
func (s *Service) Suggest(ctx context.Context, recipeName string, category recipe.Category) ([]Candidate, error) {
	if strings.TrimSpace(recipeName) == "" {
		return nil, fmt.Errorf("recipe name is required")
	}

	userPrompt := fmt.Sprintf("Generate ingredients for: %s", recipeName)
	if category != "" {
		userPrompt += fmt.Sprintf(" (category: %s)", category)
	}

	raw, err := s.textGen.GenerateContent(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, fmt.Errorf("ingredient generation failed: %w", err)
	}

	return ParseCandidates(raw)
}

// ParseCandidates extracts ingredient candidates from raw generation output.
// Models wrap their JSON in commentary or code fences often enough that the
// first '['..last ']' window is parsed rather than the whole reply. Returns
// ErrResponseParse when no valid JSON array can be found.
func ParseCandidates(raw string) ([]Candidate, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in output", ErrResponseParse)
	}

	var parsed []struct {
		Name     string `json:"name"`
		Quantity any    `json:"quantity"`
		Unit     string `json:"unit"`
	}

	dec := json.NewDecoder(strings.NewReader(raw[start : end+1]))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}

	candidates := make([]Candidate, 0, len(parsed))
	for _, p := range parsed {
		candidates = append(candidates, Candidate{
			Name:     p.Name,
			Quantity: quantityText(p.Quantity),
			Unit:     p.Unit,
			Selected: true,
		})
	}
	return candidates, nil
}

// quantityText normalizes a quantity that may arrive as a JSON string or
// number into its text form.
func quantityText(v any) string {
	switch q := v.(type) {
	case string:
		return q
	case json.Number:
		return q.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(q)
	}
}

package suggest

import (
	"context"
	"errors"
	"testing"

	"weekly-meal-planner/internal/llm"
	"weekly-meal-planner/internal/recipe"
)

// mockTextGenerator returns a canned reply and records the messages it was
// called with.
type mockTextGenerator struct {
	reply    string
	err      error
	messages []llm.Message
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, messages []llm.Message) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestParseCandidates(t *testing.T) {
	t.Run("ExtractsArrayFromSurroundingText", func(t *testing.T) {
		raw := "Here you go:\n[{\"name\":\"egg\",\"quantity\":\"2\",\"unit\":\"pz\"}]"

		candidates, err := ParseCandidates(raw)
		if err != nil {
			t.Fatalf("ParseCandidates failed: %v", err)
		}
		if len(candidates) != 1 {
			t.Fatalf("Expected 1 candidate, got %d", len(candidates))
		}

		got := candidates[0]
		if got.Name != "egg" || got.Quantity != "2" || got.Unit != "pz" {
			t.Errorf("Candidate = %+v, want egg / 2 / pz", got)
		}
		if !got.Selected {
			t.Error("Candidates must default to selected")
		}
	})

	t.Run("NumericQuantityBecomesText", func(t *testing.T) {
		raw := `[{"name":"flour","quantity":200,"unit":"g"},{"name":"milk","quantity":0.5,"unit":"l"}]`

		candidates, err := ParseCandidates(raw)
		if err != nil {
			t.Fatalf("ParseCandidates failed: %v", err)
		}
		if candidates[0].Quantity != "200" {
			t.Errorf("Integer quantity = %q, want \"200\"", candidates[0].Quantity)
		}
		if candidates[1].Quantity != "0.5" {
			t.Errorf("Fractional quantity = %q, want \"0.5\"", candidates[1].Quantity)
		}
	})

	t.Run("MissingQuantityBecomesEmpty", func(t *testing.T) {
		candidates, err := ParseCandidates(`[{"name":"salt","unit":"qb"}]`)
		if err != nil {
			t.Fatalf("ParseCandidates failed: %v", err)
		}
		if candidates[0].Quantity != "" {
			t.Errorf("Quantity = %q, want empty", candidates[0].Quantity)
		}
	})

	t.Run("CodeFencedArray", func(t *testing.T) {
		raw := "```json\n[{\"name\":\"rice\",\"quantity\":\"300\",\"unit\":\"g\"}]\n```"

		candidates, err := ParseCandidates(raw)
		if err != nil {
			t.Fatalf("ParseCandidates failed: %v", err)
		}
		if len(candidates) != 1 || candidates[0].Name != "rice" {
			t.Errorf("Candidates = %+v", candidates)
		}
	})

	t.Run("NoArray", func(t *testing.T) {
		_, err := ParseCandidates("I cannot help with that.")
		if !errors.Is(err, ErrResponseParse) {
			t.Errorf("Expected ErrResponseParse, got %v", err)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		_, err := ParseCandidates(`[{"name": "egg", "quantity":]`)
		if !errors.Is(err, ErrResponseParse) {
			t.Errorf("Expected ErrResponseParse, got %v", err)
		}
	})

	t.Run("EmptyArray", func(t *testing.T) {
		candidates, err := ParseCandidates("[]")
		if err != nil {
			t.Fatalf("ParseCandidates failed: %v", err)
		}
		if len(candidates) != 0 {
			t.Errorf("Expected no candidates, got %d", len(candidates))
		}
	})
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock := &mockTextGenerator{
			reply: `[{"name":"spaghetti","quantity":"320","unit":"g"},{"name":"pepper","quantity":"","unit":"qb"}]`,
		}
		service := NewService(mock)

		candidates, err := service.Suggest(ctx, "Cacio e pepe", recipe.CategoryDinner)
		if err != nil {
			t.Fatalf("Suggest failed: %v", err)
		}
		if len(candidates) != 2 {
			t.Fatalf("Expected 2 candidates, got %d", len(candidates))
		}

		if len(mock.messages) != 2 || mock.messages[0].Role != "system" || mock.messages[1].Role != "user" {
			t.Fatalf("Unexpected messages: %+v", mock.messages)
		}
		userPrompt := mock.messages[1].Content
		if userPrompt != "Generate ingredients for: Cacio e pepe (category: cena)" {
			t.Errorf("User prompt = %q", userPrompt)
		}
	})

	t.Run("EmptyRecipeName", func(t *testing.T) {
		service := NewService(&mockTextGenerator{})

		if _, err := service.Suggest(ctx, "  ", ""); err == nil {
			t.Error("Expected error for blank recipe name")
		}
	})

	t.Run("GenerationFailurePropagates", func(t *testing.T) {
		upstream := &llm.UpstreamError{Service: "groq", StatusCode: 500, Body: "boom"}
		service := NewService(&mockTextGenerator{err: upstream})

		_, err := service.Suggest(ctx, "Risotto", recipe.CategoryLunch)
		var ue *llm.UpstreamError
		if !errors.As(err, &ue) {
			t.Errorf("Expected wrapped UpstreamError, got %v", err)
		}
	})

	t.Run("CategoryOmittedWhenEmpty", func(t *testing.T) {
		mock := &mockTextGenerator{reply: "[]"}
		service := NewService(mock)

		if _, err := service.Suggest(ctx, "Frittata", ""); err != nil {
			t.Fatalf("Suggest failed: %v", err)
		}
		if mock.messages[1].Content != "Generate ingredients for: Frittata" {
			t.Errorf("User prompt = %q", mock.messages[1].Content)
		}
	})
}

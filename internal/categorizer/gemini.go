package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// GeminiClient categorizes transactions with the Gemini API. The API key is
// taken from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a Gemini-backed categorizer.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiClient{client: client, model: modelName}, nil
}

var expenseCategories = []model.Category{
	model.CategoryHousing,
	model.CategoryGroceries,
	model.CategoryFuel,
	model.CategoryDining,
	model.CategoryEntertainment,
	model.CategoryHealthcare,
	model.CategoryShopping,
	model.CategoryUtilities,
	model.CategorySubscriptions,
	model.CategoryInsurance,
	model.CategoryBankFees,
}

type geminiResult struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	BudgetGroup string  `json:"budget_group"`
	Confidence  float64 `json:"confidence"`
}

// Categorize sends one batch to the model and returns index-aligned results.
func (g *GeminiClient) Categorize(ctx context.Context, items []Item) ([]Result, error) {
	if len(items) == 0 {
		return nil, nil
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: g.buildPrompt(items)},
			},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var parsed []geminiResult
	if err := json.Unmarshal([]byte(cleanModelJSON(rawText)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling model response: %w", err)
	}
	if len(parsed) != len(items) {
		return nil, fmt.Errorf("expected %d results, got %d", len(items), len(parsed))
	}

	results := make([]Result, len(parsed))
	for i, p := range parsed {
		results[i] = Result{
			Category:    p.Category,
			Subcategory: p.Subcategory,
			BudgetGroup: p.BudgetGroup,
			Confidence:  p.Confidence,
		}
	}
	return results, nil
}

func (g *GeminiClient) buildPrompt(items []Item) string {
	cats := make([]string, len(expenseCategories))
	for i, c := range expenseCategories {
		cats[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("You are a bank transaction categorizer for New Zealand personal finances.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Categorize EVERY transaction in the list below.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a JSON array of objects, one per input transaction, in the same order.\n\n")
	b.WriteString("Each object must have these fields:\n")
	b.WriteString("- \"category\": string, one of: " + strings.Join(cats, ", ") + "\n")
	b.WriteString("- \"subcategory\": string, a short UPPER_SNAKE label (e.g. \"FUEL\", \"STREAMING\")\n")
	b.WriteString("- \"budget_group\": string, one of: essential, discretionary\n")
	b.WriteString("- \"confidence\": number between 0 and 1\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Output must begin with \"[\" and end with \"]\".\n\n")
	b.WriteString("Transactions:\n")
	for i, item := range items {
		desc := item.Description
		if item.Merchant != "" && item.Merchant != item.Description {
			desc += " | " + item.Merchant
		}
		fmt.Fprintf(&b, "%d. %s | %s | %s\n", i+1, item.Date, desc, item.Amount.StringFixed(2))
	}
	return b.String()
}

// cleanModelJSON strips Markdown fences and surrounding junk if the model
// ignored the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}

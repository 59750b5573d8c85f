package categorize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/budgetwise/internal/parse"
)

// Classification is the small JSON object the remote classifier is
// constrained to return.
type Classification struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// remoteResult is the outcome of one remote classification attempt. A failed
// result never propagates to the caller; it selects the fallback path, which
// keeps the "always produce a result" contract visible in the control flow.
type remoteResult struct {
	classification Classification
	err            error
}

func (r remoteResult) failed() bool { return r.err != nil }

// RemoteClassifier is a text-classification call returning the model's raw
// textual response for a prompt.
type RemoteClassifier interface {
	Classify(ctx context.Context, prompt string) (string, error)
}

// GeminiClassifier implements RemoteClassifier against the Gemini API.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a classifier for the given model name.
// Credentials come from the environment (GEMINI_API_KEY or application
// default credentials).
func NewGeminiClassifier(ctx context.Context, model string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiClassifier: create genai client: %w", err)
	}
	return &GeminiClassifier{client: client, model: model}, nil
}

// Classify sends the prompt and returns the raw response text.
func (g *GeminiClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}

// isAuthError reports whether err is an authentication/authorization failure
// from the remote service. Those are never retried.
func isAuthError(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
	}
	return false
}

// buildPrompt lists the current category vocabulary and the transaction under
// classification, constraining the model to a strict JSON object.
func buildPrompt(tx parse.Transaction, vocabulary []string) string {
	direction := "expense"
	if tx.IsIncome {
		direction = "income"
	}

	var b strings.Builder
	b.WriteString("You are a personal finance transaction classifier.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Classify the transaction below into exactly one category.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object with these fields:\n")
	b.WriteString("  - \"category\": string (EXACTLY one of the categories below)\n")
	b.WriteString("  - \"subcategory\": string or null\n")
	b.WriteString("  - \"confidence\": number between 0 and 1\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, name := range vocabulary {
		b.WriteString("- " + name + "\n")
	}

	b.WriteString("\nTransaction:\n")
	fmt.Fprintf(&b, "- description: %s\n", tx.Description)
	fmt.Fprintf(&b, "- amount: %.2f\n", tx.Amount)
	fmt.Fprintf(&b, "- direction: %s\n", direction)

	b.WriteString("\nReturn ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n")

	return b.String()
}

// cleanModelJSON strips Markdown code fences and surrounding junk the model
// sometimes emits despite instructions, keeping only the JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}

func parseClassification(raw string) (Classification, error) {
	var cls Classification
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &cls); err != nil {
		return Classification{}, fmt.Errorf("unmarshal classification: %w", err)
	}
	if strings.TrimSpace(cls.Category) == "" {
		return Classification{}, errors.New("classification missing category")
	}
	return cls, nil
}

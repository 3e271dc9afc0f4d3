package receipts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// Receipt is the structured content extracted from a receipt image.
type Receipt struct {
	Merchant string          `json:"merchant"`
	Date     string          `json:"date"` // YYYY-MM-DD, may be empty
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
	Category string          `json:"category"`
	Items    []LineItem      `json:"items"`
}

// LineItem is one purchased item on a receipt.
type LineItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Parser extracts a Receipt from an image.
type Parser interface {
	Parse(ctx context.Context, image []byte, mimeType string) (*Receipt, error)
}

const receiptPrompt = "Extract the purchase from the attached receipt image.\n" +
	"Return STRICT JSON only, a single object with these fields:\n" +
	"- \"merchant\": string\n" +
	"- \"date\": string, ISO format \"YYYY-MM-DD\", or \"\" if not printed\n" +
	"- \"total\": number, the amount paid including tax\n" +
	"- \"currency\": string, ISO 4217 code, or \"\" if unknown\n" +
	"- \"category\": string, one of \"Food and Drink\", \"Shops\", \"Travel\", \"Healthcare\", \"Service\", \"Recreation\"\n" +
	"- \"items\": array of {\"description\": string, \"amount\": number}\n" +
	"Do NOT wrap the response in code fences.\n"

// GeminiParser reads receipts with a Gemini model.
type GeminiParser struct {
	client *genai.Client
	model  string
}

// NewGeminiParser creates a Vertex AI backed parser. Empty project and
// location fall back to the GOOGLE_CLOUD_* environment.
func NewGeminiParser(ctx context.Context, project, location, model string) (*GeminiParser, error) {
	cfg := &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	}
	if project != "" {
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = project
		cfg.Location = location
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewGeminiParser: create genai client: %w", err)
	}
	return &GeminiParser{client: client, model: model}, nil
}

// Parse implements Parser.
func (p *GeminiParser) Parse(ctx context.Context, image []byte, mimeType string) (*Receipt, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: receiptPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Parse: generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return nil, errors.New("Parse: empty response from model")
	}
	return ParseReceiptJSON(raw)
}

// ParseReceiptJSON decodes a model response, tolerating Markdown fences and
// text around the JSON object.
func ParseReceiptJSON(raw string) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &r); err != nil {
		return nil, fmt.Errorf("ParseReceiptJSON: unmarshal: %w", err)
	}
	if !r.Total.IsPositive() {
		return nil, fmt.Errorf("ParseReceiptJSON: total must be positive, got %s", r.Total)
	}
	r.Merchant = strings.TrimSpace(r.Merchant)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	return &r, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}

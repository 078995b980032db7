package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrNoAPIKey is returned when the assistant is called without a configured key.
var ErrNoAPIKey = errors.New("assistant: api key not configured")

const defaultTimeout = 15 * time.Second

// OpenAIProvider implements Provider on the OpenAI chat completions API.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	timeout time.Duration
	enabled bool
}

func NewOpenAIProvider(apiKey, model string, timeout time.Duration) *OpenAIProvider {
	apiKey = strings.TrimSpace(apiKey)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	p := &OpenAIProvider{
		model:   model,
		timeout: timeout,
		enabled: apiKey != "",
	}
	if p.enabled {
		p.client = openai.NewClient(option.WithAPIKey(apiKey))
	}
	return p
}

func (p *OpenAIProvider) CategorizeTransaction(ctx context.Context, req CategorizeRequest) (CategorizeResponse, error) {
	system := "You are a personal finance categorization assistant. Given a transaction, pick the single best spending category. Return ONLY valid JSON with keys: category (string), confidence (number 0-1)."
	var out CategorizeResponse
	if err := p.call(ctx, system, req, &out); err != nil {
		return CategorizeResponse{}, fmt.Errorf("categorize transaction: %w", err)
	}
	out.Confidence = clamp01(out.Confidence)
	return out, nil
}

func (p *OpenAIProvider) SuggestBudgets(ctx context.Context, req BudgetSuggestionRequest) (BudgetSuggestionResponse, error) {
	system := "You are a personal finance advisor. Given the user's monthly income and spending habits, suggest a set of monthly budgets with amounts. Return ONLY valid JSON with keys: suggested_budgets (string, a readable breakdown)."
	var out BudgetSuggestionResponse
	if err := p.call(ctx, system, req, &out); err != nil {
		return BudgetSuggestionResponse{}, fmt.Errorf("suggest budgets: %w", err)
	}
	return out, nil
}

func (p *OpenAIProvider) IdentifySavings(ctx context.Context, req SavingsRequest) (SavingsResponse, error) {
	system := "You are a personal finance advisor. Given the user's spending data and optional savings goals, identify concrete savings opportunities. Return ONLY valid JSON with keys: savings_opportunities (array of objects with area, suggestion, potential_savings) and total_potential_savings (string)."
	var out SavingsResponse
	if err := p.call(ctx, system, req, &out); err != nil {
		return SavingsResponse{}, fmt.Errorf("identify savings: %w", err)
	}
	return out, nil
}

// call marshals the request as JSON into the user prompt and decodes the
// model's JSON reply into out.
func (p *OpenAIProvider) call(ctx context.Context, system string, req any, out any) error {
	if !p.enabled {
		return ErrNoAPIKey
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage("Input JSON:\n" + string(payload)),
		},
	})
	if err != nil {
		return err
	}
	if len(resp.Choices) == 0 {
		return errors.New("empty response")
	}

	if err := decodeJSON(resp.Choices[0].Message.Content, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// decodeJSON tolerates models that wrap their JSON reply in markdown fences.
func decodeJSON(text string, out any) error {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}
	return json.Unmarshal([]byte(text), out)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

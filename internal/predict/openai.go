package predict

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ljpjt/tortbench/internal/model"
	"github.com/ljpjt/tortbench/internal/worker"
)

const systemPrompt = `You are a judge deciding Japanese tort cases.
Given the undisputed facts and each party's claims, decide which claims the
court accepts and whether the court rules for the plaintiff.
Answer with a JSON object only:
{"court_decision": bool,
 "plaintiff_claims": [{"id": string, "is_accepted": bool}],
 "defendant_claims": [{"id": string, "is_accepted": bool}]}`

// OpenAIPredictor asks a chat model to decide each tort. Any
// OpenAI-compatible endpoint works through PredictorConfig.BaseURL.
type OpenAIPredictor struct {
	client  *openai.Client
	model   string
	workers int
}

// NewOpenAIPredictor creates an OpenAI-backed predictor
func NewOpenAIPredictor(cfg model.PredictorConfig) (*OpenAIPredictor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	name := cfg.Model
	if name == "" {
		name = openai.GPT4oMini
	}

	return &OpenAIPredictor{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   name,
		workers: cfg.Workers,
	}, nil
}

type decision struct {
	ID         string `json:"id"`
	IsAccepted bool   `json:"is_accepted"`
}

type judgment struct {
	CourtDecision   bool       `json:"court_decision"`
	PlaintiffClaims []decision `json:"plaintiff_claims"`
	DefendantClaims []decision `json:"defendant_claims"`
}

// Predict decides torts concurrently, keeping input order
func (p *OpenAIPredictor) Predict(ctx context.Context, torts []model.Tort) ([]model.Tort, error) {
	out := make([]model.Tort, len(torts))

	err := worker.NewPool(p.workers).Run(ctx, len(torts), func(ctx context.Context, i int) error {
		t, err := p.predictOne(ctx, torts[i])
		if err != nil {
			return fmt.Errorf("predict tort %s: %w", torts[i].ID, err)
		}
		out[i] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (p *OpenAIPredictor) predictOne(ctx context.Context, t model.Tort) (model.Tort, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(t)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return model.Tort{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.Tort{}, fmt.Errorf("no response from OpenAI")
	}

	var j judgment
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &j); err != nil {
		return model.Tort{}, fmt.Errorf("decode judgment: %w", err)
	}

	// claims the model left out count as rejected
	return withDecisions(t, j.CourtDecision, lookup(j.PlaintiffClaims), lookup(j.DefendantClaims)), nil
}

func lookup(decisions []decision) func(id string) bool {
	accepted := make(map[string]bool, len(decisions))
	for _, d := range decisions {
		accepted[d.ID] = d.IsAccepted
	}
	return func(id string) bool { return accepted[id] }
}

func buildPrompt(t model.Tort) string {
	var b strings.Builder

	b.WriteString("Undisputed facts:\n")
	for _, f := range t.UndisputedFacts {
		fmt.Fprintf(&b, "- [%s] %s\n", f.ID, f.Description)
	}
	b.WriteString("\nPlaintiff claims:\n")
	for _, c := range t.PlaintiffClaims {
		fmt.Fprintf(&b, "- [%s] %s\n", c.ID, c.Description)
	}
	b.WriteString("\nDefendant claims:\n")
	for _, c := range t.DefendantClaims {
		fmt.Fprintf(&b, "- [%s] %s\n", c.ID, c.Description)
	}

	return b.String()
}

package predict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/ljpjt/tortbench/internal/model"
)

func sourceTorts() []model.Tort {
	return []model.Tort{
		{
			Version:         model.APIVersion,
			ID:              "t1",
			UndisputedFacts: []model.UndisputedFact{{ID: "f1", Description: "fact"}},
			PlaintiffClaims: []model.PlaintiffClaim{{ID: "p1", Description: "a"}, {ID: "p2", Description: "b"}},
			DefendantClaims: []model.DefendantClaim{{ID: "d1", Description: "c"}},
		},
		{
			Version:         model.APIVersion,
			ID:              "t2",
			PlaintiffClaims: []model.PlaintiffClaim{{ID: "p1", Description: "x"}},
		},
	}
}

func TestRandomPredictor_EchoesIDs(t *testing.T) {
	src := sourceTorts()
	got, err := NewRandomPredictor(42).Predict(context.Background(), src)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	if err := model.VerifyPrediction(src, got); err != nil {
		t.Errorf("VerifyPrediction: %v", err)
	}
	for _, tort := range got {
		if tort.CourtDecision == nil {
			t.Errorf("tort %s: missing court decision", tort.ID)
		}
		for _, c := range tort.PlaintiffClaims {
			if c.IsAccepted == nil {
				t.Errorf("tort %s claim %s: missing decision", tort.ID, c.ID)
			}
		}
	}
	if src[0].PlaintiffClaims[0].IsAccepted != nil {
		t.Error("Expected source torts to be left untouched")
	}
}

func TestRandomPredictor_Seeded(t *testing.T) {
	a, _ := NewRandomPredictor(7).Predict(context.Background(), sourceTorts())
	b, _ := NewRandomPredictor(7).Predict(context.Background(), sourceTorts())

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("Expected equal seeds to give equal predictions")
	}
}

func TestRandomPredictor_Empty(t *testing.T) {
	got, err := NewRandomPredictor(1).Predict(context.Background(), nil)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no torts, got %d", len(got))
	}
}

func TestNew(t *testing.T) {
	if _, err := New(model.PredictorConfig{Kind: "random"}); err != nil {
		t.Errorf("random: %v", err)
	}
	if _, err := New(model.PredictorConfig{Kind: "openai"}); err == nil {
		t.Error("Expected error for openai without API key")
	}
	if _, err := New(model.PredictorConfig{Kind: "oracle"}); err == nil {
		t.Error("Expected error for unknown predictor")
	}
}

func TestOpenAIPredictor_Predict(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}

		var req openai.ChatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		content := `{"court_decision": false, "plaintiff_claims": [{"id": "p1", "is_accepted": true}], "defendant_claims": []}`
		if strings.Contains(req.Messages[1].Content, "[d1]") {
			content = `{"court_decision": true, "plaintiff_claims": [{"id": "p1", "is_accepted": true}, {"id": "p2", "is_accepted": false}], "defendant_claims": [{"id": "d1", "is_accepted": true}]}`
		}

		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-1",
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
		})
	}))
	defer server.Close()

	p, err := NewOpenAIPredictor(model.PredictorConfig{APIKey: "test-key", BaseURL: server.URL, Workers: 2})
	if err != nil {
		t.Fatalf("NewOpenAIPredictor: %v", err)
	}

	src := sourceTorts()
	got, err := p.Predict(context.Background(), src)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if err := model.VerifyPrediction(src, got); err != nil {
		t.Fatalf("VerifyPrediction: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 completions, got %d", calls.Load())
	}

	first := got[0]
	if !*first.CourtDecision || !*first.PlaintiffClaims[0].IsAccepted || *first.PlaintiffClaims[1].IsAccepted || !*first.DefendantClaims[0].IsAccepted {
		t.Errorf("Unexpected decisions for t1: %+v", first)
	}
	if *got[1].CourtDecision {
		t.Error("Expected t2 to be decided for the defendant")
	}
}

func TestOpenAIPredictor_BadJudgment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "I cannot decide."},
			}},
		})
	}))
	defer server.Close()

	p, _ := NewOpenAIPredictor(model.PredictorConfig{APIKey: "test-key", BaseURL: server.URL})
	if _, err := p.Predict(context.Background(), sourceTorts()); err == nil {
		t.Fatal("Expected error for non-JSON judgment")
	}
}

// Package predict holds the prediction backends a run can be driven with.
package predict

import (
	"context"
	"fmt"
	"strings"

	"github.com/ljpjt/tortbench/internal/model"
)

// Predictor decides every claim and the court decision of each tort.
// It must echo tort and claim ids unchanged and keep input order.
type Predictor interface {
	Predict(ctx context.Context, torts []model.Tort) ([]model.Tort, error)
}

// Func adapts a plain function to Predictor
type Func func(ctx context.Context, torts []model.Tort) ([]model.Tort, error)

// Predict calls f
func (f Func) Predict(ctx context.Context, torts []model.Tort) ([]model.Tort, error) {
	return f(ctx, torts)
}

// New creates the predictor selected by cfg.Kind
func New(cfg model.PredictorConfig) (Predictor, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "random":
		return NewRandomPredictor(cfg.Seed), nil
	case "openai":
		return NewOpenAIPredictor(cfg)
	default:
		return nil, fmt.Errorf("unknown predictor: %s (supported: random, openai)", cfg.Kind)
	}
}

// withDecisions copies src, keeping its identity and text, with the given
// decisions applied. Claim slices are copied so src is never modified.
func withDecisions(src model.Tort, decision bool, plaintiff, defendant func(id string) bool) model.Tort {
	out := model.Tort{
		Version:         src.Version,
		ID:              src.ID,
		UndisputedFacts: src.UndisputedFacts,
		PlaintiffClaims: make([]model.PlaintiffClaim, len(src.PlaintiffClaims)),
		DefendantClaims: make([]model.DefendantClaim, len(src.DefendantClaims)),
		CourtDecision:   model.Bool(decision),
	}
	for i, c := range src.PlaintiffClaims {
		out.PlaintiffClaims[i] = model.PlaintiffClaim{ID: c.ID, Description: c.Description, IsAccepted: model.Bool(plaintiff(c.ID))}
	}
	for i, c := range src.DefendantClaims {
		out.DefendantClaims[i] = model.DefendantClaim{ID: c.ID, Description: c.Description, IsAccepted: model.Bool(defendant(c.ID))}
	}
	return out
}

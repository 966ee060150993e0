package predict

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/ljpjt/tortbench/internal/model"
)

// RandomPredictor flips a fair coin for every decision. It is the
// placeholder to replace with a real system.
type RandomPredictor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPredictor creates a predictor; seed 0 draws a random seed
func NewRandomPredictor(seed uint64) *RandomPredictor {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomPredictor{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Predict decides every tort at random
func (p *RandomPredictor) Predict(ctx context.Context, torts []model.Tort) ([]model.Tort, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	coin := func(string) bool { return p.rng.IntN(2) == 1 }

	out := make([]model.Tort, 0, len(torts))
	for _, t := range torts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, withDecisions(t, coin(""), coin, coin))
	}
	return out, nil
}

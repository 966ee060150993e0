package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/ljpjt/tortbench/internal/client"
)

// Verdict is the remote view of a submission token
type Verdict struct {
	IsValid       bool `json:"is_valid"`
	QuotaExceeded bool `json:"exceeded_revision_limit"`
}

// Poster sends a request to a benchmark endpoint
type Poster interface {
	Post(ctx context.Context, endpoint, contentType string, body []byte) (*client.Response, error)
}

// TokenValidator asks the benchmark service whether a token was accepted
type TokenValidator struct {
	poster Poster
	logger *slog.Logger
}

// NewTokenValidator creates a validator on top of poster
func NewTokenValidator(poster Poster, logger *slog.Logger) *TokenValidator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TokenValidator{poster: poster, logger: logger}
}

type checkRequest struct {
	Team    string `json:"team"`
	Token   string `json:"token"`
	IsFirst bool   `json:"is_first"`
}

// Check reports the verdict for token. isFirst marks the check made right
// after upload. A non-2xx status or an unreadable body reads as
// "not yet valid" so the caller keeps waiting; transport failures are
// returned as errors.
func (v *TokenValidator) Check(ctx context.Context, team, token string, isFirst bool) (Verdict, error) {
	payload, err := json.Marshal(checkRequest{Team: team, Token: token, IsFirst: isFirst})
	if err != nil {
		return Verdict{}, fmt.Errorf("encode token check: %w", err)
	}

	resp, err := v.poster.Post(ctx, client.EndpointTokenValidator, "application/json", payload)
	if err != nil {
		return Verdict{}, err
	}

	if !resp.OK() {
		v.logger.Warn("token check failed, treating as not valid", "status", resp.StatusCode, "first", isFirst)
		return Verdict{}, nil
	}

	var verdict Verdict
	if err := json.Unmarshal(resp.Body, &verdict); err != nil {
		v.logger.Warn("token check unreadable, treating as not valid", "error", err, "first", isFirst)
		return Verdict{}, nil
	}

	v.logger.Debug("token checked", "valid", verdict.IsValid, "quota_exceeded", verdict.QuotaExceeded, "first", isFirst)

	return verdict, nil
}

package client

import (
	"context"

	"github.com/ljpjt/tortbench/internal/model"
)

// Evaluate fetches the evaluation of filename under mode. A non-2xx answer
// yields an empty payload, which then fails decoding with
// *model.MalformedResponseError instead of passing as a result.
func (c *Client) Evaluate(ctx context.Context, mode, filename string) (*model.EvaluationResult, error) {
	resp, err := c.Post(ctx, EndpointEvaluation, "text/plain", []byte(mode+"/"+filename))
	if err != nil {
		return nil, err
	}

	raw := resp.Body
	if !resp.OK() {
		c.logger.Warn("evaluation not available", "filename", filename, "status", resp.StatusCode)
		raw = []byte("{}")
	}

	return model.DecodeEvaluation(raw)
}

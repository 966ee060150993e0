package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ljpjt/tortbench/internal/model"
)

type uploadRequest struct {
	Token    string       `json:"token"`
	APIKey   string       `json:"api_key"`
	Filename string       `json:"filename"`
	Mode     string       `json:"mode"`
	Body     []model.Tort `json:"body"`
}

// Submit uploads a submission. A non-2xx answer is returned as *StatusError.
func (c *Client) Submit(ctx context.Context, sub model.Submission) error {
	body := sub.Torts
	if body == nil {
		body = []model.Tort{}
	}

	payload, err := json.Marshal(uploadRequest{
		Token:    sub.Token,
		APIKey:   c.apiKey,
		Filename: sub.Filename,
		Mode:     sub.Mode,
		Body:     body,
	})
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	resp, err := c.Post(ctx, EndpointUpload, "application/json", payload)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{Endpoint: EndpointUpload, StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	return nil
}

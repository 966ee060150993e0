package client

import (
	"context"
	"fmt"

	"github.com/ljpjt/tortbench/internal/model"
)

// Download fetches the test set named filename. It returns the raw JSONL
// payload alongside the parsed torts so callers can store it verbatim.
func (c *Client) Download(ctx context.Context, filename string) ([]byte, []model.Tort, error) {
	resp, err := c.Post(ctx, EndpointDownload, "text/plain", []byte(filename))
	if err != nil {
		return nil, nil, err
	}
	if !resp.OK() {
		return nil, nil, &StatusError{Endpoint: EndpointDownload, StatusCode: resp.StatusCode, Body: snippet(resp.Body)}
	}

	torts, err := model.ParseTorts(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse test set %s: %w", filename, err)
	}

	c.logger.Info("test set downloaded", "filename", filename, "torts", len(torts))

	return resp.Body, torts, nil
}

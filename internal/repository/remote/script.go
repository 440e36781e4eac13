package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ScriptClient talks to an Apps Script web app. The script accepts a POST
// with a JSON array body and answers GET with the full sheet as a 2-D JSON
// array, row 0 being the header.
type ScriptClient struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewScriptClient builds a sink backed by the given Apps Script URL.
func NewScriptClient(rawURL string, logger *zap.Logger) *ScriptClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetTimeout(20 * time.Second)

	return &ScriptClient{
		httpClient: restyClient,
		url:        rawURL,
		logger:     logger,
	}
}

// Append posts the rows as one request. The transport is fire-and-forget:
// the response status and body are unobservable to the original clients of
// this endpoint, so only a transport-level failure counts as an error.
func (c *ScriptClient) Append(ctx context.Context, rows [][]any) error {
	_, err := c.httpClient.R().SetContext(ctx).SetBody(rows).Post(c.url)
	if err != nil {
		return fmt.Errorf("post %d rows to sheet script: %w", len(rows), err)
	}

	c.logger.Debug("rows posted to sheet script", zap.Int("rows", len(rows)))
	return nil
}

// Snapshot fetches the full remote dataset.
func (c *ScriptClient) Snapshot(ctx context.Context) ([][]any, error) {
	resp, err := c.httpClient.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet snapshot: %w", err)
	}

	var rows [][]any
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}

	c.logger.Debug("sheet snapshot fetched", zap.Int("rows", len(rows)))
	return rows, nil
}

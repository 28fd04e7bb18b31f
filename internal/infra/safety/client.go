// Package safety implements the Trust & Safety block-list client.
package safety

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

// API paths on the Trust & Safety service.
const (
	BlockedUsersEndpoint    = "/api/v1/users/{userID}/blocked-users"
	BlockedContentsEndpoint = "/api/v1/users/{userID}/blocked-contents"
)

// blockedUsersResponse is the wire format of the blocked-users endpoint.
type blockedUsersResponse struct {
	UserIDs []string `json:"user_ids"`
}

// blockedContentsResponse is the wire format of the blocked-contents
// endpoint.
type blockedContentsResponse struct {
	ContentIDs []string `json:"content_ids"`
}

// Client implements domain.BlockStore against the Trust & Safety HTTP
// API. Failures are surfaced, never swallowed: serving blocked content
// is worse than serving an error.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates a new Trust & Safety client.
func New(cfg ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: newRestyClient(cfg),
		cb:     newCircuitBreaker("safety", cfg.CB),
		logger: logger,
	}
}

// GetBlockedUserIDs returns creators the user has blocked.
func (c *Client) GetBlockedUserIDs(ctx context.Context, userID domain.UserID) ([]domain.UserID, error) {
	var result blockedUsersResponse
	if err := c.get(ctx, BlockedUsersEndpoint, userID, &result); err != nil {
		return nil, fmt.Errorf("fetching blocked users: %w", err)
	}

	ids := make([]domain.UserID, len(result.UserIDs))
	for i, id := range result.UserIDs {
		ids[i] = domain.UserID(id)
	}

	return ids, nil
}

// GetBlockedContentIDs returns contents the user has blocked.
func (c *Client) GetBlockedContentIDs(ctx context.Context, userID domain.UserID) ([]domain.ContentID, error) {
	var result blockedContentsResponse
	if err := c.get(ctx, BlockedContentsEndpoint, userID, &result); err != nil {
		return nil, fmt.Errorf("fetching blocked contents: %w", err)
	}

	ids := make([]domain.ContentID, len(result.ContentIDs))
	for i, id := range result.ContentIDs {
		ids[i] = domain.ContentID(id)
	}

	return ids, nil
}

// HealthCheck verifies the Trust & Safety service is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}

// get runs one block-list request through the circuit breaker and
// decodes the body into result.
func (c *Client) get(ctx context.Context, endpoint string, userID domain.UserID, result any) error {
	_, err := c.cb.Execute(func() (*resty.Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetPathParam("userID", string(userID)).
			SetResult(result).
			Get(endpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("safety service returned status %d", r.StatusCode())
		}

		return r, nil
	})
	if err != nil {
		c.logger.Warn("block list fetch failed",
			zap.String("endpoint", endpoint),
			zap.String("user_id", string(userID)),
			zap.String("state", c.cb.State().String()),
			zap.Error(err),
		)

		return err
	}

	return nil
}

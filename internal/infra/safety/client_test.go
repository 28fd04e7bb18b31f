package safety

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"feed-engine-service/internal/domain"
)

const (
	testBaseURL            = "https://safety.example.com"
	testBlockedUsersURL    = testBaseURL + "/api/v1/users/u1/blocked-users"
	testBlockedContentsURL = testBaseURL + "/api/v1/users/u1/blocked-contents"
	testHealthURL          = testBaseURL + "/health"
)

func newTestClient() *Client {
	cfg := ClientConfig{
		BaseURL: testBaseURL,
		Timeout: 5 * time.Second,
		Retry: RetryConfig{
			MaxAttempts: 2,
			WaitTime:    10 * time.Millisecond,
			MaxWaitTime: 50 * time.Millisecond,
		},
		CB: CBConfig{
			MaxRequests:  5,
			Interval:     60 * time.Second,
			Timeout:      15 * time.Second,
			FailureRatio: 0.6,
		},
	}
	client := New(cfg, zap.NewNop())

	// Activate httpmock for this client's HTTP transport
	httpmock.ActivateNonDefault(client.client.GetClient())

	return client
}

func TestClient_GetBlockedUserIDs_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testBlockedUsersURL,
		httpmock.NewJsonResponderOrPanic(200, blockedUsersResponse{
			UserIDs: []string{"creator-1", "creator-2"},
		}))

	ids, err := client.GetBlockedUserIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"creator-1", "creator-2"}, ids)
}

func TestClient_GetBlockedUserIDs_Empty(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testBlockedUsersURL,
		httpmock.NewJsonResponderOrPanic(200, blockedUsersResponse{}))

	ids, err := client.GetBlockedUserIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestClient_GetBlockedContentIDs_Success(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testBlockedContentsURL,
		httpmock.NewJsonResponderOrPanic(200, blockedContentsResponse{
			ContentIDs: []string{"c1", "c2", "c3"},
		}))

	ids, err := client.GetBlockedContentIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.ContentID{"c1", "c2", "c3"}, ids)
}

// A 5xx must surface as an error: the composer refuses to serve a page
// it cannot filter.
func TestClient_GetBlockedUserIDs_ServerError(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testBlockedUsersURL,
		httpmock.NewStringResponder(500, "internal error"))

	_, err := client.GetBlockedUserIDs(context.Background(), "u1")
	assert.Error(t, err)
}

func TestClient_RetriesOn5xx(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()

	attempts := 0
	httpmock.RegisterResponder("GET", testBlockedUsersURL,
		func(req *http.Request) (*http.Response, error) {
			attempts++
			if attempts == 1 {
				return httpmock.NewStringResponse(503, "unavailable"), nil
			}

			return httpmock.NewJsonResponse(200, blockedUsersResponse{
				UserIDs: []string{"creator-1"},
			})
		})

	ids, err := client.GetBlockedUserIDs(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"creator-1"}, ids)
	assert.Equal(t, 2, attempts)
}

func TestClient_CircuitBreakerOpensAfterFailures(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testBlockedUsersURL,
		httpmock.NewStringResponder(500, "internal error"))

	// Drive the breaker open.
	for i := 0; i < 5; i++ {
		_, _ = client.GetBlockedUserIDs(context.Background(), "u1")
	}

	callsBefore := httpmock.GetTotalCallCount()
	_, err := client.GetBlockedUserIDs(context.Background(), "u1")
	assert.Error(t, err)
	assert.Equal(t, callsBefore, httpmock.GetTotalCallCount(),
		"open breaker fails fast without touching the network")
}

func TestClient_HealthCheck(t *testing.T) {
	defer httpmock.DeactivateAndReset()

	client := newTestClient()
	httpmock.RegisterResponder("GET", testHealthURL,
		httpmock.NewStringResponder(200, "ok"))

	assert.NoError(t, client.HealthCheck(context.Background()))

	httpmock.RegisterResponder("GET", testHealthURL,
		httpmock.NewStringResponder(503, "down"))

	assert.Error(t, client.HealthCheck(context.Background()))
}

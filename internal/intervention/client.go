package intervention

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/errkind"
)

// SuggestResponse is the full body of a poll response (spec §6.5).
type SuggestResponse struct {
	Decision   Decision   `json:"decision"`
	Suggestion Suggestion `json:"suggestion"`
}

// Client calls the intervention suggestion endpoint with retried
// exponential backoff on transient failures.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: http.DefaultClient}
}

// Suggest calls POST {base}/api/intervention/suggest with the given
// user and optional time-of-day bucket.
func (c *Client) Suggest(ctx context.Context, userID, timeOfDay string) (*SuggestResponse, error) {
	payload := map[string]string{"user_id": userID}
	if timeOfDay != "" {
		payload["context_time_of_day"] = timeOfDay
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	var result SuggestResponse
	retry := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	err = backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/intervention/suggest", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return errkind.WithKind(err, errkind.VendorTransient)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			respBody, _ := io.ReadAll(resp.Body)
			return errkind.WithKind(fmt.Errorf("intervention service error (status %d): %s", resp.StatusCode, respBody), errkind.VendorTransient)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(errkind.WithKind(fmt.Errorf("intervention request rejected (status %d): %s", resp.StatusCode, respBody), errkind.VendorFatal))
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	}, backoff.WithContext(retry, ctx))
	if err != nil {
		return nil, err
	}
	return &result, nil
}

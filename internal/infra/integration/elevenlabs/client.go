// Package elevenlabs talks to the conversational voice agent API.
package elevenlabs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const DefaultBaseURL = "https://api.elevenlabs.io"

type Client struct {
	apiKey     string
	agentID    string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, agentID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		agentID:    agentID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type signedURLResponse struct {
	SignedURL string `json:"signed_url"`
}

// SignedURL fetches a single-use websocket URL for the configured agent.
func (c *Client) SignedURL(ctx context.Context) (string, error) {
	if c.apiKey == "" || c.agentID == "" {
		return "", eris.New("elevenlabs: api key or agent id not configured")
	}

	endpoint := c.baseURL + "/v1/convai/conversation/get_signed_url?agent_id=" + url.QueryEscape(c.agentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", eris.Wrap(err, "elevenlabs: build request")
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "elevenlabs: request signed url")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("elevenlabs: signed url status %d: %s", resp.StatusCode, string(body))
	}

	var parsed signedURLResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", eris.Wrap(err, "elevenlabs: decode signed url")
	}
	if parsed.SignedURL == "" {
		return "", eris.New("elevenlabs: empty signed url")
	}
	return parsed.SignedURL, nil
}

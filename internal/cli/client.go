package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vector76/news_server/internal/config"
)

const defaultURL = "http://localhost:8000"

// Client is an HTTP client for the news server.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClientFromEnv creates a Client from NS_URL and NS_ADMIN_TOKEN, read
// from the environment first and then from a .env file in the current
// directory.
func NewClientFromEnv() (*Client, error) {
	dotenv, err := config.ReadDotenv(config.DotenvFile)
	if err != nil {
		return nil, err
	}
	getenv := config.Getenv(dotenv)

	baseURL := getenv("NS_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}

	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      getenv("NS_ADMIN_TOKEN"),
		HTTPClient: http.DefaultClient,
	}, nil
}

// Do sends a request and returns the raw response body. Returns an error
// if the response status is not in the 2xx range.
func (c *Client) Do(method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

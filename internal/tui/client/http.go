package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoReport is returned when a session has no generated report yet.
var ErrNoReport = errors.New("no report generated")

// HTTPClient wraps the backend REST API for view fetches.
type HTTPClient struct {
	base   string
	token  string
	client *http.Client
}

// NewHTTP builds a client for the given base URL, e.g. http://127.0.0.1:8080.
func NewHTTP(base, token string) *HTTPClient {
	return &HTTPClient{
		base:   strings.TrimRight(base, "/"),
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) setAuth(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *HTTPClient) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetStats fetches the aggregate practice stats.
func (c *HTTPClient) GetStats() (*Stats, error) {
	var s Stats
	if err := c.get("/api/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetConfig fetches the client-safe server configuration.
func (c *HTTPClient) GetConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := c.get("/api/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetViolations fetches the recorded violations for a session.
func (c *HTTPClient) GetViolations(sessionID string) ([]ViolationRecord, error) {
	var recs []ViolationRecord
	if err := c.get("/api/sessions/"+sessionID+"/violations", &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// GetReportMarkdown fetches a session's readiness report rendered as
// markdown. Returns ErrNoReport when none has been generated.
func (c *HTTPClient) GetReportMarkdown(sessionID string) (string, error) {
	path := "/api/sessions/" + sessionID + "/report?format=markdown"
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return "", err
	}
	c.setAuth(req)
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoReport
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("GET %s: %d %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

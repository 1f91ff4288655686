package keep

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type clientVersion struct {
	Major    string `json:"major"`
	Minor    string `json:"minor"`
	Build    string `json:"build"`
	Revision string `json:"revision"`
}

type capability struct {
	Type string `json:"type"`
}

type requestHeader struct {
	ClientSessionID string        `json:"clientSessionId"`
	ClientPlatform  string        `json:"clientPlatform"`
	ClientVersion   clientVersion `json:"clientVersion"`
	Capabilities    []capability  `json:"capabilities"`
}

type userInfo struct {
	Labels []wireLabel `json:"labels"`
}

// changesRequest uploads dirty nodes and labels and asks for everything
// newer than TargetVersion.
type changesRequest struct {
	Nodes           []wireNode    `json:"nodes"`
	ClientTimestamp string        `json:"clientTimestamp"`
	RequestHeader   requestHeader `json:"requestHeader"`
	TargetVersion   string        `json:"targetVersion,omitempty"`
	UserInfo        *userInfo     `json:"userInfo,omitempty"`
}

type changesResponse struct {
	Kind            string       `json:"kind"`
	Nodes           []serverNode `json:"nodes"`
	ToVersion       string       `json:"toVersion"`
	Truncated       bool         `json:"truncated"`
	ForceFullResync bool         `json:"forceFullResync"`
	UserInfo        *userInfo    `json:"userInfo"`
}

var defaultCapabilities = []capability{
	{Type: "NC"}, // Color support (Note Color)
	{Type: "PI"}, // Pinned support
	{Type: "LB"}, // Labels support
	{Type: "AN"}, // Annotations support
	{Type: "SH"}, // Sharing support
	{Type: "DR"}, // Drawing support
	{Type: "TR"}, // Trash support
	{Type: "IN"}, // Indentation support
	{Type: "SNB"},
	{Type: "MI"},
	{Type: "CO"},
}

// apiClient interfaces with the Keep notes API
type apiClient struct {
	httpClient *http.Client
	baseURL    string
}

func (c *apiClient) changes(ctx context.Context, authToken string, body *changesRequest) (*changesResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := strings.TrimSuffix(c.baseURL, "/") + "/changes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "OAuth "+authToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &AuthError{Code: "API token rejected"}
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	var changes changesResponse
	if err := json.NewDecoder(resp.Body).Decode(&changes); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &changes, nil
}

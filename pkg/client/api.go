package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	cidpkg "github.com/mrader1248/happy-games/internal/cid"
	"github.com/mrader1248/happy-games/pkg/protocol"
)

// apiResponse is the envelope every HTTP endpoint answers with.
type apiResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

// EngineInfo mirrors the engine descriptors of GET /engine.
type EngineInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// ListEngines fetches the available engine descriptors.
func (c *GameClient) ListEngines(ctx context.Context) ([]EngineInfo, error) {
	var result struct {
		Engines []EngineInfo `json:"engines"`
	}
	if err := c.doAPI(ctx, http.MethodGet, "/engine", nil, &result); err != nil {
		return nil, err
	}
	return result.Engines, nil
}

// CreateGame creates a game for the configured user on the named
// engine and returns the new game id.
func (c *GameClient) CreateGame(ctx context.Context, engineName string) (string, error) {
	req := protocol.CreateGameRequest{User: c.config.User, EngineName: engineName}
	var result struct {
		GameID string `json:"gameId"`
	}
	if err := c.doAPI(ctx, http.MethodPost, "/game", req, &result); err != nil {
		return "", err
	}
	c.config.GameID = result.GameID
	return result.GameID, nil
}

// doAPI performs one request against the HTTP API and decodes the
// result payload. API-level errors (status "error") are returned as
// errors carrying the server's message.
func (c *GameClient) doAPI(ctx context.Context, method, path string, body, result any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	cidpkg.AddHeaderFromContext(req.Header, ctx)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Status != protocol.StatusOK {
		var msg string
		if err := json.Unmarshal(envelope.Result, &msg); err != nil {
			msg = string(envelope.Result)
		}
		return fmt.Errorf("server error: %s", msg)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("failed to decode result: %w", err)
		}
	}
	return nil
}

// services/lichess_client.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"chess-wager-system/utils"
)

// LichessClient is the result-verifier adapter over the Lichess REST API.
// Games on the platform are played on Lichess; this client fetches the
// immutable game record so settlement never takes a participant's word for
// the outcome. Calls fail fast (10s) rather than hang a request.
type LichessClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewLichessClient() *LichessClient {
	baseURL := os.Getenv("LICHESS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://lichess.org"
	}
	return &LichessClient{
		BaseURL:    baseURL,
		HTTPClient: utils.HTTPClient,
	}
}

// GameRecord is the slice of the Lichess game export the verifier needs:
// who sat on each side and which side won (empty Winner on draws).
type GameRecord struct {
	ID     string
	Status string // mate, resign, timeout, draw, started, aborted, ...
	Winner string // "white", "black" or ""
	White  string // lichess username, may be empty for anonymous
	Black  string
	URL    string
}

// Finished reports whether the game reached a terminal status. Results can
// only be verified from finished games.
func (g *GameRecord) Finished() bool {
	switch g.Status {
	case "created", "started", "aborted":
		return false
	default:
		return true
	}
}

// FetchGame retrieves a game by its Lichess id. Unknown game, unreachable
// service and malformed payloads all surface as ErrUnverifiable so callers
// treat them as recoverable, never as a result.
func (c *LichessClient) FetchGame(ctx context.Context, gameID string) (*GameRecord, error) {
	url := fmt.Sprintf("%s/game/export/%s", c.BaseURL, gameID)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: lichess unreachable: %v", ErrUnverifiable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: game %s not found on lichess", ErrUnverifiable, gameID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: lichess returned status %d: %s", ErrUnverifiable, resp.StatusCode, string(body))
	}

	var payload struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Winner  string `json:"winner"`
		Players struct {
			White struct {
				User struct {
					Name string `json:"name"`
				} `json:"user"`
			} `json:"white"`
			Black struct {
				User struct {
					Name string `json:"name"`
				} `json:"user"`
			} `json:"black"`
		} `json:"players"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode game export: %v", ErrUnverifiable, err)
	}

	return &GameRecord{
		ID:     payload.ID,
		Status: payload.Status,
		Winner: payload.Winner,
		White:  payload.Players.White.User.Name,
		Black:  payload.Players.Black.User.Name,
		URL:    fmt.Sprintf("%s/%s", c.BaseURL, payload.ID),
	}, nil
}

// LichessUser is a linked account's public profile.
type LichessUser struct {
	Username    string
	BlitzRating int
}

// FetchUser resolves a handle to its canonical profile, used when linking a
// handle and by the rating sync worker.
func (c *LichessClient) FetchUser(ctx context.Context, handle string) (*LichessUser, error) {
	url := fmt.Sprintf("%s/api/user/%s", c.BaseURL, handle)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: lichess unreachable: %v", ErrUnverifiable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: no lichess user %q", ErrNotFound, handle)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: lichess returned status %d: %s", ErrUnverifiable, resp.StatusCode, string(body))
	}

	var payload struct {
		Username string `json:"username"`
		Perfs    struct {
			Blitz struct {
				Rating int `json:"rating"`
			} `json:"blitz"`
		} `json:"perfs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode user profile: %v", ErrUnverifiable, err)
	}

	return &LichessUser{
		Username:    payload.Username,
		BlitzRating: payload.Perfs.Blitz.Rating,
	}, nil
}

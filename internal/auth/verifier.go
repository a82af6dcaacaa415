package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ErrUnauthenticated covers every failure mode uniformly: missing token,
// rejected token, transport failure, unparseable identity. The caller never
// learns which.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier resolves a bearer credential to a user identity.
type Verifier interface {
	Resolve(ctx context.Context, token string) (uuid.UUID, error)
}

// Client verifies tokens against a GoTrue-style auth service.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

func NewClient(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: baseURL,
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return uuid.Nil, ErrUnauthenticated
	}

	var user struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return uuid.Nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(user.ID)
	if err != nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}

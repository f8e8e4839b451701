package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fathima-sithara/chat-client/internal/models"
)

// ErrHistoryUnavailable marks a failed history fetch as retryable: the caller
// shows a retry affordance and no partial state.
var ErrHistoryUnavailable = errors.New("conversation history unavailable")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// History is the fetch-history response body.
type History struct {
	Messages     []models.Message     `json:"messages"`
	Participants []models.Participant `json:"participants"`
}

func (c *Client) FetchHistory(ctx context.Context, conversationID string) (*History, error) {
	url := fmt.Sprintf("%s/conversations/%s/messages", c.baseURL, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrHistoryUnavailable, resp.StatusCode)
	}
	var h History
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHistoryUnavailable, err)
	}
	return &h, nil
}

type sendRequest struct {
	Content  string `json:"content"`
	MediaRef string `json:"media_ref,omitempty"`
}

// SendMessage persists a composed message and returns the canonical
// server-assigned record.
func (c *Client) SendMessage(ctx context.Context, conversationID, content, mediaRef string) (*models.Message, error) {
	body, err := json.Marshal(sendRequest{Content: content, MediaRef: mediaRef})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/conversations/%s/messages", c.baseURL, conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("send message: status %d", resp.StatusCode)
	}
	var m models.Message
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatsapp-broadcast/internal/ports"
)

// Client implements ports.GatewayClient against an Evolution-API-compatible
// WhatsApp gateway. Authentication is a static API key header; session
// lifecycle (QR pairing etc.) is managed outside this service.
type Client struct {
	baseURL  string
	apiKey   string
	instance string

	checkClient *http.Client
	sendClient  *http.Client
}

// New creates a Client for one gateway instance. The connectivity check uses
// a short timeout so a dead gateway fails a run fast; sends get a longer one.
func New(baseURL, apiKey, instance string, checkTimeout, sendTimeout time.Duration) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		instance:    instance,
		checkClient: &http.Client{Timeout: checkTimeout},
		sendClient:  &http.Client{Timeout: sendTimeout},
	}
}

// connectionState mirrors the gateway's connectionState response. Depending
// on the gateway version the state lives under "instance" or at top level.
type connectionState struct {
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
	State string `json:"state"`
}

// CheckSession queries the instance connection state. Connected means an
// HTTP 200 whose reported state is "connected", case-insensitive; anything
// else, including transport errors, is not connected.
func (c *Client) CheckSession(ctx context.Context) (bool, error) {
	url := fmt.Sprintf("%s/instance/connectionState/%s", c.baseURL, c.instance)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.checkClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connection state request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var cs connectionState
	if err := json.NewDecoder(resp.Body).Decode(&cs); err != nil {
		return false, fmt.Errorf("decode connection state: %w", err)
	}

	state := cs.Instance.State
	if state == "" {
		state = cs.State
	}
	return strings.EqualFold(state, "connected"), nil
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText posts one message. Every HTTP response, success or not, comes
// back as a SendResult; an error means the request produced no response.
func (c *Client) SendText(ctx context.Context, number, text string) (ports.SendResult, error) {
	payload, err := json.Marshal(sendTextRequest{Number: number, Text: text})
	if err != nil {
		return ports.SendResult{}, fmt.Errorf("marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, c.instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return ports.SendResult{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.sendClient.Do(req)
	if err != nil {
		return ports.SendResult{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return ports.SendResult{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

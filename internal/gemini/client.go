// Package gemini talks to the Gemini API: generateContent over REST for meal
// analysis and advice, and BidiGenerateContent over a websocket for live
// voice sessions.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/logger"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 8 << 20

// Config holds what is needed to build a Client.
type Config struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	AdviceModel string
	HTTPClient  *http.Client
}

// Client is an explicitly constructed Gemini REST client. It is safe for
// concurrent use.
type Client struct {
	APIKey      string
	BaseURL     string
	VisionModel string
	AdviceModel string
	HTTPClient  *http.Client

	log *log.Logger
}

// NewClient validates cfg and fills defaults. A missing API key is a
// configuration error.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.Configuration("gemini.new_client", constants.StatusMissingKey)
	}
	c := &Client{
		APIKey:      strings.TrimSpace(cfg.APIKey),
		BaseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		VisionModel: cfg.VisionModel,
		AdviceModel: cfg.AdviceModel,
		HTTPClient:  cfg.HTTPClient,
		log:         logger.Component("gemini"),
	}
	if c.BaseURL == "" {
		c.BaseURL = constants.DefaultAPIBaseURL
	}
	if c.VisionModel == "" {
		c.VisionModel = constants.DefaultVisionModel
	}
	if c.AdviceModel == "" {
		c.AdviceModel = constants.DefaultAdviceModel
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: constants.DefaultHTTPTimeout}
	}
	return c, nil
}

// part is one element of a content's parts list.
type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	Tools            []map[string]any `json:"tools,omitempty"`
	GenerationConfig map[string]any   `json:"generationConfig,omitempty"`
}

// apiError is the error envelope returned with non-2xx statuses.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// generateContent posts req to the model and returns the raw response body.
func (c *Client) generateContent(ctx context.Context, model string, req generateRequest) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal generateContent payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create generateContent request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute generateContent request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read generateContent response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("generateContent failed with status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("generateContent failed with status %d", resp.StatusCode)
	}
	return body, nil
}

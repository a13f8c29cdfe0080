package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/nawka12/AiChanWeb/internal/chat"
	"github.com/nawka12/AiChanWeb/internal/httpkit"
)

// DefaultModel is used when neither the client nor the request names one.
const DefaultModel = "claude-3-5-sonnet-latest"

// AnthropicClient is a client for the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *slog.Logger
}

// AnthropicOption configures an AnthropicClient.
type AnthropicOption func(*anthropicConfig)

type anthropicConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at a different API root (a proxy or a
// test server). The root includes the version path, e.g.
// "https://api.anthropic.com/v1".
func WithBaseURL(u string) AnthropicOption {
	return func(c *anthropicConfig) { c.baseURL = u }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) AnthropicOption {
	return func(c *anthropicConfig) { c.httpClient = hc }
}

// NewAnthropicClient creates a client for apiKey. An empty model means
// [DefaultModel].
func NewAnthropicClient(apiKey, model string, logger *slog.Logger, opts ...AnthropicOption) *AnthropicClient {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &anthropicConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = newAnthropicHTTPClient(httpkit.NewTransport(), logger)
	}

	clientOpts := []anthropic.ClientOption{anthropic.WithHTTPClient(cfg.httpClient)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(cfg.baseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
		logger: logger.With("provider", "anthropic"),
	}
}

// newAnthropicHTTPClient builds the provider's HTTP client. Only dial
// and TLS limits apply: a 4096-token answer may take minutes before the
// first header arrives, and the caller's context governs the rest.
func newAnthropicHTTPClient(t *http.Transport, logger *slog.Logger) *http.Client {
	return httpkit.NewClient(
		httpkit.WithTransport(t),
		httpkit.WithTimeout(0),
		httpkit.WithLogger(logger),
	)
}

// Complete implements [Client].
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		Messages:    toAnthropicMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		msgReq.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: req.System}}
	}

	if c.logger.Enabled(ctx, LevelTrace) {
		if payload, err := json.Marshal(msgReq); err == nil {
			c.logger.Log(ctx, LevelTrace, "anthropic request", "payload", string(payload))
		}
	}

	start := time.Now()
	resp, err := c.client.CreateMessages(ctx, msgReq)
	if err != nil {
		if isAnthropicAuthError(err) {
			return nil, fmt.Errorf("anthropic: %w: %w", ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("anthropic: %w", err)
	}

	if c.logger.Enabled(ctx, LevelTrace) {
		if payload, err := json.Marshal(resp); err == nil {
			c.logger.Log(ctx, LevelTrace, "anthropic response", "payload", string(payload))
		}
	}

	out := fromAnthropicResponse(resp)
	c.logger.Debug("completion finished",
		"model", out.Model,
		"max_tokens", req.MaxTokens,
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
		"stop_reason", out.StopReason,
		"duration", time.Since(start),
	)
	return out, nil
}

func toAnthropicMessages(turns []chat.Turn) []anthropic.Message {
	msgs := make([]anthropic.Message, 0, len(turns))
	for _, t := range turns {
		role := anthropic.RoleUser
		if t.Role == chat.RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: toAnthropicContent(t.Content),
		})
	}
	return msgs
}

func toAnthropicContent(c chat.Content) []anthropic.MessageContent {
	if !c.IsParts() {
		return []anthropic.MessageContent{anthropic.NewTextMessageContent(c.String())}
	}
	parts := c.PartList()
	out := make([]anthropic.MessageContent, 0, len(parts))
	for _, p := range parts {
		switch {
		case p.IsText():
			out = append(out, anthropic.NewTextMessageContent(p.Text))
		case p.Source != nil:
			out = append(out, anthropic.NewImageMessageContent(anthropic.MessageContentSource{
				Type:      anthropic.MessagesContentSourceType(p.Source.Type),
				MediaType: p.Source.MediaType,
				Data:      p.Source.Data,
			}))
		default:
			out = append(out, anthropic.NewTextMessageContent(chat.ImagePlaceholder))
		}
	}
	return out
}

func fromAnthropicResponse(resp anthropic.MessagesResponse) *Response {
	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	return &Response{
		Text:         text.String(),
		Model:        string(resp.Model),
		StopReason:   string(resp.StopReason),
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
}

// isAnthropicAuthError recognises a rejected credential, whether the
// SDK decoded the error body or only saw the status code.
func isAnthropicAuthError(err error) bool {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) && string(apiErr.Type) == "authentication_error" {
		return true
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusUnauthorized {
		return true
	}
	return strings.Contains(err.Error(), "authentication_error")
}

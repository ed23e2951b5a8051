package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mwkelly/redraft/internal/config"
	"github.com/mwkelly/redraft/internal/prompt"
)

const (
	defaultBaseURL = "https://api.anthropic.com"

	// apiVersion pins the provider schema so response shapes do not
	// drift under the client.
	apiVersion = "2023-06-01"

	messagesPath = "/v1/messages"
	modelsPath   = "/v1/models"

	// maxAttempts is the total number of tries for a retryable call,
	// including the first one.
	maxAttempts = 3

	// defaultBackoffBase is the delay before the first retry. Each
	// further retry doubles it.
	defaultBackoffBase = 1000 * time.Millisecond

	connectivityPrompt    = "Reply with the single word: ok"
	connectivityMaxTokens = 16
)

// Client talks to the provider's HTTP API. It holds no per-request
// state and is safe for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	backoffBase time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API origin, mainly for tests and proxies.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithBackoffBase changes the first retry delay. Tests use this to
// avoid real sleeps.
func WithBackoffBase(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.backoffBase = d
		}
	}
}

// New creates a Client. The key may be empty: key validation happens
// per call, so hosts can construct the client before the user has
// finished configuring it.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(apiKey),
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		backoffBase: defaultBackoffBase,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CleanupRequest carries one text cleanup invocation.
type CleanupRequest struct {
	// Text is the raw input to clean up.
	Text string

	// Model is the model identifier to use.
	// Empty selects config.DefaultModel.
	Model string

	// Instruction is the base cleanup instruction.
	// Empty selects config.DefaultInstruction.
	Instruction string

	// Commentary requests a feedback section alongside the cleaned text.
	Commentary bool

	// Style selects the commentary preset when Commentary is set.
	Style config.CommentaryStyle

	// CustomInstruction is the user-authored commentary instruction,
	// required when Style is config.StyleCustom.
	CustomInstruction string

	// MaxTokens caps the reply length.
	// Zero selects config.DefaultMaxOutputTokens.
	MaxTokens int
}

// CleanupOutput is a parsed cleanup reply.
type CleanupOutput struct {
	// Cleaned is the corrected text.
	Cleaned string

	// Commentary is the feedback section, empty when the model sent none.
	Commentary string

	// Model is the model the provider reports having used.
	Model string

	// InputTokens and OutputTokens are the provider's usage counts.
	InputTokens  int
	OutputTokens int
}

// Cleanup sends text through the model and returns the parsed result.
// Validation failures and size-limit violations return before any
// network traffic happens.
func (c *Client) Cleanup(ctx context.Context, req CleanupRequest) (*CleanupOutput, error) {
	if c.apiKey == "" {
		return nil, &Error{Kind: KindCredential, Message: "api key is not configured"}
	}
	if n := len(req.Text); n > config.MaxInputChars {
		return nil, &Error{
			Kind:    KindInputTooLarge,
			Message: fmt.Sprintf("input is %d characters, the limit is %d", n, config.MaxInputChars),
		}
	}
	if est := config.EstimateTokens(req.Text); est > config.MaxEstimatedTokens {
		return nil, &Error{
			Kind:    KindInputTooLarge,
			Message: fmt.Sprintf("input is roughly %d tokens, the limit is %d", est, config.MaxEstimatedTokens),
		}
	}

	system, err := prompt.System(prompt.Options{
		Instruction:       req.Instruction,
		Commentary:        req.Commentary,
		Style:             req.Style,
		CustomInstruction: req.CustomInstruction,
	})
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Message: err.Error(), Err: err}
	}

	model := req.Model
	if model == "" {
		model = config.DefaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxOutputTokens
	}

	body := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    []contentBlock{{Type: "text", Text: system}},
		Messages: []chatMessage{
			{Role: "user", Content: []contentBlock{{Type: "text", Text: req.Text}}},
		},
	}

	logger := c.logger.With("request_id", uuid.NewString(), "model", model)
	logger.Debug("sending cleanup request", "chars", len(req.Text), "commentary", req.Commentary)

	resp, err := c.sendMessages(ctx, logger, body)
	if err != nil {
		return nil, err
	}

	cleaned, commentary, err := parseReply(joinText(resp.Content))
	if err != nil {
		logger.Warn("model reply failed validation", "error", err)
		return nil, err
	}

	logger.Debug("cleanup complete",
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	return &CleanupOutput{
		Cleaned:      cleaned,
		Commentary:   commentary,
		Model:        resp.Model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}

// TestResult reports a connectivity probe. Failures are data rather
// than errors so hosts can always render the outcome.
type TestResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Model        string `json:"model,omitempty"`
	LatencyMs    int64  `json:"latency_ms"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
}

// TestConnection sends a minimal fixed prompt and reports whether the
// credential and connectivity work. An empty key fails fast without
// touching the network. The probe uses the same retry policy as
// Cleanup, so a flaky link that a real cleanup would survive passes
// here too.
func (c *Client) TestConnection(ctx context.Context, model string) *TestResult {
	if c.apiKey == "" {
		return &TestResult{Success: false, Message: "invalid key format: api key is empty"}
	}
	if model == "" {
		model = config.DefaultModel
	}

	body := messagesRequest{
		Model:     model,
		MaxTokens: connectivityMaxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: []contentBlock{{Type: "text", Text: connectivityPrompt}}},
		},
	}

	logger := c.logger.With("request_id", uuid.NewString(), "model", model)
	logger.Debug("sending connection test")

	start := time.Now()
	resp, err := c.sendMessages(ctx, logger, body)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("connection test failed", "error", err)
		return &TestResult{Success: false, Message: err.Error(), LatencyMs: latency}
	}

	return &TestResult{
		Success:      true,
		Message:      "connection ok",
		Model:        resp.Model,
		LatencyMs:    latency,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
}

// FetchModels retrieves the live model catalog. It is a single
// authenticated round trip with no retries: staleness and fallback
// policy belong to the model cache.
func (c *Client) FetchModels(ctx context.Context) ([]ModelInfo, error) {
	if c.apiKey == "" {
		return nil, &Error{Kind: KindCredential, Message: "api key is not configured"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "building models request", Err: err}
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "models request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "reading models response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, raw)
	}

	var decoded modelListResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "decoding model list", Err: err}
	}

	c.logger.Debug("fetched model list", "models", len(decoded.Data), "has_more", decoded.HasMore)
	return decoded.Data, nil
}

// sendMessages performs the Messages call with up to maxAttempts tries.
// Transient failures back off and retry; permanent ones return
// immediately. Exhausting every attempt reports the throttle kind
// wrapping the last failure.
func (c *Client) sendMessages(ctx context.Context, logger *slog.Logger, body messagesRequest) (*messagesResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.postMessages(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		delay := c.backoffBase << (attempt - 1)
		logger.Warn("request failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return nil, &Error{Kind: KindTransport, Message: "request canceled", Err: ctx.Err()}
		case <-time.After(delay):
		}
	}

	return nil, &Error{
		Kind:    KindRateLimited,
		Message: fmt.Sprintf("giving up after %d attempts: %s", maxAttempts, lastErr.Error()),
		Err:     lastErr,
	}
}

// postMessages performs one Messages round trip.
func (c *Client) postMessages(ctx context.Context, payload []byte) (*messagesResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "building request", Err: err}
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "reading response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(resp.StatusCode, raw)
	}

	var decoded messagesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Message: "decoding response body", Err: err}
	}
	return &decoded, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
}

// classifyStatus maps a non-2xx reply to its error kind: 401 and 403
// are credential rejections, 429 is throttling, everything else stays a
// provider error carrying status and body.
func classifyStatus(status int, raw []byte) *Error {
	msg := providerMessage(raw)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &Error{
			Kind:    KindCredential,
			Message: fmt.Sprintf("api key rejected: %s", msg),
			Status:  status,
			Body:    string(raw),
		}
	case http.StatusTooManyRequests:
		return &Error{
			Kind:    KindRateLimited,
			Message: fmt.Sprintf("rate limited: %s", msg),
			Status:  status,
			Body:    string(raw),
		}
	default:
		return &Error{
			Kind:    KindProvider,
			Message: fmt.Sprintf("provider returned %d: %s", status, msg),
			Status:  status,
			Body:    string(raw),
		}
	}
}

// providerMessage digs the human-readable message out of an error body,
// falling back to truncated raw text when the envelope does not parse.
func providerMessage(raw []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	if msg := strings.TrimSpace(string(raw)); msg != "" {
		return truncate(msg, 200)
	}
	return "no response body"
}

// joinText concatenates the text of every content block in order.
func joinText(blocks []contentBlock) string {
	var b strings.Builder
	for _, blk := range blocks {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
		}
	}
	return b.String()
}

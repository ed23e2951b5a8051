package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mwkelly/redraft/internal/claude"
	"github.com/mwkelly/redraft/internal/config"
	"github.com/mwkelly/redraft/internal/prompt"
)

// fastClient builds a client against a test server with a negligible
// retry delay so retry tests finish quickly.
func fastClient(url string) *claude.Client {
	return claude.New("test-key",
		claude.WithBaseURL(url),
		claude.WithBackoffBase(time.Millisecond),
	)
}

// markedReply wraps cleaned (and optionally commentary) in the reply
// markers the client's parser expects.
func markedReply(cleaned, commentary string) string {
	text := prompt.MarkerCleanedStart + "\n" + cleaned + "\n" + prompt.MarkerCleanedEnd
	if commentary != "" {
		text += "\n\n" + prompt.MarkerCommentaryStart + "\n" + commentary + "\n" + prompt.MarkerCommentaryEnd
	}
	return text
}

// messageBody builds a provider Messages response whose single content
// block holds text.
func messageBody(t *testing.T, text string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"id":    "msg_01",
		"type":  "message",
		"role":  "assistant",
		"model": "claude-sonnet-4-5-20250929",
		"content": []map[string]string{
			{"type": "text", "text": text},
		},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]int{"input_tokens": 42, "output_tokens": 17},
	})
	if err != nil {
		t.Fatalf("building response body: %v", err)
	}
	return body
}

// wantKind asserts that err is a *claude.Error of the given kind.
func wantKind(t *testing.T, err error, kind claude.ErrorKind) *claude.Error {
	t.Helper()
	var apiErr *claude.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *claude.Error, got %T: %v", err, err)
	}
	if apiErr.Kind != kind {
		t.Fatalf("error kind = %v, want %v", apiErr.Kind, kind)
	}
	return apiErr
}

func TestCleanup_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want %q", got, "test-key")
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q, want %q", got, "2023-06-01")
		}

		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role    string `json:"role"`
				Content []struct {
					Type string `json:"type"`
					Text string `json:"text"`
				} `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if req.Model != "claude-sonnet-4-5-20250929" {
			t.Errorf("request model = %q", req.Model)
		}
		if req.MaxTokens != config.DefaultMaxOutputTokens {
			t.Errorf("request max_tokens = %d, want %d", req.MaxTokens, config.DefaultMaxOutputTokens)
		}
		if len(req.System) != 1 || !strings.Contains(req.System[0].Text, prompt.MarkerCleanedStart) {
			t.Error("system prompt is missing the output contract")
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		} else if len(req.Messages[0].Content) != 1 || req.Messages[0].Content[0].Text != "teh input" {
			t.Errorf("unexpected user content: %+v", req.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(messageBody(t, markedReply("The input.", "Short and clear.")))
	}))
	t.Cleanup(server.Close)

	out, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{
		Text:       "teh input",
		Model:      "claude-sonnet-4-5-20250929",
		Commentary: true,
		Style:      config.StyleBrief,
	})
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}

	if out.Cleaned != "The input." {
		t.Errorf("Cleaned = %q", out.Cleaned)
	}
	if out.Commentary != "Short and clear." {
		t.Errorf("Commentary = %q", out.Commentary)
	}
	if out.InputTokens != 42 || out.OutputTokens != 17 {
		t.Errorf("usage = %d/%d, want 42/17", out.InputTokens, out.OutputTokens)
	}
	if out.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Model = %q", out.Model)
	}
}

func TestCleanup_DefaultsModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if req.Model != config.DefaultModel {
			t.Errorf("request model = %q, want %q", req.Model, config.DefaultModel)
		}
		_, _ = w.Write(messageBody(t, markedReply("Fine.", "")))
	}))
	t.Cleanup(server.Close)

	if _, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "fine"}); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
}

func TestCleanup_CommentaryAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(messageBody(t, markedReply("Clean.", "")))
	}))
	t.Cleanup(server.Close)

	out, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{
		Text:       "clean",
		Commentary: true,
	})
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if out.Commentary != "" {
		t.Errorf("Commentary = %q, want empty", out.Commentary)
	}
}

func TestCleanup_MalformedReplyNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(messageBody(t, "Here you go, all fixed up!"))
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	wantKind(t, err, claude.KindMalformedResponse)
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestCleanup_CredentialRejectedNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	apiErr := wantKind(t, err, claude.KindCredential)
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", apiErr.Status)
	}
	if !strings.Contains(apiErr.Message, "invalid x-api-key") {
		t.Errorf("Message = %q, want the provider message in it", apiErr.Message)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestCleanup_ProviderErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens required"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	apiErr := wantKind(t, err, claude.KindProvider)
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", apiErr.Status)
	}
	if apiErr.Body == "" {
		t.Error("Body is empty, want the raw response")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestCleanup_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
			return
		}
		_, _ = w.Write(messageBody(t, markedReply("Recovered.", "")))
	}))
	t.Cleanup(server.Close)

	out, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	if err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}
	if out.Cleaned != "Recovered." {
		t.Errorf("Cleaned = %q", out.Cleaned)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestCleanup_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	apiErr := wantKind(t, err, claude.KindRateLimited)
	if !strings.Contains(apiErr.Message, "giving up after 3 attempts") {
		t.Errorf("Message = %q, want retry exhaustion in it", apiErr.Message)
	}
	if !strings.Contains(apiErr.Message, "overloaded") {
		t.Errorf("Message = %q, want the last underlying failure in it", apiErr.Message)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestCleanup_RateLimitedIsRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	wantKind(t, err, claude.KindRateLimited)
	if n := calls.Load(); n != 3 {
		t.Errorf("server saw %d requests, want 3", n)
	}
}

func TestCleanup_TransportFailureExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := fastClient(url).Cleanup(context.Background(), claude.CleanupRequest{Text: "hi"})
	apiErr := wantKind(t, err, claude.KindRateLimited)
	if !strings.Contains(apiErr.Message, "giving up after 3 attempts") {
		t.Errorf("Message = %q, want retry exhaustion in it", apiErr.Message)
	}
}

func TestCleanup_ValidationSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write(messageBody(t, markedReply("nope", "")))
	}))
	t.Cleanup(server.Close)

	tests := []struct {
		name string
		key  string
		req  claude.CleanupRequest
		kind claude.ErrorKind
	}{
		{
			name: "empty api key",
			key:  "",
			req:  claude.CleanupRequest{Text: "hello"},
			kind: claude.KindCredential,
		},
		{
			name: "input over character ceiling",
			key:  "test-key",
			req:  claude.CleanupRequest{Text: strings.Repeat("a", config.MaxInputChars+1)},
			kind: claude.KindInputTooLarge,
		},
		{
			name: "custom style without instruction",
			key:  "test-key",
			req: claude.CleanupRequest{
				Text:       "hello",
				Commentary: true,
				Style:      config.StyleCustom,
			},
			kind: claude.KindConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := claude.New(tt.key, claude.WithBaseURL(server.URL), claude.WithBackoffBase(time.Millisecond))
			_, err := client.Cleanup(context.Background(), tt.req)
			wantKind(t, err, tt.kind)
			if n := calls.Load(); n != 0 {
				t.Errorf("server saw %d requests, want 0", n)
			}
		})
	}
}

func TestCleanup_CanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := claude.New("test-key",
		claude.WithBaseURL(server.URL),
		claude.WithBackoffBase(time.Minute),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Cleanup(ctx, claude.CleanupRequest{Text: "hi"})
	wantKind(t, err, claude.KindTransport)
}

func TestTestConnection_EmptyKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	res := claude.New("", claude.WithBaseURL(server.URL)).TestConnection(context.Background(), "")
	if res.Success {
		t.Error("Success = true, want false")
	}
	if !strings.Contains(res.Message, "invalid key format") {
		t.Errorf("Message = %q, want invalid key format in it", res.Message)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestTestConnection_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(messageBody(t, "ok"))
	}))
	t.Cleanup(server.Close)

	res := fastClient(server.URL).TestConnection(context.Background(), "")
	if !res.Success {
		t.Fatalf("Success = false: %s", res.Message)
	}
	if res.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("Model = %q", res.Model)
	}
	if res.LatencyMs < 0 {
		t.Errorf("LatencyMs = %d, want >= 0", res.LatencyMs)
	}
	if res.InputTokens != 42 || res.OutputTokens != 17 {
		t.Errorf("usage = %d/%d, want 42/17", res.InputTokens, res.OutputTokens)
	}
}

func TestTestConnection_ReportsFailureAsData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	t.Cleanup(server.Close)

	res := fastClient(server.URL).TestConnection(context.Background(), "")
	if res.Success {
		t.Error("Success = true, want false")
	}
	if !strings.Contains(res.Message, "api key rejected") {
		t.Errorf("Message = %q, want the rejection in it", res.Message)
	}
}

func TestFetchModels_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/models" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		_, _ = w.Write([]byte(`{
			"data": [
				{"id":"claude-opus-4-1-20250805","display_name":"Claude Opus 4.1","created_at":"2025-08-05T00:00:00Z","type":"model"},
				{"id":"claude-sonnet-4-5-20250929","display_name":"Claude Sonnet 4.5","created_at":"2025-09-29T00:00:00Z","type":"model"}
			],
			"first_id": "claude-opus-4-1-20250805",
			"has_more": false,
			"last_id": "claude-sonnet-4-5-20250929"
		}`))
	}))
	t.Cleanup(server.Close)

	models, err := fastClient(server.URL).FetchModels(context.Background())
	if err != nil {
		t.Fatalf("FetchModels returned error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].ID != "claude-opus-4-1-20250805" || models[0].DisplayName != "Claude Opus 4.1" {
		t.Errorf("unexpected first model: %+v", models[0])
	}
	if models[0].CreatedAt.Year() != 2025 {
		t.Errorf("CreatedAt = %v, want a 2025 date", models[0].CreatedAt)
	}
}

func TestFetchModels_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).FetchModels(context.Background())
	wantKind(t, err, claude.KindCredential)
}

func TestFetchModels_ServerErrorSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	_, err := fastClient(server.URL).FetchModels(context.Background())
	apiErr := wantKind(t, err, claude.KindProvider)
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", apiErr.Status)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d requests, want 1", n)
	}
}

func TestFetchModels_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := fastClient(url).FetchModels(context.Background())
	wantKind(t, err, claude.KindTransport)
}

func TestFetchModels_EmptyKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	_, err := claude.New("", claude.WithBaseURL(server.URL)).FetchModels(context.Background())
	wantKind(t, err, claude.KindCredential)
	if n := calls.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

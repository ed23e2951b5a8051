package claude

import "time"

// Wire types for the Messages and Models endpoints. Field sets mirror
// the provider JSON; response fields this package never reads are still
// decoded so persisted records stay faithful to what the provider sent.

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type chatMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    []contentBlock `json:"system,omitempty"`
	Messages  []chatMessage  `json:"messages"`
}

type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`

	// StopSequence is nullable in the provider schema. It is carried
	// as a pointer and never interpreted.
	StopSequence *string `json:"stop_sequence"`

	Usage usage `json:"usage"`
}

type usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// errorEnvelope is the provider's error body shape. Decoding is
// best-effort: bodies that do not match fall back to raw text.
type errorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type modelListResponse struct {
	Data    []ModelInfo `json:"data"`
	FirstID *string     `json:"first_id"`
	HasMore bool        `json:"has_more"`
	LastID  *string     `json:"last_id"`
}

// ModelInfo describes one selectable model as reported by the provider.
// The model cache persists these records verbatim.
type ModelInfo struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	Type        string    `json:"type"`
}

package entity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ContentTypeText is the only content block type the engines read.
const ContentTypeText = "text"

// Content is one block of a Response envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Response is the envelope returned by every collaborator call.
type Response struct {
	Content []Content `json:"content"`
}

// Handler performs entity operations against the backing system.
type Handler interface {
	Handle(ctx context.Context, operation string, params map[string]any) (*Response, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, operation string, params map[string]any) (*Response, error)

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, operation string, params map[string]any) (*Response, error) {
	return f(ctx, operation, params)
}

// Pinger is implemented by collaborators with a dedicated health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// GetOp returns the read operation name for an entity type.
func GetOp(entityType string) string { return "get_" + entityType }

// UpdateOp returns the write operation name for an entity type.
func UpdateOp(entityType string) string { return "update_" + entityType }

// ParseOp splits an operation name into its verb and entity type.
func ParseOp(operation string) (verb, entityType string, err error) {
	verb, entityType, ok := strings.Cut(operation, "_")
	if !ok || verb == "" || entityType == "" {
		return "", "", NewValidation(operation, "", "malformed operation name")
	}
	return verb, entityType, nil
}

// TextResponse wraps v as a single JSON text block.
func TextResponse(v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return &Response{Content: []Content{{Type: ContentTypeText, Text: string(data)}}}, nil
}

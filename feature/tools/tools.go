// Package tools exposes the query, bulk and maintenance operations as MCP tools.
//
// Each tool follows the same shape: a struct holding its engine, Definition()
// returning the mcp.Tool schema and Handle() running the call. Failures are
// reported as tool error results so the client sees the message.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"batch-engine/core/entity"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is an MCP tool definition together with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// errorResult reports err with its kind so clients can tell bad input from
// backend failures.
func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s error: %v", entity.KindOf(err), err)), nil
}

// bindArg decodes the argument key into out through JSON.
// A missing argument leaves out untouched.
func bindArg(req mcp.CallToolRequest, key string, out any) error {
	v, ok := req.GetArguments()[key]
	if !ok || v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid %q: %w", key, err)
	}
	return nil
}

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// boolArg extracts a boolean argument.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// idsArg reads a list of ids. Numbers are accepted and formatted.
func idsArg(req mcp.CallToolRequest) ([]string, error) {
	var raw []any
	if err := bindArg(req, "ids", &raw); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		switch id := v.(type) {
		case string:
			ids = append(ids, id)
		case float64:
			ids = append(ids, fmt.Sprintf("%.0f", id))
		default:
			return nil, entity.Validationf("ids must be strings, got %T", v)
		}
	}
	return ids, nil
}

func entityTypeArg() mcp.ToolOption {
	return mcp.WithString("entity_type",
		mcp.Required(),
		mcp.Description("Entity type, e.g. features, notes, companies"),
	)
}

func idsParam(maxIDs int) mcp.ToolOption {
	return mcp.WithArray("ids",
		mcp.Required(),
		mcp.Description(fmt.Sprintf("Entity ids (max %d)", maxIDs)),
		mcp.WithStringItems(),
	)
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/codelf"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
)

// handleRequestVariable handles the request_variable tool invocation
func (s *Server) handleRequestVariable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing or not a string",
		})
	}

	page := 1
	if v, ok := args["page"].(float64); ok {
		if v < 1 {
			return nil, newMCPError(ErrorCodeInvalidParams, "page must be at least 1", map[string]interface{}{
				"param": "page",
				"value": v,
			})
		}
		page = int(v)
	}

	var langs []string
	if raw, ok := args["lang"].([]interface{}); ok {
		for _, v := range raw {
			if lang, ok := v.(string); ok && lang != "" {
				langs = append(langs, lang)
			}
		}
	}

	res, err := s.requester.RequestVariable(ctx, codelf.QueryOption{
		Query: query,
		Page:  page,
		Lang:  langs,
	})
	if err != nil {
		if errors.Is(err, codelf.ErrNoTranslator) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.logger.WithError(err).Error("request_variable failed")
		return nil, newMCPError(ErrorCodeInternalError, "request failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	s.logger.WithFields(logrus.Fields{
		"query":     query,
		"page":      page,
		"variables": len(res.VariableList),
	}).Debug("request_variable completed")

	return mcp.NewToolResultText(formatJSON(res)), nil
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

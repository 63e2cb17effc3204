package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dasmlab/codelf/pkg/searchcode"
)

// requestVariableTool returns the tool definition for request_variable
func requestVariableTool() mcp.Tool {
	return mcp.Tool{
		Name:        "request_variable",
		Description: "Find identifier names used in public source code for a query. Chinese queries are translated to English first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What the variable should express, in English or Chinese",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Result page to fetch",
					"default":     1,
					"minimum":     1,
				},
				"lang": map[string]interface{}{
					"type":        "array",
					"description": "Programming languages to restrict the search to",
					"items": map[string]interface{}{
						"type": "string",
						"enum": searchcode.Languages(),
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

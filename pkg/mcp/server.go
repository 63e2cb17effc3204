// Package mcp exposes variable lookups to MCP clients over stdio.
package mcp

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/dasmlab/codelf/pkg/service"
)

const (
	// ServerName is the MCP server name
	ServerName = "codelf"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with a variable requester.
type Server struct {
	mcp       *server.MCPServer
	requester service.VariableRequester
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance with its tools registered.
func NewServer(requester service.VariableRequester, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		requester: requester,
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until ctx is done or
// stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO serves JSON-RPC read from in and written to out.
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.WithFields(logrus.Fields{
		"name":    ServerName,
		"version": ServerVersion,
	}).Info("Serving MCP on stdio")

	stdio := server.NewStdioServer(s.mcp)
	errWriter := s.logger.WriterLevel(logrus.ErrorLevel)
	defer errWriter.Close()
	stdio.SetErrorLogger(log.New(errWriter, "", 0))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) registerTools() {
	s.mcp.AddTool(requestVariableTool(), s.handleRequestVariable)
}

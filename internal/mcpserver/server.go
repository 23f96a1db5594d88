// Package mcpserver exposes a reading session as MCP tools, so an agent can
// walk a story the way a reader does.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papapumpkin/palimpsest/internal/reader"
)

// Version is the palimpsest MCP server version.
const Version = "0.1.0"

// Server is the palimpsest MCP server. All tools act on one session.
type Server struct {
	session *reader.Session
	mcp     *mcp.Server
	log     *slog.Logger
}

// NewServer creates a server over sess with its tools registered. A nil
// logger discards.
func NewServer(sess *reader.Session, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		session: sess,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "palimpsest",
			Version: Version,
		}, nil),
		log: log,
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.registerNodeTools()
	s.registerJourneyTools()
}

// Run serves the tools over stdin/stdout until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("mcp server starting", "session", s.session.ID())
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcpserver: %w", err)
	}
	return nil
}

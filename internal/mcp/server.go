package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/domain/upload"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// SessionService defines chat-window operations needed by MCP.
type SessionService interface {
	Hydrate(ctx context.Context) error
	Sessions() []session.Session
	Get(sessionID string) (session.Session, error)
	Active() (session.Session, error)
	Create(ctx context.Context) (session.Session, error)
	Select(ctx context.Context, sessionID string) error
	Delete(ctx context.Context, sessionID string) error
	Rename(ctx context.Context, sessionID, title string) bool
	Documents(sessionID string) ([]session.Document, error)
	DeleteDocument(ctx context.Context, sessionID, docID string) error
}

// UploadService defines document upload operations needed by MCP.
type UploadService interface {
	Upload(ctx context.Context, files []upload.File) (*upload.Result, error)
}

// SearchService defines question answering operations needed by MCP.
type SearchService interface {
	Query(ctx context.Context, text string) (*message.Message, error)
	Evidence(messageID string) ([]message.Chunk, error)
}

// ConversationService exposes the visible conversation.
type ConversationService interface {
	Owner() string
	Messages() []message.Message
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Sessions     SessionService
	Uploads      UploadService
	Search       SearchService
	Conversation ConversationService
	Activity     ActivityService
}

// Config contains server configuration.
type Config struct {
	Services Services
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "neosearch",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(requestIDMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound", cfg.Services.Sessions))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound", cfg.Services.Sessions))

	registerTools(server, NewHandler(cfg.Services), cfg.Logger)

	return server
}

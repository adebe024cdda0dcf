package mcp

import (
	"context"

	"github.com/ganot/neosearch/internal/transport"
	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// requestIDMiddleware tags every tool call with a fresh request id so the
// backend calls it fans out to can be correlated in logs.
func requestIDMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if _, ok := transport.RequestIDFromContext(ctx); method == "tools/call" && !ok {
				ctx = transport.WithRequestID(ctx, uuid.NewString())
			}
			return next(ctx, method, req)
		}
	}
}

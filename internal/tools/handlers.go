package tools

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
	"github.com/delfinacorr/hello-tiburona/internal/identity"
)

// Handler is the MCP tool handler signature.
type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InitializeHandler returns the handler for the "initialize" tool.
func InitializeHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		admin, err := requireIdentity(req, "admin")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.Initialize(ctx, admin); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("initialized; admin is " + admin.String()), nil
	}
}

// SetLimitHandler returns the handler for the "set-limit" tool.
func SetLimitHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, err := requireIdentity(req, "caller")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, err := req.RequireInt("limit")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if n < 0 || int64(n) > math.MaxUint32 {
			return mcp.NewToolResultError(fmt.Sprintf("limit %d out of range", n)), nil
		}
		if err := svc.SetLimit(ctx, caller, uint32(n)); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("character limit set to %d", n)), nil
	}
}

// HelloHandler returns the handler for the "hello" tool.
func HelloHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		caller, err := requireIdentity(req, "caller")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		// An empty name is the contract's call to reject, not ours.
		name := req.GetString("name", "")
		tok, err := svc.Hello(ctx, caller, name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(tok), nil
	}
}

// CounterHandler returns the handler for the "get-counter" tool.
func CounterHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := svc.Counter(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(strconv.FormatUint(uint64(n), 10)), nil
	}
}

// LastGreetingHandler returns the handler for the "get-last-greeting" tool.
func LastGreetingHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireIdentity(req, "identity")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text, ok, err := svc.LastGreeting(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !ok {
			return mcp.NewToolResultText(id.String() + " has not greeted yet"), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// ResetCounterHandler returns the handler for the "reset-counter" tool.
func ResetCounterHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, err := requireIdentity(req, "caller")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.ResetCounter(ctx, caller); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("counter reset"), nil
	}
}

// UserCounterHandler returns the handler for the "get-user-counter" tool.
func UserCounterHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requireIdentity(req, "identity")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		n, err := svc.UserCounter(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(strconv.FormatUint(uint64(n), 10)), nil
	}
}

// AdminHandler returns the handler for the "get-admin" tool. The underlying
// call panics on an uninitialized contract; the server's recovery
// middleware turns that into an error result.
func AdminHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := svc.Admin(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(id.String()), nil
	}
}

// TransferAdminHandler returns the handler for the "transfer-admin" tool.
func TransferAdminHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		caller, err := requireIdentity(req, "caller")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		next, err := requireIdentity(req, "new_admin")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if err := svc.TransferAdmin(ctx, caller, next); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("admin is now " + next.String()), nil
	}
}

// RestoreHandler returns the handler for the "restore" tool.
func RestoreHandler(svc greeter.Service) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := identity.Identity(req.GetString("identity", ""))
		restored, err := svc.Restore(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !restored {
			return mcp.NewToolResultText("nothing archived"), nil
		}
		return mcp.NewToolResultText("archived state restored"), nil
	}
}

func requireIdentity(req mcp.CallToolRequest, key string) (identity.Identity, error) {
	s, err := req.RequireString(key)
	if err != nil {
		return "", err
	}
	id := identity.Identity(s)
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return id, nil
}

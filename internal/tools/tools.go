package tools

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/delfinacorr/hello-tiburona/internal/greeter"
)

// Register adds one tool per contract operation to s.
func Register(s *server.MCPServer, svc greeter.Service) {
	s.AddTool(mcp.NewTool("initialize",
		mcp.WithDescription(multiline(
			"Sets the contract administrator. Succeeds only once",
			"- Fails if the contract has already been initialized",
		)),
		mcp.WithString("admin", mcp.Required(), mcp.Description("Identity that becomes admin")),
	), InitializeHandler(svc))

	s.AddTool(mcp.NewTool("set-limit",
		mcp.WithDescription(multiline(
			"Sets the maximum greeting length in bytes (admin only)",
			"- Until set, the limit is 32",
		)),
		mcp.WithString("caller", mcp.Required(), mcp.Description("Authenticated caller identity")),
		mcp.WithNumber("limit", mcp.Required(), mcp.Description("New maximum length"), mcp.Min(0)),
	), SetLimitHandler(svc))

	s.AddTool(mcp.NewTool("hello",
		mcp.WithDescription(multiline(
			"Greets the contract with a name",
			"\nFunctionality:",
			"- Rejects an empty name or one longer than the current limit",
			"- Records the name as the caller's last greeting",
			"- Increments the global and per-caller counters",
			"- Returns \"Hola\" on success",
		)),
		mcp.WithString("caller", mcp.Required(), mcp.Description("Authenticated caller identity")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Greeting text")),
	), HelloHandler(svc))

	s.AddTool(mcp.NewTool("get-counter",
		mcp.WithDescription("Returns the global greeting counter"),
		mcp.WithReadOnlyHintAnnotation(true),
	), CounterHandler(svc))

	s.AddTool(mcp.NewTool("get-last-greeting",
		mcp.WithDescription("Returns the last greeting an identity submitted"),
		mcp.WithString("identity", mcp.Required(), mcp.Description("Identity to look up")),
		mcp.WithReadOnlyHintAnnotation(true),
	), LastGreetingHandler(svc))

	s.AddTool(mcp.NewTool("reset-counter",
		mcp.WithDescription("Sets the global greeting counter to zero (admin only)"),
		mcp.WithString("caller", mcp.Required(), mcp.Description("Authenticated caller identity")),
	), ResetCounterHandler(svc))

	s.AddTool(mcp.NewTool("get-user-counter",
		mcp.WithDescription("Returns how many times an identity has greeted"),
		mcp.WithString("identity", mcp.Required(), mcp.Description("Identity to look up")),
		mcp.WithReadOnlyHintAnnotation(true),
	), UserCounterHandler(svc))

	s.AddTool(mcp.NewTool("get-admin",
		mcp.WithDescription("Returns the current administrator. Fails if the contract is not initialized"),
		mcp.WithReadOnlyHintAnnotation(true),
	), AdminHandler(svc))

	s.AddTool(mcp.NewTool("transfer-admin",
		mcp.WithDescription("Hands the admin role to another identity (admin only)"),
		mcp.WithString("caller", mcp.Required(), mcp.Description("Authenticated caller identity")),
		mcp.WithString("new_admin", mcp.Required(), mcp.Description("Identity that becomes admin")),
	), TransferAdminHandler(svc))

	s.AddTool(mcp.NewTool("restore",
		mcp.WithDescription(multiline(
			"Brings archived contract state back after its lifetime ran out",
			"- Restores the admin, limit and counters, keeping their values",
			"- With an identity, also restores that identity's last greeting",
			"- Does nothing when the state is still live",
		)),
		mcp.WithString("identity", mcp.Description("Identity whose last greeting to restore")),
	), RestoreHandler(svc))
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

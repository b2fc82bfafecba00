// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes confcheck runs for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/confcheck/internal/checker"
)

// RuleSetURI is the resource holding the active rule set.
const RuleSetURI = "confcheck://ruleset"

// RuleFormatURI is the resource holding the rule set format guide.
const RuleFormatURI = "confcheck://rule-format"

// Server wraps the MCP server with confcheck tools.
type Server struct {
	mcp *server.MCPServer
	svc *checker.Service
}

// New creates a new MCP server with all confcheck tools registered.
func New(svc *checker.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"confcheck",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("run_checks",
		mcp.WithDescription("Run the conformance rules against the project tree and return the JSON report. "+
			"Reports are not written to disk."),
		mcp.WithString("group", mcp.Description("Optional rule group to run (empty for all rules)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.runChecks)

	s.mcp.AddTool(mcp.NewTool("run_aggregate",
		mcp.WithDescription("Run every rule group and return the weighted aggregate report with grade and recommendations."),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.runAggregate)

	s.mcp.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the loaded rules with their group, kind, severity and target."),
		mcp.WithString("group", mcp.Description("Optional rule group to list (empty for all)")),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.listRules)

	s.mcp.AddTool(mcp.NewTool("get_rule_format",
		mcp.WithDescription("Returns the rule set YAML format. "+
			"Call this before proposing changes to the rule set."),
	), s.getRuleFormat)

	s.mcp.AddResource(
		mcp.NewResource(RuleSetURI, "Active rule set",
			mcp.WithResourceDescription("The YAML rule set the checks run with."),
			mcp.WithMIMEType("application/yaml"),
		),
		s.readRuleSetResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(RuleFormatURI, "Rule set format",
			mcp.WithResourceDescription("How rule set YAML files are structured."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRuleFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout. Transport errors are
// logged through logger.
func (s *Server) ServeStdio(logger *slog.Logger) error {
	return server.ServeStdio(s.mcp,
		server.WithErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)))
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) runChecks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.svc.Check(ctx, req.GetString("group", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(r)
}

func (s *Server) runAggregate(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.svc.Aggregate(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(a)
}

func (s *Server) listRules(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos, err := s.svc.Rules(req.GetString("group", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(infos)
}

func (s *Server) getRuleFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RuleFormatContract), nil
}

func (s *Server) readRuleSetResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RuleSetURI,
			MIMEType: "application/yaml",
			Text:     string(s.svc.RuleSet().Raw()),
		},
	}, nil
}

func (s *Server) readRuleFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RuleFormatURI,
			MIMEType: "text/markdown",
			Text:     RuleFormatContract,
		},
	}, nil
}

// Package mcp exposes the pipeline as MCP tools so agent frontends can
// trigger runs and inspect the exclusion ledger.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/oshomadesse/shiori/internal/core/ports"
)

type Server struct {
	runner ports.PipelineRunner
	ledger ports.ExclusionLedger
	queue  ports.RunQueue

	mcpServer *server.MCPServer
}

// NewServer registers the pipeline tools. queue may be nil; the async
// trigger tool then reports that no queue is configured.
func NewServer(runner ports.PipelineRunner, ledger ports.ExclusionLedger, queue ports.RunQueue, version string) *Server {
	s := &Server{
		runner: runner,
		ledger: ledger,
		queue:  queue,
		mcpServer: server.NewMCPServer(
			"shiori",
			version,
			server.WithToolCapabilities(false),
		),
	}

	s.mcpServer.AddTool(mcp.NewTool("run_now",
		mcp.WithDescription("Run the daily book pipeline synchronously and return the outcome."),
		mcp.WithString("date", mcp.Description("Run date as YYYY-MM-DD; empty means today.")),
	), s.handleRunNow)

	s.mcpServer.AddTool(mcp.NewTool("trigger_run",
		mcp.WithDescription("Queue an asynchronous pipeline run for the worker."),
		mcp.WithString("date", mcp.Description("Run date as YYYY-MM-DD; empty means today.")),
	), s.handleTriggerRun)

	s.mcpServer.AddTool(mcp.NewTool("list_excluded_books",
		mcp.WithDescription("List previously-chosen book titles that future runs will skip."),
	), s.handleListExcluded)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleRunNow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := parseDate(req.GetString("date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, runErr := s.runner.Run(ctx, date)
	if runErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run failed at stage %s: %v", state.Stage, runErr)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", state.Status())
	if state.Candidate != nil {
		fmt.Fprintf(&b, "book: %s（%s）\n", state.Candidate.Title, state.Candidate.Author)
	}
	fmt.Fprintf(&b, "note: %s\n", state.NotePath)
	if state.Artifact != nil {
		fmt.Fprintf(&b, "infographic: %s\n", state.Artifact.Link())
	}
	for _, effect := range state.Degraded {
		fmt.Fprintf(&b, "degraded: %s\n", effect)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleTriggerRun(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.queue == nil {
		return mcp.NewToolResultError("no run queue configured"), nil
	}
	dateKey := req.GetString("date", "")
	if dateKey != "" {
		if _, err := parseDate(dateKey); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if err := s.queue.PublishRunRequest(ctx, dateKey); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("publish run request: %v", err)), nil
	}
	return mcp.NewToolResultText("run request queued"), nil
}

func (s *Server) handleListExcluded(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	titles, err := s.ledger.ListTitles(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list exclusion ledger: %v", err)), nil
	}
	if len(titles) == 0 {
		return mcp.NewToolResultText("no excluded books yet"), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
	}
	return date, nil
}

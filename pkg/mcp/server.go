// Package mcp serves the star import fixer as a Model Context Protocol tool
// over stdio.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/removestar/pkg/observability"
	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/version"
)

const (
	serverName = "removestar"
	spanPrefix = "mcp."
	// traceIDLabel prefixes the extra text content carrying the trace ID of
	// a sampled call.
	traceIDLabel = "trace_id="
)

// ServerDeps are the optional collaborators of a Server. Nil fields disable
// the matching signal.
type ServerDeps struct {
	Logger     *slog.Logger
	Tracer     trace.Tracer
	Requests   *observability.RequestMetrics
	FixMetrics *observability.FixMetrics

	// Fix overrides removestar.DefaultOptions().
	Fix *removestar.Options
}

// Server is an MCP server exposing removestar_fix.
type Server struct {
	inner    *mcpsdk.Server
	tools    []string
	tracer   trace.Tracer
	requests *observability.RequestMetrics
	fix      removestar.Options
}

// NewServer creates a server with every tool registered.
func NewServer(deps ServerDeps) *Server {
	fix := removestar.DefaultOptions()
	if deps.Fix != nil {
		fix = *deps.Fix
	}

	if fix.Logger == nil {
		fix.Logger = deps.Logger
	}

	if fix.Tracer == nil {
		fix.Tracer = deps.Tracer
	}

	if fix.Metrics == nil {
		fix.Metrics = deps.FixMetrics
	}

	tracer := deps.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(serverName)
	}

	srv := &Server{
		inner: mcpsdk.NewServer(
			&mcpsdk.Implementation{Name: serverName, Version: version.Version},
			&mcpsdk.ServerOptions{Logger: deps.Logger},
		),
		tracer:   tracer,
		requests: deps.Requests,
		fix:      fix,
	}

	addTool(srv, &mcpsdk.Tool{Name: ToolNameFix, Description: fixToolDescription}, srv.handleFix)

	return srv
}

// ListToolNames returns the sorted names of the registered tools.
func (s *Server) ListToolNames() []string {
	names := slices.Clone(s.tools)
	slices.Sort(names)

	return names
}

// Run serves on stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}

	return nil
}

// addTool registers handler wrapped with a span and request metrics.
func addTool[In, Out any](s *Server, tool *mcpsdk.Tool, handler mcpsdk.ToolHandlerFor[In, Out]) {
	mcpsdk.AddTool(s.inner, tool, instrument(s.tracer, s.requests, tool.Name, handler))
	s.tools = append(s.tools, tool.Name)
}

// instrument runs every call of a tool inside a server span. A tool result
// flagged IsError counts as a failed request. Results of sampled calls get
// an extra text item carrying the trace ID.
func instrument[In, Out any](
	tracer trace.Tracer, requests *observability.RequestMetrics, name string, handler mcpsdk.ToolHandlerFor[In, Out],
) mcpsdk.ToolHandlerFor[In, Out] {
	op := spanPrefix + name

	return func(ctx context.Context, req *mcpsdk.CallToolRequest, input In) (*mcpsdk.CallToolResult, Out, error) {
		ctx, span := tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("mcp.tool", name)),
		)
		defer span.End()

		done := requests.Begin(ctx, op)

		result, output, err := handler(ctx, req, input)

		failed := err != nil || (result != nil && result.IsError)
		done(failed)

		if failed {
			span.SetStatus(codes.Error, "tool call failed")
		}

		if sc := span.SpanContext(); sc.IsSampled() && result != nil {
			result.Content = append(result.Content, &mcpsdk.TextContent{Text: traceIDLabel + sc.TraceID().String()})
		}

		return result, output, err
	}
}

const fixToolDescription = "Replace Python star imports (from .module import *) with explicit imports " +
	"of the names the code actually uses. Accepts inline code and the directory relative " +
	"modules are resolved from. Returns the fixed code, a unified diff, the names attributed " +
	"to each module and any warnings."

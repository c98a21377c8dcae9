package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sniku/gowiki/metrics"
	"github.com/sniku/gowiki/tracing"
	"github.com/sniku/gowiki/wiki"
)

// HandlerRegistry binds the declared tools to one wiki client.
type HandlerRegistry struct {
	client *wiki.Client
	logger *slog.Logger

	// mu serializes tool calls; the client keeps one session and is not
	// safe for concurrent use
	mu sync.Mutex
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(client *wiki.Client, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		client: client,
		logger: logger,
	}
}

// RegisterAll registers every tool in AllTools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered tools", "count", registered, "declared", len(AllTools))
}

// registerByName binds spec.Method to its client method. It reports false for
// an unknown method.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "Search":
		mcp.AddTool(server, tool, handler(h, spec, h.client.SearchMCP))
	case "GetPage":
		mcp.AddTool(server, tool, handler(h, spec, h.client.GetPageMCP))
	case "SavePage":
		mcp.AddTool(server, tool, handler(h, spec, h.client.SavePageMCP))
	case "Append":
		mcp.AddTool(server, tool, handler(h, spec, h.client.AppendMCP))
	case "Log":
		mcp.AddTool(server, tool, handler(h, spec, h.client.LogMCP))
	case "MovePage":
		mcp.AddTool(server, tool, handler(h, spec, h.client.MoveMCP))
	case "UploadFile":
		mcp.AddTool(server, tool, handler(h, spec, h.client.UploadMCP))
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// loggable is implemented by the wiki argument and result types
type loggable interface {
	LogAttrs() []any
}

// handler adapts a client method to a typed MCP handler. Each call runs under
// the registry lock inside its own span, and panics come back as tool errors.
func handler[Args, Result any](
	h *HandlerRegistry,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) mcp.ToolHandlerFor[Args, Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args Args) (_ *mcp.CallToolResult, result Result, err error) {
		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()
		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		inFlight := metrics.RequestInFlight.WithLabelValues(spec.Name)
		inFlight.Inc()
		defer inFlight.Dec()

		h.mu.Lock()
		defer h.mu.Unlock()

		start := time.Now()
		defer func() {
			if rec := recover(); rec != nil {
				metrics.PanicsRecovered.WithLabelValues(spec.Name).Inc()
				h.logger.Error("Panic recovered",
					"tool", spec.Name,
					"panic", rec,
					"stack", string(debug.Stack()))
				err = fmt.Errorf("%s failed: internal error", spec.Name)
			}

			duration := time.Since(start).Seconds()
			metrics.RecordRequest(spec.Name, duration, err == nil)
			tracing.RecordError(span, err)
			if err == nil {
				h.logExecution(spec, args, result, duration)
			}
		}()

		result, err = method(ctx, args)
		if err != nil {
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}
		return nil, result, nil
	}
}

// logExecution logs a successful tool call with whatever its arguments and
// result choose to expose.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any, duration float64) {
	attrs := []any{"tool", spec.Name, "duration_ms", int(duration * 1000)}
	if l, ok := args.(loggable); ok {
		attrs = append(attrs, l.LogAttrs()...)
	}
	if l, ok := result.(loggable); ok {
		attrs = append(attrs, l.LogAttrs()...)
	}
	h.logger.Info("Tool executed", attrs...)
}

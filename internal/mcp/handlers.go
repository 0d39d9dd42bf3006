package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dogfacts/dogfacts/internal/config"
	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/ops"
	"github.com/dogfacts/dogfacts/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store  store.Store
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st store.Store, cfg *config.Config, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{store: st, cfg: cfg, logger: logger}
}

// GetRequest represents the arguments for facts_get.
type GetRequest struct {
	Count int `json:"count"`
}

// CreateRequest represents the arguments for facts_create.
type CreateRequest struct {
	Description string `json:"description"`
	Token       string `json:"token"`
}

// ExportRequest represents the arguments for facts_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for facts_import.
type ImportRequest struct {
	Path  string `json:"path"`
	Mode  string `json:"mode,omitempty"`
	Token string `json:"token"`
}

// HandleGet handles the facts_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return h.errorResult(err), nil
	}

	result, err := ops.GetFacts(ctx, h.store, ops.GetInput{Count: input.Count})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// HandleCreate handles the facts_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return h.errorResult(err), nil
	}

	result, err := ops.CreateFact(ctx, h.store, h.cfg, ops.CreateInput{
		Description: input.Description,
		Token:       input.Token,
	})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the facts_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return h.errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the facts_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return h.errorResult(err), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, ops.ImportInput{
		Path:  input.Path,
		Mode:  ops.ImportMode(input.Mode),
		Token: input.Token,
	})
	if err != nil {
		return h.errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from an error.
func (h *Handlers) errorResult(err error) *mcp.CallToolResult {
	fErr := errors.As(err)

	errorObj := map[string]any{
		"code":    fErr.Code,
		"message": fErr.Message,
		"status":  fErr.Status,
	}
	if fErr.Status >= 500 {
		h.logger.Error("tool call failed", zap.String("code", string(fErr.Code)), zap.Error(err))
	}
	// Internal text may carry paths or driver errors
	if fErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if fErr.Details != nil {
		errorObj["details"] = fErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

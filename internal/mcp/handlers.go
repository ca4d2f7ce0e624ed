package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	deps ops.Deps
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps ops.Deps) *Handlers {
	return &Handlers{deps: deps}
}

// AddRequest represents the arguments for archive_add.
type AddRequest struct {
	URL string `json:"url"`
}

// RemoveRequest represents the arguments for archive_remove.
type RemoveRequest struct {
	URL string `json:"url"`
}

// ListRequest represents the arguments for archive_list.
type ListRequest struct {
	Handle string `json:"handle,omitempty"`
}

// OutputRequest represents the arguments for archive_output.
type OutputRequest struct {
	Root  string `json:"root,omitempty"`
	Title string `json:"title,omitempty"`
}

// HandleAdd handles the archive_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(ctx, h.deps, ops.AddInput{URL: input.URL})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRemove handles the archive_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Remove(ctx, h.deps, ops.RemoveInput{URL: input.URL})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the archive_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.deps.Store, ops.ListInput{Handle: input.Handle})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// emptyOutput is returned by archive_output when there is nothing to render.
type emptyOutput struct {
	Posts   int    `json:"posts"`
	Message string `json:"message"`
}

// HandleOutput handles the archive_output tool call. An empty archive is
// reported as a successful result, not a tool error.
func (h *Handlers) HandleOutput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OutputRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Output(ctx, h.deps, ops.OutputInput{Root: input.Root, Title: input.Title})
	if errors.Is(err, errors.ErrEmptyArchive) {
		var rErr *errors.RoostError
		stderrors.As(err, &rErr)
		return successResult(emptyOutput{Posts: 0, Message: rErr.Message})
	}
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed to avoid leaking paths or SQL errors.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var rErr *errors.RoostError
	if stderrors.As(err, &rErr) && rErr.Code != errors.ErrInternal {
		errorObj := map[string]any{
			"code":    rErr.Code,
			"message": rErr.Message,
		}
		if rErr.Details != nil {
			errorObj["details"] = rErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

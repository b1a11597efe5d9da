package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/edusuite/db-bridge/internal/logger"
	"github.com/edusuite/db-bridge/internal/session"
	"github.com/edusuite/db-bridge/pkg/jsonrpc"
	"github.com/edusuite/db-bridge/pkg/tools"
)

const (
	// ProtocolVersion is the protocol version this server speaks.
	ProtocolVersion = "2024-11-05"

	serverName    = "school-db-bridge"
	serverVersion = "1.0.0"
)

// MethodHandler is a function that handles a method
type MethodHandler func(ctx context.Context, req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error)

// Handler routes JSON-RPC requests. It is stateless across requests: each
// one runs the same AwaitingRequest -> Parsed -> Routed -> Completed pipeline
// independently.
type Handler struct {
	toolRegistry   *tools.Registry
	methodHandlers map[string]MethodHandler
}

// NewHandler creates a new Handler
func NewHandler(toolRegistry *tools.Registry) *Handler {
	h := &Handler{
		toolRegistry: toolRegistry,
	}

	h.methodHandlers = map[string]MethodHandler{
		"initialize":                h.Initialize,
		"tools/list":                h.ListTools,
		"tools/call":                h.CallTool,
		"ping":                      h.Ping,
		"notifications/initialized": h.HandleInitialized,
	}

	return h
}

// HandleRequest runs one parsed request through validation, routing and
// execution, and returns the single response object to emit. Notifications
// return nil: a request without an id never receives a response.
func (h *Handler) HandleRequest(ctx context.Context, req *jsonrpc.Request, sess *session.Session) *jsonrpc.Response {
	if req.JSONRPC != jsonrpc.Version {
		logger.Warn("Rejecting request with protocol tag %q", req.JSONRPC)
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewResponse(req, nil, jsonrpc.InvalidRequestError(
			fmt.Sprintf("expected jsonrpc %q", jsonrpc.Version)))
	}

	handler, ok := h.methodHandlers[req.Method]
	if !ok {
		logger.Warn("Method not found: %s", req.Method)
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewResponse(req, nil, &jsonrpc.Error{
			Code:    jsonrpc.MethodNotFoundCode,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		})
	}

	result, rpcErr := handler(ctx, req, sess)
	if req.IsNotification() {
		return nil
	}

	resp := jsonrpc.NewResponse(req, result, rpcErr)

	respJSON, _ := json.Marshal(resp)
	reqJSON, _ := json.Marshal(req)
	logger.RequestResponseLog(req.Method, sess.ID, string(reqJSON), string(respJSON))

	return resp
}

// Initialize handles the initialize request
func (h *Handler) Initialize(ctx context.Context, req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Handling initialize request")

	var params struct {
		ProtocolVersion string                 `json:"protocolVersion"`
		Capabilities    map[string]interface{} `json:"capabilities"`
		ClientInfo      map[string]interface{} `json:"clientInfo"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			logger.Error("Failed to unmarshal initialize params: %v", err)
			return nil, jsonrpc.InvalidParamsError("malformed initialize params")
		}
	}

	if params.ClientInfo != nil {
		logger.Info("Client connected: %v v%v", params.ClientInfo["name"], params.ClientInfo["version"])
	}
	if params.Capabilities != nil {
		sess.SetCapabilities(params.Capabilities)
	}

	sess.SetInitialized(true)

	return map[string]interface{}{
		"protocolVersion": ProtocolVersion,
		"serverInfo": map[string]interface{}{
			"name":    serverName,
			"version": serverVersion,
		},
		"capabilities": map[string]interface{}{
			"tools": map[string]interface{}{},
		},
	}, nil
}

// ListTools handles the tools/list request
func (h *Handler) ListTools(ctx context.Context, req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Handling tools/list request")

	allTools := h.toolRegistry.GetAllTools()

	toolsData := make([]map[string]interface{}, 0, len(allTools))
	for _, tool := range allTools {
		toolsData = append(toolsData, map[string]interface{}{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": tool.InputSchema,
		})
	}

	logger.Info("Returning %d tools: %s", len(toolsData), h.ListAvailableTools())

	return map[string]interface{}{
		"tools": toolsData,
	}, nil
}

// CallTool handles the tools/call request
func (h *Handler) CallTool(ctx context.Context, req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Handling tools/call request")

	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			logger.Error("Failed to unmarshal tools/call params: %v", err)
			return nil, jsonrpc.InvalidParamsError("malformed tools/call params")
		}
	}

	if params.Name == "" {
		return nil, &jsonrpc.Error{
			Code:    jsonrpc.InternalErrorCode,
			Message: "Missing tool name",
		}
	}

	logger.Info("Executing tool: %s", params.Name)

	result, err := h.toolRegistry.ExecuteTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if errors.Is(err, tools.ErrToolNotFound) {
			logger.Error("Tool not found: %s (available: %s)", params.Name, h.ListAvailableTools())
			return nil, &jsonrpc.Error{
				Code:    jsonrpc.InternalErrorCode,
				Message: fmt.Sprintf("Unknown tool: %s", params.Name),
			}
		}
		logger.Error("Tool %s failed: %v", params.Name, err)
		return nil, &jsonrpc.Error{
			Code:    jsonrpc.InternalErrorCode,
			Message: err.Error(),
		}
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		logger.Error("Failed to marshal tool result: %v", marshalErr)
		return nil, jsonrpc.InternalError("failed to encode tool result")
	}

	return map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": string(payload),
			},
		},
	}, nil
}

// Ping handles the ping request
func (h *Handler) Ping(ctx context.Context, req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	return map[string]interface{}{}, nil
}

// HandleInitialized handles the notifications/initialized notification
func (h *Handler) HandleInitialized(ctx context.Context, req *jsonrpc.Request, sess *session.Session) (interface{}, *jsonrpc.Error) {
	logger.Debug("Client finished initialization on session %s", sess.ID)
	return map[string]interface{}{}, nil
}

// ListAvailableTools returns a list of available tool names as a comma-separated string
func (h *Handler) ListAvailableTools() string {
	tools := h.toolRegistry.GetAllTools()
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, ", ")
}

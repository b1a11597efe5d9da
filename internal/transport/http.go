package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/edusuite/db-bridge/internal/logger"
	"github.com/edusuite/db-bridge/internal/mcp"
	"github.com/edusuite/db-bridge/internal/session"
	"github.com/edusuite/db-bridge/pkg/jsonrpc"
)

// HTTPTransport serves the request/response-per-call protocol: one JSON-RPC
// request per POST body, one response per reply. Notifications are accepted
// with an empty 202.
type HTTPTransport struct {
	sessionManager *session.Manager
	handler        *mcp.Handler
}

// NewHTTPTransport creates an HTTP transport.
func NewHTTPTransport(sessionManager *session.Manager, handler *mcp.Handler) *HTTPTransport {
	return &HTTPTransport{
		sessionManager: sessionManager,
		handler:        handler,
	}
}

// HandleRPC handles a single JSON-RPC exchange.
func (t *HTTPTransport) HandleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body: %v", err)
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer func() {
		_ = r.Body.Close()
	}()

	sess := t.sessionManager.CreateSession()
	defer t.sessionManager.RemoveSession(sess.ID)

	logger.RequestLog(r.Method, r.URL.String(), sess.ID, string(body))

	var req jsonrpc.Request
	if err := json.Unmarshal(body, &req); err != nil {
		logger.Error("Failed to parse JSON-RPC request: %v", err)
		writeResponse(w, &jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      nil,
			Error:   jsonrpc.ParseError(err.Error()),
		})
		return
	}

	resp := t.handler.HandleRequest(r.Context(), &req, sess)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	writeResponse(w, resp)
}

func writeResponse(w http.ResponseWriter, resp *jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to write response: %v", err)
	}
}

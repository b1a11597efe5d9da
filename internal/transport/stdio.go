package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/edusuite/db-bridge/internal/logger"
	"github.com/edusuite/db-bridge/internal/mcp"
	"github.com/edusuite/db-bridge/internal/session"
	"github.com/edusuite/db-bridge/pkg/jsonrpc"
)

// StdioTransport serves the line-oriented protocol: one JSON object per line
// in, one per line out. Pipelined requests are processed independently and
// responses are emitted in completion order.
type StdioTransport struct {
	sessionManager *session.Manager
	handler        *mcp.Handler
	in             io.Reader
	out            io.Writer
	wg             sync.WaitGroup
}

// NewStdioTransport creates a stdio transport over os.Stdin/os.Stdout.
func NewStdioTransport(sessionManager *session.Manager, handler *mcp.Handler) *StdioTransport {
	return NewStdioTransportWithIO(sessionManager, handler, os.Stdin, os.Stdout)
}

// NewStdioTransportWithIO creates a stdio transport over arbitrary streams.
func NewStdioTransportWithIO(sessionManager *session.Manager, handler *mcp.Handler, in io.Reader, out io.Writer) *StdioTransport {
	return &StdioTransport{
		sessionManager: sessionManager,
		handler:        handler,
		in:             in,
		out:            out,
	}
}

// Run reads requests until EOF, then waits for in-flight requests to finish.
func (t *StdioTransport) Run(ctx context.Context) error {
	sess := t.sessionManager.CreateSession()
	defer t.sessionManager.RemoveSession(sess.ID)
	logger.Info("Created new STDIO session %s", sess.ID)

	sess.SetWriter(func(data []byte) error {
		if _, err := t.out.Write(append(data, '\n')); err != nil {
			return err
		}
		if f, ok := t.out.(*os.File); ok {
			return f.Sync()
		}
		return nil
	})

	reader := bufio.NewReader(t.in)
	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			logger.Error("Error reading from stdin: %v", err)
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			t.dispatchLine(ctx, sess, trimmed)
		}

		if err == io.EOF {
			logger.Info("Received EOF on stdin, shutting down")
			break
		}
	}

	t.wg.Wait()
	return nil
}

// dispatchLine parses one line and hands it off for concurrent processing.
// Parse failures are answered inline with a null id, since the request id is
// unknown at that point.
func (t *StdioTransport) dispatchLine(ctx context.Context, sess *session.Session, line string) {
	var req jsonrpc.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		logger.Error("Failed to parse JSON-RPC request: %v", err)
		t.send(sess, &jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      nil,
			Error:   jsonrpc.ParseError(err.Error()),
		})
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if resp := t.handler.HandleRequest(ctx, &req, sess); resp != nil {
			t.send(sess, resp)
		}
	}()
}

func (t *StdioTransport) send(sess *session.Session, resp *jsonrpc.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		return
	}

	logger.Debug("Sending response: %s", string(data))

	if err := sess.Send(data); err != nil {
		logger.Error("Failed to send response: %v", err)
	}
}

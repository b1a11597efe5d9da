package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotification(t *testing.T) {
	withID := &Request{JSONRPC: Version, ID: float64(1), Method: "ping"}
	assert.False(t, withID.IsNotification())

	noID := &Request{JSONRPC: Version, Method: "notifications/initialized"}
	assert.True(t, noID.IsNotification())
}

func TestNewResponseResult(t *testing.T) {
	req := &Request{JSONRPC: Version, ID: "abc", Method: "ping"}

	resp := NewResponse(req, map[string]string{"ok": "yes"}, nil)
	assert.Equal(t, Version, resp.JSONRPC)
	assert.Equal(t, "abc", resp.ID)
	assert.NotNil(t, resp.Result)
	assert.Nil(t, resp.Error)
}

func TestNewResponseError(t *testing.T) {
	req := &Request{JSONRPC: Version, ID: float64(7), Method: "nope"}

	resp := NewResponse(req, nil, MethodNotFoundError("nope"))
	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, MethodNotFoundCode, resp.Error.Code)
}

func TestResponseMarshalExactlyOneOfResultError(t *testing.T) {
	req := &Request{JSONRPC: Version, ID: float64(1)}

	data, err := json.Marshal(NewResponse(req, "ok", nil))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
	assert.Contains(t, string(data), `"result"`)

	data, err = json.Marshal(NewResponse(req, nil, InternalError("boom")))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"result"`)
	assert.Contains(t, string(data), `"error"`)
}

func TestResponseMarshalNullID(t *testing.T) {
	// Parse errors respond with id null; the field must be present.
	resp := &Response{JSONRPC: Version, ID: nil, Error: ParseError("bad json")}

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"id":null`)
}

func TestRequestUnmarshalIDKinds(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc": "2.0", "id": 1, "method": "ping"}`), &req))
	assert.Equal(t, float64(1), req.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc": "2.0", "id": "s-1", "method": "ping"}`), &req))
	assert.Equal(t, "s-1", req.ID)
}

func TestErrorConstructors(t *testing.T) {
	cases := []struct {
		err  *Error
		code int
	}{
		{ParseError(nil), ParseErrorCode},
		{InvalidRequestError(nil), InvalidRequestCode},
		{MethodNotFoundError(nil), MethodNotFoundCode},
		{InvalidParamsError(nil), InvalidParamsCode},
		{InternalError(nil), InternalErrorCode},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.NotEmpty(t, tc.err.Message)
	}
}

func TestErrorString(t *testing.T) {
	err := NewError(InternalErrorCode, "boom", nil)
	assert.Equal(t, "JSON-RPC error -32603: boom", err.Error())
}

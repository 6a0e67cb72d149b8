// Package daemon implements the notesync daemon server and client.
//
// The daemon keeps one source tree's engine and state records in memory and
// serves JSON-RPC 2.0 requests over a Unix socket, one JSON value per
// message.
package daemon

import (
	"encoding/json"
	"fmt"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
)

// JSON-RPC 2.0 version string.
const JSONRPCVersion = "2.0"

// JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603

	// ErrCodeSyncFailed is returned when a sync or plan fails. The error
	// data carries the sync error code, e.g. "RENDER_FAILED".
	ErrCodeSyncFailed = -32000
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"` // nil for notifications
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// NewRequest creates a new JSON-RPC request.
func NewRequest(id int64, method string, params any) (*Request, error) {
	req := &Request{
		JSONRPC: JSONRPCVersion,
		ID:      &id,
		Method:  method,
	}

	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		req.Params = data
	}

	return req, nil
}

// NewResponse creates a successful JSON-RPC response.
func NewResponse(id int64, result any) (*Response, error) {
	resp := &Response{
		JSONRPC: JSONRPCVersion,
		ID:      &id,
	}

	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		resp.Result = data
	} else {
		// A successful response always carries a result, even null.
		resp.Result = json.RawMessage("null")
	}

	return resp, nil
}

// NewErrorResponse creates an error JSON-RPC response.
func NewErrorResponse(id *int64, code int, message string, data any) *Response {
	resp := &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error: &RPCError{
			Code:    code,
			Message: message,
		},
	}

	if data != nil {
		if d, err := json.Marshal(data); err == nil {
			resp.Error.Data = d
		}
	}

	return resp
}

// RPC methods.
const (
	MethodPing        = "ping"
	MethodShutdown    = "shutdown"
	MethodWatchStatus = "watch/status"
	MethodSyncRun     = "sync/run"
	MethodStatusGet   = "status/get"
)

// PingResult is the response to a ping request.
type PingResult struct {
	Pong      bool   `json:"pong"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	StartTime string `json:"start_time"`
	Source    string `json:"source,omitempty"`
	Output    string `json:"output,omitempty"`
	Clients   int    `json:"clients"`
}

// ShutdownResult is the response to a shutdown request.
type ShutdownResult struct {
	Message string `json:"message"`
}

// WatchStatusResult is the response to watch/status.
type WatchStatusResult struct {
	Watching  bool   `json:"watching"`
	Source    string `json:"source,omitempty"`
	Output    string `json:"output,omitempty"`
	Documents int    `json:"documents,omitempty"`
	SyncCount int    `json:"sync_count,omitempty"`
	LastSync  string `json:"last_sync,omitempty"`
}

// SyncRunParams are the parameters for sync/run.
type SyncRunParams struct {
	// Full ignores recorded state and rebuilds everything.
	Full bool `json:"full,omitempty"`
}

// SyncRunResult is the response to sync/run.
type SyncRunResult struct {
	Status string              `json:"status"` // "synced" or "up_to_date"
	Report *incremental.Report `json:"report"`
}

// StatusGetResult is the response to status/get.
type StatusGetResult struct {
	Stale     bool     `json:"stale"`
	StaleDirs []string `json:"stale_dirs,omitempty"`
	Documents []string `json:"documents,omitempty"`
	Dirs      int      `json:"dirs"`
}

package daemon

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"syscall"
	"time"
)

// dialTimeout bounds connecting to the daemon socket.
const dialTimeout = 5 * time.Second

// ErrNotConnected is returned when trying to use a disconnected client.
var ErrNotConnected = errors.New("not connected to daemon")

// ErrDaemonNotRunning is returned when nothing listens on the socket.
var ErrDaemonNotRunning = errors.New("daemon not running")

// Client is a client for connecting to the daemon. Calls are serialized.
type Client struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder

	mu     sync.Mutex // held for a whole call
	lastID int64

	closeOnce sync.Once
}

// Connect connects to the daemon at the given socket path.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		if isConnectionRefused(err) {
			return nil, ErrDaemonNotRunning
		}
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	return &Client{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(bufio.NewReader(conn)),
	}, nil
}

// isConnectionRefused reports whether err means no daemon is listening:
// the socket file is missing or nothing accepts on it.
func isConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, os.ErrNotExist)
}

// Close closes the connection to the daemon.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

// call sends a request and waits for its response.
func (c *Client) call(method string, params any, result any) error {
	if c.conn == nil {
		return ErrNotConnected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastID++
	req, err := NewRequest(c.lastID, method, params)
	if err != nil {
		return err
	}
	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	var resp Response
	if err := c.decoder.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNotConnected
		}
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if resp.ID == nil || *resp.ID != c.lastID {
		return fmt.Errorf("response does not match request %d", c.lastID)
	}
	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	return nil
}

// Ping sends a ping request to the daemon.
func (c *Client) Ping() (*PingResult, error) {
	var result PingResult
	if err := c.call(MethodPing, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() (*ShutdownResult, error) {
	var result ShutdownResult
	if err := c.call(MethodShutdown, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// WatchStatus returns the current watch status.
func (c *Client) WatchStatus() (*WatchStatusResult, error) {
	var result WatchStatusResult
	if err := c.call(MethodWatchStatus, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SyncRun runs a sync in the daemon and returns its report.
func (c *Client) SyncRun(params *SyncRunParams) (*SyncRunResult, error) {
	var result SyncRunResult
	if err := c.call(MethodSyncRun, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// StatusGet returns which directories a sync would visit.
func (c *Client) StatusGet() (*StatusGetResult, error) {
	var result StatusGetResult
	if err := c.call(MethodStatusGet, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

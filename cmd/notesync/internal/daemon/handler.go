package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/albertocavalcante/notesync/cmd/notesync/internal/incremental"
	"github.com/albertocavalcante/notesync/cmd/notesync/internal/watch"
	"github.com/albertocavalcante/notesync/internal/log"
	"github.com/albertocavalcante/notesync/pkg/ignore"
)

// shutdownDelay gives the shutdown response time to reach the client.
const shutdownDelay = 100 * time.Millisecond

// errNoEngine is returned by sync methods on a handler built without one.
var errNoEngine = errors.New("daemon has no source tree configured")

// Engine is the part of *incremental.Engine the daemon drives.
type Engine interface {
	Run(ctx context.Context) (*incremental.Report, error)
	Plan(ctx context.Context) (*incremental.Report, error)
}

// HandlerConfig configures the RPC handler.
type HandlerConfig struct {
	Source string
	Output string
	Ignore *ignore.Matcher

	// Debounce is used when StartWatch is given none.
	Debounce time.Duration

	// NewEngine builds an engine for the configured tree. full requests
	// one that ignores recorded state. The non-full engine is built once
	// and shared by the watcher, sync/run and status/get.
	NewEngine func(full bool) (Engine, error)

	// WatchLog receives the watcher's progress output. Nil discards it.
	WatchLog io.Writer
}

// Handler handles RPC method calls.
type Handler struct {
	server *Server
	cfg    HandlerConfig

	engineMu sync.Mutex
	engine   Engine

	// syncMu serializes runs and plans against the output tree.
	syncMu sync.Mutex

	watchMu     sync.RWMutex
	watcher     *watch.Watcher
	watchCancel context.CancelFunc
	watching    bool
	lastSync    time.Time
	lastReport  *incremental.Report
	syncCount   int
}

// NewHandler creates a new RPC handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{cfg: cfg}
}

// HandleRequest dispatches a request to the appropriate handler. It
// returns nil for notifications.
func (h *Handler) HandleRequest(req *Request) *Response {
	log.Component("daemon").Debug("handling request", "method", req.Method, "id", req.ID)

	if req.ID == nil {
		return nil
	}

	switch req.Method {
	case MethodPing:
		return h.handlePing(req)
	case MethodShutdown:
		return h.handleShutdown(req)
	case MethodWatchStatus:
		return respond(req, h.GetWatchStatus())
	case MethodSyncRun:
		return h.handleSyncRun(req)
	case MethodStatusGet:
		return h.handleStatusGet(req)
	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}
}

// respond wraps result in a response, or an internal error if it cannot be
// encoded.
func respond(req *Request, result any) *Response {
	resp, err := NewResponse(*req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "Failed to create response", nil)
	}
	return resp
}

// syncError maps a sync failure to an error response carrying its code.
func syncError(req *Request, err error) *Response {
	if errors.Is(err, errNoEngine) {
		return NewErrorResponse(req.ID, ErrCodeInternalError, err.Error(), nil)
	}
	var data any
	if code := incremental.CodeOf(err); code != "" {
		data = string(code)
	}
	return NewErrorResponse(req.ID, ErrCodeSyncFailed, err.Error(), data)
}

func (h *Handler) handlePing(req *Request) *Response {
	result := PingResult{
		Pong:   true,
		Source: h.cfg.Source,
		Output: h.cfg.Output,
	}
	if h.server != nil {
		result.Version = h.server.version
		result.Uptime = h.server.Uptime().String()
		result.StartTime = h.server.startTime.Format(time.RFC3339)
		result.Clients = h.server.ClientCount()
	}
	return respond(req, result)
}

func (h *Handler) handleShutdown(req *Request) *Response {
	resp := respond(req, ShutdownResult{Message: "daemon shutting down"})

	if h.server != nil {
		go func() {
			time.Sleep(shutdownDelay)
			h.server.RequestShutdown()
		}()
	}
	return resp
}

// StartWatch starts watching the configured source tree in the background.
// A zero debounce uses the configured one. Starting a second watcher is a
// no-op.
func (h *Handler) StartWatch(debounce time.Duration) error {
	if h.cfg.NewEngine == nil {
		return errNoEngine
	}

	h.watchMu.Lock()
	defer h.watchMu.Unlock()

	if h.watching {
		return nil
	}

	if debounce <= 0 {
		debounce = h.cfg.Debounce
	}
	logWriter := h.cfg.WatchLog
	if logWriter == nil {
		logWriter = io.Discard
	}

	w, err := watch.New(watch.Config{
		Source:   h.cfg.Source,
		Output:   h.cfg.Output,
		Ignore:   h.cfg.Ignore,
		Debounce: debounce,
		Syncer:   syncFunc(h.sync),
		Log: watch.LoggerConfig{
			Writer:  logWriter,
			NoColor: true,
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.watcher = w
	h.watchCancel = cancel
	h.watching = true

	go h.runWatcher(ctx, w)
	return nil
}

// runWatcher runs w until it stops and then clears the watch state, unless
// a newer watcher has replaced it.
func (h *Handler) runWatcher(ctx context.Context, w *watch.Watcher) {
	logger := log.Component("daemon")

	if err := w.Run(ctx); err != nil {
		logger.Warn("watcher stopped with error", "error", err)
	}

	h.watchMu.Lock()
	if h.watcher == w {
		h.clearWatchLocked()
	}
	h.watchMu.Unlock()

	_ = w.Close()
	logger.Info("watcher stopped")
}

// clearWatchLocked cancels the running watcher. The caller holds watchMu.
func (h *Handler) clearWatchLocked() {
	if h.watchCancel != nil {
		h.watchCancel()
	}
	h.watching = false
	h.watcher = nil
	h.watchCancel = nil
}

// GetWatchStatus returns the current watch status.
func (h *Handler) GetWatchStatus() *WatchStatusResult {
	h.watchMu.RLock()
	defer h.watchMu.RUnlock()

	result := &WatchStatusResult{
		Watching:  h.watching,
		SyncCount: h.syncCount,
	}
	if h.watching {
		result.Source = h.cfg.Source
		result.Output = h.cfg.Output
	}
	if h.lastReport != nil {
		result.Documents = h.lastReport.Documents
	}
	if !h.lastSync.IsZero() {
		result.LastSync = h.lastSync.Format(time.RFC3339)
	}
	return result
}

func (h *Handler) handleSyncRun(req *Request) *Response {
	var params SyncRunParams
	if req.Params != nil {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return NewErrorResponse(req.ID, ErrCodeInvalidParams, "Invalid params", err.Error())
		}
	}

	engine, err := h.engineFor(params.Full)
	if err != nil {
		return syncError(req, err)
	}
	report, err := h.runWith(context.Background(), engine)
	if err != nil {
		return syncError(req, err)
	}

	status := "synced"
	if report.IsEmpty() {
		status = "up_to_date"
	}
	return respond(req, SyncRunResult{Status: status, Report: report})
}

func (h *Handler) handleStatusGet(req *Request) *Response {
	engine, err := h.engineFor(false)
	if err != nil {
		return syncError(req, err)
	}

	h.syncMu.Lock()
	report, err := engine.Plan(context.Background())
	h.syncMu.Unlock()
	if err != nil {
		return syncError(req, err)
	}

	return respond(req, StatusGetResult{
		Stale:     !report.IsEmpty(),
		StaleDirs: report.Visited,
		Documents: report.Rendered,
		Dirs:      report.Dirs,
	})
}

// engineFor returns the shared engine, or a fresh full-rebuild engine.
func (h *Handler) engineFor(full bool) (Engine, error) {
	if h.cfg.NewEngine == nil {
		return nil, errNoEngine
	}
	if full {
		return h.cfg.NewEngine(true)
	}

	h.engineMu.Lock()
	defer h.engineMu.Unlock()
	if h.engine == nil {
		engine, err := h.cfg.NewEngine(false)
		if err != nil {
			return nil, err
		}
		h.engine = engine
	}
	return h.engine, nil
}

// sync runs the shared engine. The watcher calls it after each batch of
// changes.
func (h *Handler) sync(ctx context.Context) (*incremental.Report, error) {
	engine, err := h.engineFor(false)
	if err != nil {
		return nil, err
	}
	return h.runWith(ctx, engine)
}

// runWith runs engine and records the result for watch/status.
func (h *Handler) runWith(ctx context.Context, engine Engine) (*incremental.Report, error) {
	h.syncMu.Lock()
	report, err := engine.Run(ctx)
	h.syncMu.Unlock()
	if err != nil {
		return nil, err
	}

	h.watchMu.Lock()
	h.lastSync = time.Now()
	h.lastReport = report
	h.syncCount++
	h.watchMu.Unlock()
	return report, nil
}

// Stop stops any running watcher.
func (h *Handler) Stop() {
	h.watchMu.Lock()
	defer h.watchMu.Unlock()
	h.clearWatchLocked()
}

// syncFunc adapts a function to watch.Syncer.
type syncFunc func(ctx context.Context) (*incremental.Report, error)

func (f syncFunc) Run(ctx context.Context) (*incremental.Report, error) { return f(ctx) }

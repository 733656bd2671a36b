// Package server exposes the comparison engine over NDJSON JSON-RPC 2.0 on
// stdio. One connection is one session; requests are dispatched sequentially
// in arrival order so response ordering matches request ordering.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mcp-eval/engine/pkg/types"
)

// Handler is the function signature for JSON-RPC method handlers.
type Handler func(session *Session, params json.RawMessage) (any, *types.RPCError)

// Server reads NDJSON requests from an io.Reader and writes NDJSON responses
// to an io.Writer.
type Server struct {
	reader   *bufio.Scanner
	writer   *bufio.Writer
	mu       sync.Mutex // protects writer
	session  *Session
	handlers map[string]Handler
	logger   *slog.Logger
	limiter  *rate.Limiter
}

// New creates a Server reading from in and writing to out.
func New(in io.Reader, out io.Writer, logger *slog.Logger) *Server {
	scanner := bufio.NewScanner(in)
	// 10 MB buffer for large execution logs.
	const maxScanBuf = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, maxScanBuf), maxScanBuf)

	return &Server{
		reader:   scanner,
		writer:   bufio.NewWriter(out),
		session:  NewSession(),
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// SetRateLimit caps request dispatch at rps requests per second with a burst
// of the same size. rps <= 0 disables limiting.
func (s *Server) SetRateLimit(rps float64) {
	if rps <= 0 {
		s.limiter = nil
		return
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// RegisterHandler registers a handler for the given JSON-RPC method name.
func (s *Server) RegisterHandler(method string, h Handler) {
	s.handlers[method] = h
}

// Run reads NDJSON lines from the reader, dispatches to handlers, and writes
// responses until the input is closed, shutdown is requested, or the context
// is canceled.
func (s *Server) Run(ctx context.Context) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		for s.reader.Scan() {
			line := make([]byte, len(s.reader.Bytes()))
			copy(line, s.reader.Bytes())
			lines <- line
		}
		if err := s.reader.Err(); err != nil {
			scanErr <- err
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErr:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			s.writeResponse(s.dispatch(line))
			if s.session.State() == StateShuttingDown {
				return nil
			}
		}
	}
}

// dispatch parses a raw JSON line into a Request and routes it to the
// appropriate handler.
func (s *Server) dispatch(line []byte) *types.Response {
	var req types.Request
	if err := json.Unmarshal(line, &req); err != nil {
		s.logger.Error("parse error", "err", err)
		return types.NewErrorResponse(0, &types.RPCError{
			Code:    -32700,
			Message: "parse error",
			Data: &types.ErrorData{
				ErrorType: "PARSE_ERROR",
				Retryable: false,
				Detail:    err.Error(),
			},
		})
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		s.logger.Error("invalid request", "req", req)
		return types.NewErrorResponse(req.ID, &types.RPCError{
			Code:    -32600,
			Message: "invalid request",
			Data: &types.ErrorData{
				ErrorType: "INVALID_REQUEST",
				Retryable: false,
				Detail:    "jsonrpc must be \"2.0\" and method must be non-empty",
			},
		})
	}

	h, ok := s.handlers[req.Method]
	if !ok {
		s.logger.Warn("method not found", "method", req.Method)
		return types.NewErrorResponse(req.ID, &types.RPCError{
			Code:    -32601,
			Message: "method not found",
			Data: &types.ErrorData{
				ErrorType: "METHOD_NOT_FOUND",
				Retryable: false,
				Detail:    "unknown method: " + req.Method,
			},
		})
	}

	result, rpcErr := h(s.session, req.Params)
	if rpcErr != nil {
		return types.NewErrorResponse(req.ID, rpcErr)
	}

	resp, err := types.NewSuccessResponse(req.ID, result)
	if err != nil {
		s.logger.Error("failed to marshal result", "method", req.Method, "err", err)
		return types.NewErrorResponse(req.ID, types.NewRPCError(
			types.ErrEngineError,
			"failed to marshal result",
			types.ErrTypeEngineError,
			false,
			err.Error(),
		))
	}
	return resp
}

// writeResponse serializes a Response as compact JSON followed by a newline.
func (s *Server) writeResponse(resp *types.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to marshal response", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
	_ = s.writer.WriteByte('\n')
	_ = s.writer.Flush()
}

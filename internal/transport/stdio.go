package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JamesPrial/holon-descriptors/pkg/errors"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

// maxLineSize bounds a single request line; descriptors with many nested
// properties exceed bufio's default token size
const maxLineSize = 4 << 20

// StdioTransport reads one JSON-RPC request per line and writes one
// response per line
type StdioTransport struct {
	scanner *bufio.Scanner
	out     io.Writer
	outMu   sync.Mutex
	running atomic.Bool
	logger  *slog.Logger
}

// NewStdioTransport creates a stdio transport over in and out, usually
// os.Stdin and os.Stdout
func NewStdioTransport(in io.Reader, out io.Writer) *StdioTransport {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &StdioTransport{
		scanner: scanner,
		out:     out,
		logger:  logging.GetGlobalLogger("transport.stdio"),
	}
}

// Start begins listening for requests on the input
func (t *StdioTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.running.Store(true)

	t.logger.InfoContext(ctx, "StdIO transport starting",
		slog.String("transport", "stdio"),
	)

	for t.running.Load() && t.scanner.Scan() {
		select {
		case <-ctx.Done():
			t.logger.InfoContext(ctx, "StdIO transport context cancelled")
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(t.scanner.Text())
		if line == "" {
			continue
		}

		requestCtx := logging.NewRequestContext(ctx, "HandleStdIORequest")

		req, err := ParseRequest([]byte(line))
		if err != nil {
			t.logger.ErrorContext(requestCtx, "Failed to parse JSON-RPC request",
				slog.String("raw_input", line),
				slog.String("error", err.Error()),
			)

			parseErr := errors.Wrap(err, errors.ErrCodeTransportInvalidJSON, "Invalid JSON format")
			t.sendResponse(requestCtx, ToJSONRPCResponse(nil, parseErr))
			continue
		}

		t.logger.InfoContext(requestCtx, "Processing JSON-RPC request",
			slog.String("method", req.Method),
			slog.Any("id", req.ID),
		)

		startTime := time.Now()
		resp := handler(requestCtx, req)
		duration := time.Since(startTime)

		if resp.Error != nil {
			t.logger.WarnContext(requestCtx, "Request completed with error",
				slog.String("method", req.Method),
				slog.Any("id", req.ID),
				slog.Duration("duration", duration),
				slog.String("error", resp.Error.Message),
			)
		} else {
			t.logger.InfoContext(requestCtx, "Request completed successfully",
				slog.String("method", req.Method),
				slog.Any("id", req.ID),
				slog.Duration("duration", duration),
			)
		}

		t.sendResponse(requestCtx, resp)
	}

	if err := t.scanner.Err(); err != nil {
		t.logger.ErrorContext(ctx, "Error reading from stdin",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("error reading from stdin: %w", err)
	}

	t.logger.InfoContext(ctx, "StdIO transport stopped")
	return nil
}

// Stop makes Start return after the request in flight
func (t *StdioTransport) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "StdIO transport stopping")
	t.running.Store(false)
	return nil
}

// Name returns the name of the transport
func (t *StdioTransport) Name() string {
	return "stdio"
}

func (t *StdioTransport) writeLine(b []byte) error {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	_, err := fmt.Fprintln(t.out, string(b))
	return err
}

// sendResponse writes a response, falling back to a fixed error response
// when it cannot be serialized
func (t *StdioTransport) sendResponse(ctx context.Context, resp *JSONRPCResponse) {
	timer := logging.StartTimer(ctx, t.logger, "sendResponse")
	defer timer.End()

	respBytes, err := SerializeResponse(resp)
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to marshal response",
			slog.Any("response_id", resp.ID),
			slog.String("error", err.Error()),
		)

		marshalErr := errors.Wrap(err, errors.ErrCodeTransportMarshal, "Failed to serialize response")
		fallbackResp := ToJSONRPCResponse(resp.ID, marshalErr)
		respBytes, err = json.Marshal(fallbackResp)
		if err != nil {
			t.logger.ErrorContext(ctx, "Failed to marshal fallback response",
				slog.String("error", err.Error()),
			)
			respBytes, _ = json.Marshal(CreateFallbackErrorResponse(resp.ID, "Critical serialization error"))
		}
	}

	if err := t.writeLine(respBytes); err != nil {
		t.logger.ErrorContext(ctx, "Failed to write response",
			slog.Any("response_id", resp.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	t.logger.DebugContext(ctx, "Response sent",
		slog.Any("response_id", resp.ID),
		slog.Int("response_size", len(respBytes)),
	)
}

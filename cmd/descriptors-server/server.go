package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JamesPrial/holon-descriptors/internal/descriptors"
	"github.com/JamesPrial/holon-descriptors/internal/transport"
	"github.com/JamesPrial/holon-descriptors/pkg/errors"
	"github.com/JamesPrial/holon-descriptors/pkg/logging"
)

const toolPrefix = "descriptors__"

// Server answers tools/list and tools/call over a JSON-RPC transport
type Server struct {
	service *descriptors.Service
	logger  *slog.Logger
	errors  *errors.Logger
}

// NewServer creates a new descriptor server
func NewServer(service *descriptors.Service) *Server {
	logger := logging.GetGlobalLogger("server")
	return &Server{
		service: service,
		logger:  logger,
		errors:  errors.NewLoggerWithSlog(logger),
	}
}

// validateRequest returns an error response for a malformed request, nil otherwise
func validateRequest(req *transport.JSONRPCRequest) *transport.JSONRPCResponse {
	if req == nil {
		return transport.NewInvalidRequestError(nil, "Request cannot be null")
	}
	if req.JSONRPC != "2.0" {
		return transport.NewInvalidRequestError(req.ID, "Invalid or missing 'jsonrpc' field, must be '2.0'")
	}
	if req.Method == "" {
		return transport.NewInvalidRequestError(req.ID, "Missing or empty 'method' field")
	}
	// Notifications carry no id and get no answer, so they are refused
	if req.ID == nil {
		return transport.NewInvalidRequestError(nil, "Missing 'id' field - notifications are not supported")
	}
	if len(req.Method) > 100 || strings.ContainsAny(req.Method, " \t\n\x00") {
		return transport.NewInvalidRequestError(req.ID, fmt.Sprintf("Invalid method format: '%s'", req.Method))
	}
	return nil
}

// isValidToolName accepts ASCII letters, digits, underscores and hyphens
func isValidToolName(name string) bool {
	if name == "" || len(name) > 100 {
		return false
	}
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// HandleRequest processes a JSON-RPC request and returns a response
func (s *Server) HandleRequest(ctx context.Context, req *transport.JSONRPCRequest) *transport.JSONRPCResponse {
	if resp := validateRequest(req); resp != nil {
		return resp
	}

	switch req.Method {
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return transport.NewMethodNotFoundError(req.ID, req.Method)
	}
}

func (s *Server) handleToolsList(req *transport.JSONRPCRequest) *transport.JSONRPCResponse {
	return transport.NewResult(req.ID, map[string]interface{}{
		"tools": s.service.HandleListTools(),
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req *transport.JSONRPCRequest) (resp *transport.JSONRPCResponse) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Panic in tools/call", slog.Any("panic", r))
			resp = transport.CreateFallbackErrorResponse(req.ID, "Internal server error")
		}
	}()

	if req.Params == nil {
		return transport.NewInvalidParamsError(req.ID, "Missing 'params' field for tools/call method")
	}

	name, ok := req.Params["name"]
	if !ok {
		return transport.NewInvalidParamsError(req.ID, "Missing 'name' field in params")
	}
	toolName, ok := name.(string)
	if !ok {
		return transport.NewInvalidParamsError(req.ID, "Field 'name' must be a string")
	}
	if !isValidToolName(toolName) {
		return transport.NewInvalidParamsError(req.ID, "Field 'name' contains invalid characters or unknown tool")
	}
	if !strings.HasPrefix(toolName, toolPrefix) {
		return transport.ToJSONRPCResponse(req.ID,
			errors.Newf(errors.ErrCodeTransportUnknownTool, "unknown tool: %s", toolName))
	}

	arguments := make(map[string]interface{})
	if args, exists := req.Params["arguments"]; exists && args != nil {
		argsMap, ok := args.(map[string]interface{})
		if !ok {
			return transport.NewInvalidParamsError(req.ID, "Field 'arguments' must be an object")
		}
		arguments = argsMap
	}

	result, err := s.service.HandleCallTool(ctx, toolName, arguments)
	if err != nil {
		// Non-application errors leave as INTERNAL_ERROR with a safe message
		return transport.ToJSONRPCResponse(req.ID, s.errors.LogError(ctx, err, "tools/call "+toolName))
	}

	return transport.NewResult(req.ID, result)
}

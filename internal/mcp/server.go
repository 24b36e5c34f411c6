package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
)

// ResponseDecorator post-processes a tool's Response after dispatch but
// before it crosses the wire — the composition point for the state-sync
// decorator and the introspector's self-healing hook, both of which need
// to know which tool and action actually ran.
type ResponseDecorator func(toolName, action string, resp fusion.Response) fusion.Response

// Server implements the MCP protocol over stdio. Tool calls route through
// a fusion.Registry; prompts and resources route through a lighter
// ContentRegistry, since neither has a dispatch table to compile. Server
// itself implements fusion.NotificationSink so a registry can be wired
// directly to it: outbound notifications share the same stdout writer and
// mutex as request/response traffic, so the two streams never interleave.
type Server struct {
	tools      *fusion.Registry
	content    *ContentRegistry
	info       ServerInfo
	logger     *slog.Logger
	decorators []ResponseDecorator

	outMu sync.Mutex
	out   io.Writer
}

// NewServer creates an MCP server wired to tools and content.
func NewServer(tools *fusion.Registry, content *ContentRegistry, info ServerInfo, logger *slog.Logger) *Server {
	return &Server{
		tools:   tools,
		content: content,
		info:    info,
		logger:  logger,
		out:     os.Stdout,
	}
}

// AddDecorator appends a ResponseDecorator run after every tools/call
// dispatch, error responses included, in the order added.
func (s *Server) AddDecorator(d ResponseDecorator) {
	s.decorators = append(s.decorators, d)
}

// notification is a JSON-RPC 2.0 message with no id, per spec.md §6.
type notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

func (s *Server) emit(method string, params any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	enc := json.NewEncoder(s.out)
	if err := enc.Encode(notification{JSONRPC: "2.0", Method: method, Params: params}); err != nil {
		s.logger.Error("failed to write notification", "method", method, "error", err)
	}
}

// ToolsListChanged implements fusion.NotificationSink, emitting the
// debounced notifications/tools/list_changed message spec.md §6 names.
func (s *Server) ToolsListChanged() {
	s.emit("notifications/tools/list_changed", nil)
}

// PromptsListChanged emits notifications/prompts/list_changed, for content
// registries that mutate after startup (none do today, but the method
// keeps parity with spec.md §6's symmetric prompts surface).
func (s *Server) PromptsListChanged() {
	s.emit("notifications/prompts/list_changed", nil)
}

// ResourceUpdated implements fusion.NotificationSink, emitting
// notifications/resources/updated for one invalidated URI.
func (s *Server) ResourceUpdated(uri string) {
	s.emit("notifications/resources/updated", map[string]string{"uri": uri})
}

// Run reads JSON-RPC requests from stdin and writes responses to stdout.
// It blocks until stdin is closed or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	// MCP messages can be large (e.g. lockfile contents)
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)

	s.logger.Info("fusion server started", "name", s.info.Name, "version", s.info.Version)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.handleMessage(ctx, line)
		if resp != nil {
			s.outMu.Lock()
			err := json.NewEncoder(s.out).Encode(resp)
			s.outMu.Unlock()
			if err != nil {
				s.logger.Error("failed to write response", "error", err)
				return fmt.Errorf("writing response: %w", err)
			}
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("reading stdin: %w", err)
	}

	s.logger.Info("fusion server stopped (stdin closed)")
	return nil
}

// handleMessage parses a JSON-RPC request and dispatches to the appropriate handler.
func (s *Server) handleMessage(ctx context.Context, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("failed to parse request", "error", err)
		return &Response{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    ErrCodeParse,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	// Notifications (no ID) don't get a response
	if req.ID == nil && req.Method == "notifications/initialized" {
		s.logger.Info("client initialized")
		return nil
	}
	if req.ID == nil {
		s.logger.Debug("received notification", "method", req.Method)
		return nil
	}

	s.logger.Debug("handling request", "method", req.Method, "id", string(req.ID))

	result, rpcErr := s.dispatch(ctx, &req)
	resp := &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

// dispatch routes a request to the appropriate handler method.
func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req.Params)
	case "tools/list":
		return s.handleToolsList()
	case "tools/call":
		return s.handleToolsCall(ctx, req.Params)
	case "prompts/list":
		return s.handlePromptsList()
	case "prompts/get":
		return s.handlePromptsGet(req.Params)
	case "resources/list":
		return s.handleResourcesList()
	case "resources/read":
		return s.handleResourcesRead(req.Params)
	default:
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		}
	}
}

// handleInitialize responds to the MCP handshake.
func (s *Server) handleInitialize(params json.RawMessage) (any, *RPCError) {
	var initParams InitializeParams
	if params != nil {
		if err := json.Unmarshal(params, &initParams); err != nil {
			return nil, &RPCError{
				Code:    ErrCodeInvalidParams,
				Message: "Invalid initialize params",
				Data:    err.Error(),
			}
		}
	}

	s.logger.Info("client connecting",
		"client", initParams.ClientInfo.Name,
		"client_version", initParams.ClientInfo.Version,
		"protocol_version", initParams.ProtocolVersion,
	)

	caps := ServerCapability{
		Tools: &ToolsCapability{ListChanged: true},
	}
	if s.content.HasPrompts() {
		caps.Prompts = &PromptsCapability{ListChanged: true}
	}
	if s.content.HasResources() {
		caps.Resources = &ResourcesCapability{ListChanged: true}
	}

	return &InitializeResult{
		ProtocolVersion: "2025-03-26",
		Capabilities:    caps,
		ServerInfo:      s.info,
	}, nil
}

// handleToolsList returns every registered tool's public definition.
func (s *Server) handleToolsList() (any, *RPCError) {
	defs := s.tools.GetTools(fusion.Filter{})
	out := make([]ToolDefinition, 0, len(defs))
	for _, d := range defs {
		schema, err := json.Marshal(d.InputSchema)
		if err != nil {
			return nil, &RPCError{Code: ErrCodeInternal, Message: "failed to marshal input schema"}
		}
		out = append(out, ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: schema,
			Annotations: d.Annotations,
		})
	}
	return &ToolsListResult{Tools: out}, nil
}

// handleToolsCall dispatches a tool call through the fusion registry and
// runs the registered response decorators (state-sync, self-heal) before
// returning.
func (s *Server) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var callParams ToolsCallParams
	if err := json.Unmarshal(params, &callParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid tools/call params",
			Data:    err.Error(),
		}
	}

	s.logger.Info("calling tool", "tool", callParams.Name)

	resp := s.tools.RouteCall(ctx, callParams.Name, callParams.Arguments)
	action := peekAction(callParams.Arguments)
	for _, d := range s.decorators {
		resp = d(callParams.Name, action, resp)
	}

	return toToolsCallResult(resp), nil
}

func peekAction(raw json.RawMessage) string {
	var d struct {
		Action string `json:"action"`
	}
	_ = json.Unmarshal(raw, &d)
	return d.Action
}

func toToolsCallResult(resp fusion.Response) *ToolsCallResult {
	blocks := make([]ContentBlock, 0, len(resp.Content))
	for _, c := range resp.Content {
		block := ContentBlock{Type: c.Type, Text: c.Text}
		if c.Resource != nil {
			block.Resource = &ResourceContent{
				URI:      c.Resource.URI,
				MimeType: c.Resource.MIMEType,
				Text:     c.Resource.Text,
			}
		}
		blocks = append(blocks, block)
	}
	return &ToolsCallResult{Content: blocks, IsError: resp.IsError}
}

// handlePromptsList returns all registered prompts.
func (s *Server) handlePromptsList() (any, *RPCError) {
	return &PromptsListResult{
		Prompts: s.content.ListPrompts(),
	}, nil
}

// handlePromptsGet returns a specific prompt by name.
func (s *Server) handlePromptsGet(params json.RawMessage) (any, *RPCError) {
	var getParams PromptsGetParams
	if err := json.Unmarshal(params, &getParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid prompts/get params",
			Data:    err.Error(),
		}
	}

	prompt := s.content.GetPrompt(getParams.Name)
	if prompt == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("prompt not found: %s", getParams.Name),
		}
	}

	s.logger.Debug("getting prompt", "prompt", getParams.Name)

	result, err := prompt.Get(getParams.Arguments)
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("prompt error: %v", err),
		}
	}

	return result, nil
}

// handleResourcesList returns all registered resources.
func (s *Server) handleResourcesList() (any, *RPCError) {
	return &ResourcesListResult{
		Resources: s.content.ListResources(),
	}, nil
}

// handleResourcesRead returns the content of a specific resource.
func (s *Server) handleResourcesRead(params json.RawMessage) (any, *RPCError) {
	var readParams ResourcesReadParams
	if err := json.Unmarshal(params, &readParams); err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInvalidParams,
			Message: "Invalid resources/read params",
			Data:    err.Error(),
		}
	}

	resource := s.content.GetResource(readParams.URI)
	if resource == nil {
		return nil, &RPCError{
			Code:    ErrCodeMethodNotFound,
			Message: fmt.Sprintf("resource not found: %s", readParams.URI),
		}
	}

	s.logger.Debug("reading resource", "uri", readParams.URI)

	result, err := resource.Read()
	if err != nil {
		return nil, &RPCError{
			Code:    ErrCodeInternal,
			Message: fmt.Sprintf("resource read error: %v", err),
		}
	}

	return result, nil
}

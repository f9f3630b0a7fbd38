package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/imageio"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

// Name is reported to clients during the handshake.
const Name = "docscan-mcp"

// Server handles MCP protocol communication
type Server struct {
	engine     *scanner.Engine
	pipeline   *scanner.Pipeline
	controller *scanner.Controller
	loader     *imageio.Loader
	ocr        *ocr.Recognizer
	log        *logrus.Entry
	version    string

	// out is set while Run is active; status notifications go nowhere
	// before that.
	outMu sync.Mutex
	out   *json.Encoder
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Options wires a Server to its collaborators.
type Options struct {
	Engine   *scanner.Engine
	Pipeline *scanner.Pipeline
	Loader   *imageio.Loader
	OCR      *ocr.Recognizer
	Logger   *logrus.Entry
	Version  string
}

// New creates a new MCP server instance. Missing collaborators are replaced
// by defaults; the engine starts unsignalled.
func New(opts Options) (*Server, error) {
	log := opts.Logger
	if log == nil {
		silent := logrus.New()
		silent.SetOutput(io.Discard)
		log = logrus.NewEntry(silent)
	}
	s := &Server{
		engine:   opts.Engine,
		pipeline: opts.Pipeline,
		loader:   opts.Loader,
		ocr:      opts.OCR,
		log:      log.WithField("component", "server"),
		version:  opts.Version,
	}
	if s.engine == nil {
		s.engine = scanner.NewEngine()
	}
	if s.pipeline == nil {
		p, err := scanner.NewPipeline(scanner.DefaultOptions(), log)
		if err != nil {
			return nil, err
		}
		s.pipeline = p
	}
	if s.loader == nil {
		s.loader = imageio.NewLoader(imageio.DefaultPDFScale, 0)
	}
	if s.ocr == nil {
		s.ocr = ocr.NewRecognizer(ocr.DefaultLanguage, log)
	}
	if s.version == "" {
		s.version = "dev"
	}
	s.controller = scanner.NewController(s.engine, s.pipeline,
		scanner.WithLogger(log),
		scanner.WithStatusListener(s.publishStatus),
	)
	return s, nil
}

// Controller exposes the scan controller driven by the tools.
func (s *Server) Controller() *scanner.Controller {
	return s.controller
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve handles newline-delimited JSON-RPC requests from r until r is
// exhausted or ctx is cancelled, writing responses to w.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	lines.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)
	s.outMu.Lock()
	s.out = encoder
	s.outMu.Unlock()
	defer func() {
		s.outMu.Lock()
		s.out = nil
		s.outMu.Unlock()
	}()

	for lines.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := lines.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("Failed to parse request")
			s.send(s.errorResponse(nil, -32700, "Parse error", err.Error()))
			continue
		}

		if resp := s.handleRequest(ctx, &req); resp != nil {
			s.send(resp)
		}
	}

	if err := lines.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}

func (s *Server) send(v interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if s.out == nil {
		return
	}
	if err := s.out.Encode(v); err != nil {
		s.log.WithError(err).Warn("Failed to encode message")
	}
}

// publishStatus forwards controller status changes to the client as log
// message notifications.
func (s *Server) publishStatus(st scanner.Status) {
	level := "info"
	if st.State == scanner.Error {
		level = "error"
	}
	s.send(&MCPNotification{
		JSONRPC: "2.0",
		Method:  "notifications/message",
		Params: map[string]interface{}{
			"level":  level,
			"logger": Name,
			"data":   st,
		},
	})
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("Request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": s.version,
			},
		},
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/docscan-mcp/internal/imageio"
	"github.com/ironsheep/docscan-mcp/internal/ocr"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "scan_load", "scan_process").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.WithField("tool", params.Name).WithError(err).Info("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Controller State
	case "scan_status":
		return s.handleScanStatus()
	case "scan_load":
		return s.handleScanLoad(args)
	case "scan_process":
		return s.handleScanProcess(ctx)
	case "scan_reset":
		return s.handleScanReset()

	// Output
	case "scan_export":
		return s.handleScanExport(args)
	case "scan_ocr":
		return s.handleScanOCR(args)

	// Convenience
	case "scan_run":
		return s.handleScanRun(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments; absent arguments leave v untouched.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Controller State Handlers ===

// StatusResult is returned by scan_status.
type StatusResult struct {
	scanner.Snapshot
	Report *scanner.Report `json:"report,omitempty"`
}

func (s *Server) handleScanStatus() (interface{}, error) {
	return &StatusResult{
		Snapshot: s.controller.Snapshot(),
		Report:   s.controller.Report(),
	}, nil
}

type scanLoadArgs struct {
	Path string `json:"path"`
	Page int    `json:"page"`
}

// LoadResult is returned by scan_load.
type LoadResult struct {
	Source imageio.Source `json:"source"`
	Status scanner.Status `json:"status"`
}

func (s *Server) handleScanLoad(args json.RawMessage) (interface{}, error) {
	var a scanLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.load(a.Path, a.Page)
}

func (s *Server) load(path string, page int) (*LoadResult, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	buf, src, err := s.loader.Load(path, page)
	if err != nil {
		return nil, err
	}
	if err := s.controller.Load(buf); err != nil {
		return nil, err
	}
	return &LoadResult{Source: src, Status: s.controller.Status()}, nil
}

// ProcessResult is returned by scan_process.
type ProcessResult struct {
	Status scanner.Status  `json:"status"`
	Report *scanner.Report `json:"report"`
}

func (s *Server) handleScanProcess(ctx context.Context) (interface{}, error) {
	return s.process(ctx)
}

func (s *Server) process(ctx context.Context) (*ProcessResult, error) {
	report, err := s.controller.Invoke(ctx)
	if err != nil {
		return nil, err
	}
	return &ProcessResult{Status: s.controller.Status(), Report: report}, nil
}

func (s *Server) handleScanReset() (interface{}, error) {
	return s.controller.Reset(), nil
}

// === Output Handlers ===

type scanExportArgs struct {
	Path    string `json:"path"`
	Quality int    `json:"quality"`
}

// ExportResult is returned by scan_export. Data is set only when no path was
// given.
type ExportResult struct {
	Path   string `json:"path,omitempty"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Data   string `json:"data,omitempty"`
}

func (s *Server) handleScanExport(args json.RawMessage) (interface{}, error) {
	var a scanExportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.export(a.Path, a.Quality)
}

func (s *Server) export(path string, quality int) (*ExportResult, error) {
	out, err := s.controller.Output()
	if err != nil {
		return nil, err
	}
	result := &ExportResult{Width: out.Width, Height: out.Height}

	if path == "" {
		data, err := imageio.Base64PNG(out)
		if err != nil {
			return nil, err
		}
		result.Format, result.Data = imageio.FormatPNG, data
		return result, nil
	}

	if err := imageio.Save(path, out, quality); err != nil {
		return nil, err
	}
	result.Path, result.Format = path, imageio.FormatFromPath(path)
	s.log.WithField("path", path).Info("Scan exported")
	return result, nil
}

type scanOCRArgs struct {
	Language      string      `json:"language"`
	Region        *ocr.Bounds `json:"region"`
	BlocksOnly    bool        `json:"blocks_only"`
	MinConfidence float64     `json:"min_confidence"`
}

// BlocksResult is returned by scan_ocr when only block layout is requested.
type BlocksResult struct {
	Blocks []ocr.Block `json:"blocks"`
	Count  int         `json:"count"`
}

func (s *Server) handleScanOCR(args json.RawMessage) (interface{}, error) {
	var a scanOCRArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MinConfidence < 0 || a.MinConfidence > 1 {
		return nil, fmt.Errorf("min_confidence must be between 0 and 1, got %g", a.MinConfidence)
	}
	out, err := s.controller.Output()
	if err != nil {
		return nil, err
	}

	switch {
	case a.BlocksOnly:
		blocks, err := s.ocr.DetectBlocks(out, a.MinConfidence)
		if err != nil {
			return nil, err
		}
		return BlocksResult{Blocks: blocks, Count: len(blocks)}, nil
	case a.Region != nil:
		return s.ocr.RecognizeRegion(out, *a.Region, a.Language)
	default:
		return s.ocr.Recognize(out, a.Language)
	}
}

// === Convenience Handlers ===

type scanRunArgs struct {
	Path   string `json:"path"`
	Page   int    `json:"page"`
	Output string `json:"output"`
}

// RunResult is returned by scan_run.
type RunResult struct {
	Source imageio.Source  `json:"source"`
	Report *scanner.Report `json:"report"`
	Export *ExportResult   `json:"export"`
}

func (s *Server) handleScanRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanRunArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	loaded, err := s.load(a.Path, a.Page)
	if err != nil {
		return nil, err
	}
	processed, err := s.process(ctx)
	if err != nil {
		return nil, err
	}
	exported, err := s.export(a.Output, 0)
	if err != nil {
		return nil, err
	}
	return &RunResult{Source: loaded.Source, Report: processed.Report, Export: exported}, nil
}

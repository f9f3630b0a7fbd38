package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Controller State
		{
			Name:        "scan_status",
			Description: "Report the scanner state and status text, whether the image engine is ready, the loaded source and processed output sizes, and the report of the last run.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "scan_load",
			Description: "Load an image (PNG, JPEG, GIF, BMP, TIFF, WebP) or a PDF page as the scan source. Replaces any previous source and discards earlier output.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image or PDF file",
					},
					"page": map[string]interface{}{
						"type":        "integer",
						"description": "PDF page to render (1-based). Default 1. Ignored for images.",
						"default":     1,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "scan_process",
			Description: "Run the scan pipeline on the loaded source: find the document outline, rectify its perspective, straighten the remaining skew and enhance contrast. Returns the status and a report of every stage.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "scan_reset",
			Description: "Discard the source and any output and return the scanner to ready.",
			InputSchema: emptySchema(),
		},

		// Output
		{
			Name:        "scan_export",
			Description: "Export the processed scan. With a path the image is written there (PNG or JPEG by extension); without one it is returned as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Optional absolute output path ending in .png, .jpg or .jpeg",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "JPEG quality 1-100. Default 92",
						"default":     92,
					},
				},
			},
		},
		{
			Name:        "scan_ocr",
			Description: "Extract text from the processed scan using Tesseract OCR. Returns the full text and word bounding boxes with confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code, e.g. 'eng' or 'eng+deu'. Defaults to the configured language",
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional area of the scan to read, in scan pixel coordinates. Word boxes are reported in scan coordinates",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
						"required": []string{"x1", "y1", "x2", "y2"},
					},
					"blocks_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Return text block bounding boxes instead of reading the text",
					},
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Minimum block confidence (0-1) when blocks_only is set. Default: 0",
					},
				},
			},
		},

		// Convenience
		{
			Name:        "scan_run",
			Description: "Load a file, process it and export the result in one call. Equivalent to scan_load, scan_process and scan_export.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image or PDF file",
					},
					"page": map[string]interface{}{
						"type":        "integer",
						"description": "PDF page to render (1-based). Default 1",
						"default":     1,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional output path; without it the scan is returned as base64 PNG",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

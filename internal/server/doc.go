// Package server implements the MCP (Model Context Protocol) server for
// document scanning.
//
// This package provides a JSON-RPC 2.0 server that drives a scanner.Controller:
// clients load a photo or PDF page, run the scan pipeline and fetch the
// rectified, deskewed and enhanced result.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Controller State:
//   - scan_status: State, status text, engine readiness, sizes, last report
//   - scan_load: Load an image or PDF page as the source
//   - scan_process: Run the pipeline
//   - scan_reset: Discard source and output
//
// Output:
//   - scan_export: Write the result to a file or return it as base64 PNG
//   - scan_ocr: Extract text from the result, optionally from one region, or list text blocks
//
// Convenience:
//   - scan_run: Load, process and export in one call
//
// # Status Notifications
//
// Every controller status change is sent as a notifications/message with the
// state and status text in data. Failed runs use level "error".
//
// # Engine Readiness
//
// The controller starts in awaiting_engine. WarmUp runs the pipeline once on
// a synthetic page and signals the engine; until then scan_process fails with
// "engine not ready" while scan_load is accepted and kept.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, e.g. "rectify stage: ..." for pipeline faults
package server

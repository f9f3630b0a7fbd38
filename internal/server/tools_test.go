package server

import (
	"context"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"scan_status",
		"scan_load",
		"scan_process",
		"scan_reset",
		"scan_export",
		"scan_ocr",
		"scan_run",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool name %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties missing or not an object")
			}

			// Every required field must be declared.
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, field := range required {
					if _, ok := props[field]; !ok {
						t.Errorf("Required field %s not in properties", field)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_AllDispatchable(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(context.Background(), tool.Name, nil)
		if err != nil && err.Error() == "unknown tool: "+tool.Name {
			t.Errorf("tool %s is listed but not dispatched", tool.Name)
		}
	}
}

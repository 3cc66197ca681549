package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"disc_process",
		"disc_process_batch",
		"disc_submit",
		"disc_analyze",
		"disc_dominant_color",
		"disc_overlay",
		"disc_identify_stamp",
		"catalog_search",
		"catalog_info",
		"bag_load",
		"bag_share_url",
		"bag_set_photo",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("expected %d tools, got %d", len(expectedTools), len(tools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
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
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required field must be declared
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, field := range required {
					if _, ok := props[field]; !ok {
						t.Errorf("required field %s not in properties", field)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_Dispatch(t *testing.T) {
	s := newTestServer(t)

	// Every listed tool must be routed; an unknown name yields "unknown tool".
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(t.Context(), tool.Name, []byte(`"not an object"`))
		if err != nil && err.Error() == "unknown tool: "+tool.Name {
			t.Errorf("tool %s is not dispatched", tool.Name)
		}
	}
}

package server

import "github.com/ironsheep/disc-photo-mcp/internal/catalog"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sourceProperty describes the photo argument shared by the disc tools.
var sourceProperty = map[string]interface{}{
	"type":        "string",
	"description": "Photo to analyze: an absolute file path, an http(s) URL, or a data URI",
}

func sourceOnly() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"source": sourceProperty,
		},
		"required": []string{"source"},
	}
}

// bagProperty describes a bag object as produced by bag_load.
var bagProperty = map[string]interface{}{
	"type":        "object",
	"description": `Bag object: {"bag": [{"discId", "photo", "plastic", "color", "link"}, ...], "name": "..."}`,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Disc photo pipeline
		{
			Name:        "disc_process",
			Description: "Crop a disc photo to the disc and pick its dominant color. Always succeeds: on failure croppedImageData is the original photo and fallback names the reason.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png", "webp"},
						"description": "Output encoding. Default from config (jpeg)",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"description": "Lossy encoder quality 1-100. Default from config (92)",
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        "disc_process_batch",
			Description: "Process several disc photos concurrently. Results are returned in input order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"sources": map[string]interface{}{
						"type":        "array",
						"items":       sourceProperty,
						"description": "Photos to process",
					},
				},
				"required": []string{"sources"},
			},
		},
		{
			Name:        "disc_submit",
			Description: "Process a photo for a bag slot. If a newer photo is submitted for the same slot before this one finishes, this one is canceled and reported as superseded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"slot": map[string]interface{}{
						"type":        "integer",
						"description": "Bag slot index (0-based)",
					},
					"source": sourceProperty,
				},
				"required": []string{"slot", "source"},
			},
		},

		// Analysis
		{
			Name:        "disc_analyze",
			Description: "Report the background estimate, edge threshold, detected disc radius and planned crop square without rendering. Also locates the disc by circle voting and reports whether it is centered.",
			InputSchema: sourceOnly(),
		},
		{
			Name:        "disc_dominant_color",
			Description: "Get the dominant color of the whole photo, center-weighted, ignoring glare and shadow.",
			InputSchema: sourceOnly(),
		},
		{
			Name:        "disc_overlay",
			Description: "Draw the background sample corners, detected rim and crop square onto the photo and return it as base64 PNG.",
			InputSchema: sourceOnly(),
		},
		{
			Name:        "disc_identify_stamp",
			Description: "Read the stamp on the cropped disc with OCR and rank catalog molds by how well they match the text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty,
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum matches to return. Default 5",
						"default":     5,
					},
				},
				"required": []string{"source"},
			},
		},

		// Catalog
		{
			Name:        "catalog_search",
			Description: "Search the disc catalog by name or manufacturer substring, optionally filtered by manufacturer and type. Results are sorted by name.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"search": map[string]interface{}{
						"type":        "string",
						"description": "Case-insensitive substring of the name or manufacturer",
					},
					"manufacturer": map[string]interface{}{
						"type":        "string",
						"description": "Exact manufacturer, or \"all\"",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"enum":        append([]string{catalog.AllValues}, catalog.Types...),
						"description": "Disc type, or \"all\"",
					},
				},
			},
		},
		{
			Name:        "catalog_info",
			Description: "List the catalog's manufacturers and disc types.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Bag
		{
			Name:        "bag_load",
			Description: "Decode a shared bag URL (or its #bag= fragment) into a bag object.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "Share URL or fragment",
					},
				},
				"required": []string{"url"},
			},
		},
		{
			Name:        "bag_share_url",
			Description: "Encode a bag object into a shareable URL.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"bag": bagProperty,
					"base": map[string]interface{}{
						"type":        "string",
						"description": "Page URL the fragment is appended to",
					},
				},
				"required": []string{"bag", "base"},
			},
		},
		{
			Name:        "bag_set_photo",
			Description: "Process a photo and store the cropped image and color in a bag slot. Returns the updated bag and the pipeline result.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"bag": bagProperty,
					"slot": map[string]interface{}{
						"type":        "integer",
						"description": "Bag slot index (0-based)",
					},
					"source": sourceProperty,
				},
				"required": []string{"bag", "slot", "source"},
			},
		},
	}
}

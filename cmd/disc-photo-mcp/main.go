// Package main provides the entry point for disc-photo-mcp.
//
// disc-photo-mcp crops disc-golf disc photos to the disc, picks their
// dominant color and manages shareable bags. It runs as an MCP server over
// stdio or as a command-line tool.
//
// Usage:
//
//	disc-photo-mcp serve
//	disc-photo-mcp process photo.jpg https://example.com/disc.png
//	disc-photo-mcp catalog --type Putter
//
// See --help for all available options.
package main

func main() {
	Execute()
}

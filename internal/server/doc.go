// Package server implements the MCP (Model Context Protocol) server for the
// disc photo tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Disc photo pipeline:
//   - disc_process: Crop a photo to the disc and pick its dominant color
//   - disc_process_batch: Process several photos concurrently
//   - disc_submit: Process a photo for a slot; newer submissions win
//
// Analysis:
//   - disc_analyze: Background, threshold, radius, crop square and disc location
//   - disc_dominant_color: Dominant color of the whole photo
//   - disc_overlay: Debug image of the detected rim and crop
//   - disc_identify_stamp: OCR the stamp and match catalog molds
//
// Catalog:
//   - catalog_search: Filter molds by text, manufacturer and type
//   - catalog_info: Manufacturers and types
//
// Bag:
//   - bag_load: Decode a share URL
//   - bag_share_url: Encode a bag as a share URL
//   - bag_set_photo: Process a photo into a bag slot
//
// Every photo argument is a "source": an absolute path, an http(s) URL or a
// data URI. Paths are decoded once and cached for the life of the process.
//
// # Error Handling
//
// The pipeline tools (disc_process, disc_process_batch, disc_submit,
// bag_set_photo) never fail on a bad photo. The result carries the original
// reference, the placeholder color and a fallback reason instead. Other
// tools return a JSON-RPC error with code -32000 and the Go error string as
// data.
//
// # Usage
//
//	srv := server.New(server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

// Package config loads the YAML configuration shared by the MCP server and
// the CLI.
//
// The file lives at $XDG_CONFIG_HOME/disc-photo-mcp/config.yaml unless a
// path is given. Every field is optional; missing fields keep the values
// from Default. A complete file looks like:
//
//	output:
//	  format: jpeg      # jpeg, png or webp
//	  quality: 92
//	fetch:
//	  timeout: 30s
//	  max_bytes: 20971520
//	  user_agent: disc-photo-mcp/1.0
//	batch:
//	  concurrency: 4
//	log:
//	  level: warn       # debug, info, warn, error
//	  json: false
//	stamp:
//	  language: eng
//	  catalog: ""       # optional replacement catalog
//	  tessdata_prefix: ""
package config

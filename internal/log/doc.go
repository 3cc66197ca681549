// Package log builds the slog loggers used by the server and the CLI.
//
// Logs go to stderr; stdout carries the MCP stream. Every logger wraps its
// handler in a PayloadHandler so image data URIs never end up in the log:
//
//	logger := log.NewLogger(os.Stderr, slog.LevelInfo, false)
//	logger.Info("processed", "data", dataURI) // data=data:image/jpeg;base64,/9j/4AAQ...(48213 bytes)
package log

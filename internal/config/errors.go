package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrConfigNotFound is returned by Load when the file does not exist.
	// The returned Config still carries the defaults.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidFormat is returned for an output format other than jpeg, png or webp.
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidQuality is returned when the quality is outside 1-100.
	ErrInvalidQuality = errors.New("invalid quality: must be between 1 and 100")

	// ErrInvalidTimeout is returned when the fetch timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidMaxBytes is returned when the fetch size limit is not positive.
	ErrInvalidMaxBytes = errors.New("invalid max bytes: must be positive")

	// ErrInvalidConcurrency is returned when the batch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid batch concurrency: must be positive")

	// ErrInvalidLogLevel is returned for a level slog does not know.
	ErrInvalidLogLevel = errors.New("invalid log level")
)

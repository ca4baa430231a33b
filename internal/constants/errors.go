package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIEndpoint     = errors.New("no content API endpoint configured")
	ErrAPIConfigNotFound = errors.New("API configuration not found")
)

// Cache errors.
var (
	ErrCacheKeyNotFound = errors.New("key not found")
	ErrCacheEntryExpire = errors.New("entry expired")
	ErrCacheDisabled    = errors.New("cache disabled")
)

// File system errors.
var (
	ErrNotRegularFile             = errors.New("path is not a regular file")
	ErrDirectoryTraversalDetected = errors.New("directory traversal detected in file path")
)

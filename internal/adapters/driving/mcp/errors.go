// Package mcp provides an MCP (Model Context Protocol) server adapter for edurag.
// It lets AI assistants ask questions of the indexed notes and generate
// question papers from them.
package mcp

import "errors"

// ErrMissingAskService is returned when the ask service is not provided.
var ErrMissingAskService = errors.New("mcp: ask service is required")

// ErrMissingStatusService is returned when the status service is not provided.
var ErrMissingStatusService = errors.New("mcp: status service is required")

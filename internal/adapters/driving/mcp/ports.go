package mcp

import (
	"github.com/custodia-labs/edurag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions from the notes.
	Ask driving.AskService

	// Status reports index health.
	Status driving.StatusService

	// Paper generates and fetches question papers. Optional.
	Paper driving.PaperService

	// Index rebuilds the index from the notes directory. Optional.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Status == nil {
		return ErrMissingStatusService
	}
	return nil
}

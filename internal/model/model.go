// Package model defines the domain types for azxfer.
package model

import (
	"fmt"
	"strings"
)

// TransferRequest describes one copy between two storage endpoints.
// It lives for a single invocation and is never persisted.
type TransferRequest struct {
	SourceLocation        string `json:"source_location"`
	SourceCredential      string `json:"-"`
	DestinationLocation   string `json:"destination_location"`
	DestinationCredential string `json:"-"`
	LogDirectory          string `json:"log_directory"`
}

// ValidationError lists the request fields that were left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid transfer request: missing %s", strings.Join(e.Missing, ", "))
}

// Validate reports every empty field at once.
func (r *TransferRequest) Validate() error {
	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"source location", r.SourceLocation},
		{"source credential", r.SourceCredential},
		{"destination location", r.DestinationLocation},
		{"destination credential", r.DestinationCredential},
		{"log directory", r.LogDirectory},
	}
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

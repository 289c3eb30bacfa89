package upload

import (
	"ConsolidaFin/api/constants"
)

// PipelineError is the structured failure value the pipeline reports to
// clients: a short user-facing message, an optional technical detail string
// and an optional context bag (sheet, row, field, imbalance list, ...).
// Severity is critical for anything that blocks the upload; warning is
// reserved for non-blocking data-quality signals.
type PipelineError struct {
	Severity string                 `json:"severity"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Context  map[string]interface{} `json:"context,omitempty"`
}

func (e *PipelineError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Critical builds a blocking pipeline error.
func Critical(message, details string, ctx map[string]interface{}) *PipelineError {
	return &PipelineError{
		Severity: constants.SeverityCritical,
		Message:  message,
		Details:  details,
		Context:  ctx,
	}
}

// Warning builds a non-blocking pipeline error. No current rule emits one,
// but the severity is part of the client contract.
func Warning(message, details string, ctx map[string]interface{}) *PipelineError {
	return &PipelineError{
		Severity: constants.SeverityWarning,
		Message:  message,
		Details:  details,
		Context:  ctx,
	}
}

// AsPipelineError normalizes any error into a PipelineError so handlers can
// always report {message, severity} to the client.
func AsPipelineError(err error) *PipelineError {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*PipelineError); ok {
		return pe
	}
	return Critical(constants.ErrInternalServer, err.Error(), nil)
}

// Package apperr defines the error taxonomy shared by the checker.
package apperr

import "errors"

// Finding categories. Evaluate never returns these; they classify failed
// findings and are matched with errors.Is by callers that wrap them.
var (
	ErrMissingResource   = errors.New("missing resource")
	ErrMalformedDocument = errors.New("malformed document")
	ErrRuleViolation     = errors.New("rule violation")
	ErrToolError         = errors.New("tool error")
)

var (
	// ErrInvalidRuleSet is returned when a rule set cannot be loaded.
	ErrInvalidRuleSet = errors.New("invalid rule set")
	// ErrChecksFailed is returned by commands whose report status is FAIL.
	ErrChecksFailed = errors.New("conformance checks failed")
)

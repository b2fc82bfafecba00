// Package models defines the domain types for confcheck.
package models

// Severity decides whether a failed rule flips the overall status.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Outcome is the result of evaluating one rule.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
	// OutcomeSkip marks a rule that was not evaluated. Skipped findings are
	// excluded from the success rate.
	OutcomeSkip Outcome = "skip"
)

// Category classifies why a finding did not pass.
type Category string

const (
	CategoryMissingResource   Category = "missing_resource"
	CategoryMalformedDocument Category = "malformed_document"
	CategoryRuleViolation     Category = "rule_violation"
	CategoryToolError         Category = "tool_error"
)

// Finding is the outcome of evaluating exactly one rule.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Outcome  Outcome  `json:"outcome"`
	Category Category `json:"category,omitempty"`
	Message  string   `json:"message"`
	Details  []string `json:"details,omitempty"`
}

// Failed reports whether the finding counts against its severity.
func (f Finding) Failed() bool {
	return f.Outcome == OutcomeFail
}

// Summary renders the finding as a single line for detail lists.
func (f Finding) Summary() string {
	return "[" + f.RuleID + "] " + f.Message
}

package models

import "time"

// Status is the overall verdict of a report.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Report is the aggregated result of one run over a rule list.
type Report struct {
	Group           string    `json:"group,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	Status          Status    `json:"status"`
	SuccessRate     float64   `json:"success_rate"`
	TotalChecks     int       `json:"total_checks"`
	Successes       int       `json:"successes"`
	Errors          int       `json:"errors"`
	Warnings        int       `json:"warnings"`
	Skipped         int       `json:"skipped"`
	ErrorDetails    []string  `json:"error_details"`
	WarningDetails  []string  `json:"warning_details"`
	Findings        []Finding `json:"findings"`
	RulesetChecksum string    `json:"ruleset_checksum,omitempty"`
}

// Passed reports whether no error-severity finding failed.
func (r *Report) Passed() bool {
	return r.Status == StatusPass
}

// GroupResult is one group's contribution to an aggregate run.
type GroupResult struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      int     `json:"weight"`
	Status      Status  `json:"status"`
	SuccessRate float64 `json:"success_rate"`
	Report      *Report `json:"report"`
}

// AggregateReport combines several independently evaluated groups.
type AggregateReport struct {
	Timestamp         time.Time     `json:"timestamp"`
	Status            Status        `json:"status"`
	OverallPercentage float64       `json:"overall_percentage"`
	Grade             string        `json:"grade"`
	TotalWeight       int           `json:"total_weight"`
	GroupsPassed      int           `json:"groups_passed"`
	GroupsFailed      int           `json:"groups_failed"`
	Groups            []GroupResult `json:"groups"`
	Recommendations   []string      `json:"recommendations"`
	RulesetChecksum   string        `json:"ruleset_checksum,omitempty"`
}

// Package types defines the core request and result types shared by the
// orchestration service, its adapters, and its cache.
package types

import (
	"fmt"
	"strings"
)

// BackendKind identifies an external AI backend.
type BackendKind string

const (
	// BackendOpenAI is the hosted OpenAI chat-completion API.
	BackendOpenAI BackendKind = "openai"

	// BackendClaude is the Anthropic Messages API.
	BackendClaude BackendKind = "claude"

	// BackendCustom is a user-supplied OpenAI-compatible endpoint.
	BackendCustom BackendKind = "custom"

	// BackendLocal is a locally hosted OpenAI-compatible endpoint.
	BackendLocal BackendKind = "local"
)

// String returns the backend identifier.
func (k BackendKind) String() string {
	return string(k)
}

// Valid reports whether the kind is one of the known backends.
func (k BackendKind) Valid() bool {
	switch k {
	case BackendOpenAI, BackendClaude, BackendCustom, BackendLocal:
		return true
	}
	return false
}

// ParseBackendKind converts a string into a BackendKind.
func ParseBackendKind(s string) (BackendKind, error) {
	k := BackendKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown backend kind %q", s)
	}
	return k, nil
}

// TaskType classifies the kind of analysis requested.
type TaskType string

const (
	TaskVulnerabilityAnalysis TaskType = "vulnerability_analysis"
	TaskThreatModeling        TaskType = "threat_modeling"
	TaskScanOptimization      TaskType = "scan_optimization"
	TaskReportGeneration      TaskType = "report_generation"
	TaskExploitSuggestion     TaskType = "exploit_suggestion"
)

// AllTaskTypes lists every supported task type.
var AllTaskTypes = []TaskType{
	TaskVulnerabilityAnalysis,
	TaskThreatModeling,
	TaskScanOptimization,
	TaskReportGeneration,
	TaskExploitSuggestion,
}

// String returns the task type identifier.
func (t TaskType) String() string {
	return string(t)
}

// Valid reports whether the task type is one of the fixed set.
func (t TaskType) Valid() bool {
	switch t {
	case TaskVulnerabilityAnalysis, TaskThreatModeling, TaskScanOptimization,
		TaskReportGeneration, TaskExploitSuggestion:
		return true
	}
	return false
}

// ParseTaskType converts a string into a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	t := TaskType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown task type %q", s)
	}
	return t, nil
}

// DisplayName returns a human-readable name for reports and logs.
func (t TaskType) DisplayName() string {
	switch t {
	case TaskVulnerabilityAnalysis:
		return "Vulnerability Analysis"
	case TaskThreatModeling:
		return "Threat Modeling"
	case TaskScanOptimization:
		return "Scan Optimization"
	case TaskReportGeneration:
		return "Report Generation"
	case TaskExploitSuggestion:
		return "Exploit Suggestion"
	default:
		return "Unknown"
	}
}

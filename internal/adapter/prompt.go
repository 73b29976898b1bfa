// Package adapter holds the pieces shared by all backend adapters: the
// per-task-type system instructions and the user-message encoding.
package adapter

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/scanforge/aicore/pkg/types"
)

// Generation parameters shared by every backend. Low temperature keeps the
// analysis output focused and reproducible.
const (
	Temperature = 0.3
	MaxTokens   = 2000
)

// SystemInstruction returns the system prompt for a task type.
func SystemInstruction(taskType types.TaskType) string {
	switch taskType {
	case types.TaskVulnerabilityAnalysis:
		return "You are a cybersecurity expert specializing in vulnerability analysis. " +
			"Analyze the provided vulnerability data and provide detailed insights, " +
			"risk assessment, and remediation recommendations."
	case types.TaskThreatModeling:
		return "You are a threat modeling expert. Analyze the provided system information " +
			"and identify potential threats, attack vectors, and security recommendations."
	case types.TaskScanOptimization:
		return "You are a penetration testing expert. Optimize the scanning parameters " +
			"based on the target information to improve efficiency and coverage."
	case types.TaskReportGeneration:
		return "You are a cybersecurity report writer. Generate a comprehensive, " +
			"professional security assessment report based on the provided data."
	case types.TaskExploitSuggestion:
		return "You are an ethical penetration testing expert. Suggest potential " +
			"exploitation techniques for educational and authorized testing purposes only."
	default:
		return "You are a cybersecurity assistant. Analyze the provided data."
	}
}

// UserContent serializes the request payload into the user message body.
// Map keys are emitted in sorted order, so two logically identical payloads
// produce identical content. The optional free-text context is appended.
func UserContent(req *types.TaskRequest) (string, error) {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return "", fmt.Errorf("marshal task payload: %w", err)
	}

	if req.Context == "" {
		return string(payload), nil
	}
	return fmt.Sprintf("%s\n\nContext: %s", payload, req.Context), nil
}

// SuccessResult wraps extracted content into the uniform success payload.
func SuccessResult(content, backendName string) *types.TaskResult {
	return &types.TaskResult{
		Success: true,
		Result: map[string]any{
			"content":  content,
			"provider": backendName,
		},
		ConfidenceScore: DefaultConfidence,
	}
}

// DefaultConfidence is assigned to successful results. Backends do not
// report calibrated confidence, so a fixed default is used.
const DefaultConfidence = 0.8

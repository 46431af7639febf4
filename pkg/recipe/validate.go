package recipe

import (
	"fmt"
	"strings"
)

// LongTimeoutThreshold is the step timeout in seconds above which the
// quality check flags a step as suspicious.
const LongTimeoutThreshold = 60

// Warnings inspects a structurally valid recipe for quality problems that
// do not block execution:
//
//   - duplicate step names
//   - timeouts above LongTimeoutThreshold seconds
//   - element selectors with an entropy score below WeakEntropyThreshold
//   - click and type steps that skip post-action verification
//
// The result is an advisory list; execution proceeds regardless.
func Warnings(r *Recipe) []string {
	var warnings []string

	seen := make(map[string]int, len(r.Steps))
	for _, step := range r.Steps {
		seen[step.Name]++
	}
	var duplicates []string
	for _, step := range r.Steps {
		if seen[step.Name] > 1 {
			duplicates = append(duplicates, step.Name)
			seen[step.Name] = 0 // report each duplicate name once
		}
	}
	if len(duplicates) > 0 {
		warnings = append(warnings, fmt.Sprintf("duplicate step names found: %s", strings.Join(duplicates, ", ")))
	}

	var longTimeouts []string
	for _, step := range r.Steps {
		if step.Timeout > LongTimeoutThreshold {
			longTimeouts = append(longTimeouts, step.Name)
		}
	}
	if len(longTimeouts) > 0 {
		warnings = append(warnings, fmt.Sprintf("steps with long timeouts (>%ds): %s",
			LongTimeoutThreshold, strings.Join(longTimeouts, ", ")))
	}

	var weakSelectors []string
	for _, step := range r.Steps {
		el := step.Target.Element
		if el != nil && el.HasSelectors() && el.EntropyScore() < WeakEntropyThreshold {
			weakSelectors = append(weakSelectors, step.Name)
		}
	}
	if len(weakSelectors) > 0 {
		warnings = append(warnings, fmt.Sprintf("steps with weak selectors (consider using automation_id): %s",
			strings.Join(weakSelectors, ", ")))
	}

	var noVerify []string
	for _, step := range r.Steps {
		if !step.VerifyAfter && (step.Action == ActionClick || step.Action == ActionTypeText) {
			noVerify = append(noVerify, step.Name)
		}
	}
	if len(noVerify) > 0 {
		warnings = append(warnings, fmt.Sprintf("steps without verification: %s", strings.Join(noVerify, ", ")))
	}

	return warnings
}

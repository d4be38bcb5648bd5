// SPDX-License-Identifier: MIT
package gitx

import "strings"

// ErrorClass is a coarse category for failed command output.
type ErrorClass string

const (
	ErrAuth     ErrorClass = "auth"
	ErrNetwork  ErrorClass = "network"
	ErrTimeout  ErrorClass = "timeout"
	ErrNotARepo ErrorClass = "not_a_repo"
	ErrCorrupt  ErrorClass = "corrupt"
	ErrUnknown  ErrorClass = "unknown"
)

// ClassifyResult maps a non-OK Result into a broad actionable category.
// Returns "" for successful results.
func ClassifyResult(res Result) ErrorClass {
	switch res.Status {
	case StatusOK:
		return ""
	case StatusTimeout:
		return ErrTimeout
	}
	return ClassifyOutput(res.Output)
}

// ClassifyOutput inspects command output and returns a classification.
// Heuristics are intentionally broad to keep categories actionable for users.
func ClassifyOutput(output string) ErrorClass {
	lower := strings.ToLower(output)
	switch {
	case containsAny(lower, "permission denied", "authentication failed", "access denied", "publickey", "could not read username", "host key verification failed", "invalid credentials"):
		return ErrAuth
	case containsAny(lower, "could not resolve host", "connection refused", "network is unreachable", "connection timed out", "failed to connect", "unable to access", "temporary failure in name resolution"):
		return ErrNetwork
	case containsAny(lower, "timed out", "timeout", "deadline exceeded"):
		return ErrTimeout
	case containsAny(lower, "not a git repository"):
		return ErrNotARepo
	case containsAny(lower, "bad object", "object file is empty", "loose object", "corrupt"):
		return ErrCorrupt
	default:
		return ErrUnknown
	}
}

func containsAny(msg string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

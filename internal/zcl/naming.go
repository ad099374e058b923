package zcl

import "strings"

const (
	requestSuffix  = "Request"
	responseSuffix = "Response"
)

// IsRequestName reports whether a command name follows the "...Request"
// convention. Such commands are expected to have a response.
func IsRequestName(name string) bool {
	return strings.HasSuffix(name, requestSuffix)
}

// IsResponseName reports whether a command name ends in "Response".
func IsResponseName(name string) bool {
	return strings.HasSuffix(name, responseSuffix)
}

// ResponseCandidates lists the response names to look for, best first:
// an explicitly declared response, then "XRequest" -> "XResponse", then
// "X" -> "XResponse". Response commands have no candidates.
func ResponseCandidates(name, explicit string) []string {
	if IsResponseName(name) {
		return nil
	}

	candidates := make([]string, 0, 3)
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if base, ok := strings.CutSuffix(name, requestSuffix); ok && base != "" {
		candidates = append(candidates, base+responseSuffix)
	}
	candidates = append(candidates, name+responseSuffix)
	return candidates
}

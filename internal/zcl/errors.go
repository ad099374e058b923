package zcl

import (
	"fmt"

	"github.com/tphakala/zclstore/internal/errors"
)

// ParseInputError reports a structurally invalid package description.
// Path locates the offending entity, e.g. "clusters[2](On/Off).attributes[0]".
type ParseInputError struct {
	Path   string
	Field  string
	Reason string
}

func (e *ParseInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid package description at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("invalid package description at %s: %s %s", e.Path, e.Field, e.Reason)
}

// ErrorCategory groups invalid descriptions with other validation failures
// when they are wrapped in an enhanced error.
func (e *ParseInputError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// EntityPath formats one step of an entity path. An empty name is omitted.
//
//	EntityPath("", "clusters", 2, "On/Off") == "clusters[2](On/Off)"
func EntityPath(parent, collection string, index int, name string) string {
	step := fmt.Sprintf("%s[%d]", collection, index)
	if name != "" {
		step += "(" + name + ")"
	}
	if parent == "" {
		return step
	}
	return parent + "." + step
}

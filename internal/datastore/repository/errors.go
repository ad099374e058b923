// Package repository provides the package registry and the read-only query
// layer over the normalized definition store.
package repository

import "github.com/tphakala/zclstore/internal/errors"

// Sentinel errors for repository operations.
var (
	// ErrPackageNotFound indicates the requested package does not exist.
	ErrPackageNotFound = errors.NewStd("package not found")

	// ErrClusterNotFound indicates the requested cluster does not exist.
	ErrClusterNotFound = errors.NewStd("cluster not found")

	// ErrCommandNotFound indicates the requested command does not exist.
	ErrCommandNotFound = errors.NewStd("command not found")

	// ErrDomainNotFound indicates the requested domain does not exist.
	ErrDomainNotFound = errors.NewStd("domain not found")

	// ErrDuplicateRegistration means a concurrent writer registered the same
	// identity but its row is not visible to this transaction yet. Retrying
	// the enclosing transaction resolves it.
	ErrDuplicateRegistration = errors.NewStd("package registration raced with a concurrent load")

	// ErrUnsupportedTable indicates a query was asked for a table it does not cover.
	ErrUnsupportedTable = errors.NewStd("unsupported table")
)

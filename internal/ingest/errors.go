package ingest

import (
	"fmt"

	"github.com/tphakala/zclstore/internal/zcl"
)

// IngestionError is returned for a load rejected because of its input.
// Path names the offending entity, for example clusters[2](On/Off).commands[0].
// No package row survives an IngestionError.
type IngestionError struct {
	Identity zcl.Identity
	Path     string
	Err      error
}

func (e *IngestionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ingest %s: %v", e.Identity, e.Err)
	}
	return fmt.Sprintf("ingest %s at %s: %v", e.Identity, e.Path, e.Err)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

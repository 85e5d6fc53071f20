package executor

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrConnectorExecution marks an unsuppressed connector failure that aborted
// a pipeline.
var ErrConnectorExecution = errors.New("connector execution failed")

// ErrNoValue marks a required capture that found nothing, such as a connect
// lookup matching no row.
var ErrNoValue = errors.New("required value not found")

// ExecutionError locates the failed statement.
type ExecutionError struct {
	Index int
	Label string
	SQL   string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Label, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports ErrConnectorExecution identity.
func (e *ExecutionError) Is(target error) bool {
	return target == ErrConnectorExecution
}

package autosingleton

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

// ErrNotRunning is matched by every NotRunningError.
var ErrNotRunning = errors.New("container is not running")

// NotRunningError is returned when an accessor is used outside the running phase.
type NotRunningError struct {
	Type reflect.Type
	Op   string
}

func (e *NotRunningError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("cannot %s: the singleton container is not running", e.Op)
	}
	return fmt.Sprintf("cannot %s for %v: the singleton container is not running. Did you forget to call Start()?", e.Op, e.Type)
}

func (e *NotRunningError) Is(target error) bool {
	return target == ErrNotRunning
}

// NoInstanceError is returned when no registered singleton belongs to the family.
type NoInstanceError struct {
	Type reflect.Type
}

func (e *NoInstanceError) Error() string {
	return fmt.Sprintf("no singleton instance of %v exists. Is it enabled in the Singleton List?", e.Type)
}

// NoInstanceSelectedError is returned when the family has instances but none is selected.
type NoInstanceSelectedError struct {
	Type  reflect.Type
	Count int
}

func (e *NoInstanceSelectedError) Error() string {
	return fmt.Sprintf("none of the %d singleton instances of %v is selected. Select one before calling Instance()", e.Count, e.Type)
}

// LifecycleError wraps the failures of wiring or of the Initialize and Dispose hooks.
type LifecycleError struct {
	Phase string
	Cause error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("singleton %s failed: %v", e.Phase, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *LifecycleError) Unwrap() error {
	return e.Cause
}

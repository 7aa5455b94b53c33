package reconcile

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

// Level grades a report line.
type Level int

const (
	LevelMessage Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "message"
	}
}

// Change is one line of the end-of-pass report.
type Change struct {
	Processor string
	Level     Level
	Message   string
}

func (c Change) String() string {
	return fmt.Sprintf("[%s] %s", c.Processor, c.Message)
}

// Report aggregates what a reconciliation run did.
type Report struct {
	Changes []Change

	RemovedNull int
	Deleted     int
	Created     int
	Moved       int

	// Adopted counts assets found at their target path without an entry.
	Adopted int

	// Saved is true when the catalogue was written at the end of the run.
	Saved bool

	errs *multierror.Error
}

func (r *Report) add(processor string, level Level, format string, args ...any) {
	r.Changes = append(r.Changes, Change{
		Processor: processor,
		Level:     level,
		Message:   fmt.Sprintf(format, args...),
	})
}

func (r *Report) fail(processor string, err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.add(processor, LevelError, "%s: %v", msg, err)
	r.errs = multierror.Append(r.errs, errors.Wrapf(err, "%s: %s", processor, msg))
}

// Mutated reports whether the run changed the catalogue.
func (r *Report) Mutated() bool {
	return r.RemovedNull > 0 || r.Deleted > 0 || r.Created > 0 || r.Moved > 0 || r.Adopted > 0
}

// Err returns every per-entry failure of the run, or nil.
func (r *Report) Err() error {
	return r.errs.ErrorOrNil()
}

// For returns the lines produced by one processor.
func (r *Report) For(processor string) []Change {
	var changes []Change
	for _, c := range r.Changes {
		if c.Processor == processor {
			changes = append(changes, c)
		}
	}
	return changes
}

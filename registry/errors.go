package registry

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/errors"
)

// ErrCorruptCatalogue matches every error that makes a catalogue unusable at runtime.
var ErrCorruptCatalogue = errors.New("corrupt singleton catalogue")

// DuplicateTypeError is returned when two enabled entries resolve to the same runtime type.
type DuplicateTypeError struct {
	Type   reflect.Type
	First  string
	Second string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("singleton type %v registered twice (%q and %q)", e.Type, e.First, e.Second)
}

func (e *DuplicateTypeError) Is(target error) bool {
	return target == ErrCorruptCatalogue
}

// MissingComponentError is returned when an instantiated template lacks the
// component its catalogue entry promises.
type MissingComponentError struct {
	TypeName string
	Template string
}

func (e *MissingComponentError) Error() string {
	return fmt.Sprintf("could not get the component of type %q from template %q", e.TypeName, e.Template)
}

func (e *MissingComponentError) Is(target error) bool {
	return target == ErrCorruptCatalogue
}

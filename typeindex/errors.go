package typeindex

import (
	"fmt"
	"reflect"
)

// RegistrationError is returned when a type cannot be added to the index.
type RegistrationError struct {
	Type   reflect.Type
	Reason string
}

func (e *RegistrationError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("invalid type registration: %s", e.Reason)
	}
	return fmt.Sprintf("cannot register type %v: %s", e.Type, e.Reason)
}

package autosingleton

import (
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

// Initializable is implemented by singletons that need setup once the
// container is running. Other singletons are already reachable from Initialize.
//
// Example:
//
//	func (m *AudioManager) Initialize() error {
//	    settings, err := autosingleton.For[*AudioSettings](container).Instance()
//	    if err != nil {
//	        return err
//	    }
//	    m.volume = settings.Volume
//	    return nil
//	}
type Initializable interface {
	Initialize() error
}

// Disposable is implemented by singletons that release resources on Stop.
type Disposable interface {
	Dispose() error
}

// initializeAll calls Initialize in registry order and keeps going on failure.
func initializeAll(instances []any) error {
	var result error
	for _, instance := range instances {
		if initializable, ok := instance.(Initializable); ok {
			if err := initializable.Initialize(); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "initialize %T", instance))
			}
		}
	}
	return result
}

// disposeAll calls Dispose in reverse registry order.
func disposeAll(instances []any) error {
	var result error
	for i := len(instances) - 1; i >= 0; i-- {
		instance := instances[i]
		if disposable, ok := instance.(Disposable); ok {
			if err := disposable.Dispose(); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "dispose %T", instance))
			}
		}
	}
	return result
}

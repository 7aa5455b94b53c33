package typeindex

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// Provider groups the registrations of one package or feature.
//
// Example:
//
//	type AudioTypes struct{}
//
//	func (AudioTypes) RegisterTypes(x *typeindex.Index) error {
//	    return x.Register((*AudioSettings)(nil), typeindex.Of(typeindex.KindAsset), typeindex.Singleton())
//	}
type Provider interface {
	RegisterTypes(x *Index) error
}

// RegisterProvider calls the provider's RegisterTypes once.
// Registering a second provider of the same type is a no-op.
func (x *Index) RegisterProvider(provider Provider) error {
	if provider == nil {
		return errors.New("provider cannot be nil")
	}

	providerType := reflect.TypeOf(provider)

	x.mu.RLock()
	for _, existing := range x.providers {
		if reflect.TypeOf(existing) == providerType {
			x.mu.RUnlock()
			return nil
		}
	}
	x.mu.RUnlock()

	if err := provider.RegisterTypes(x); err != nil {
		return errors.Wrapf(err, "provider %v registration failed", providerType)
	}

	x.mu.Lock()
	x.providers = append(x.providers, provider)
	x.mu.Unlock()

	return nil
}

// Providers returns the registered providers in registration order.
func (x *Index) Providers() []Provider {
	x.mu.RLock()
	defer x.mu.RUnlock()

	providers := make([]Provider, len(x.providers))
	copy(providers, x.providers)
	return providers
}

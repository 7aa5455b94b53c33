// Package autosingleton makes project-wide singletons out of annotated types.
//
// Types are registered once in a typeindex.Index and marked with the
// singleton annotation. Tooling keeps a catalogue of one persisted asset per
// annotated type (package reconcile); at process start the catalogue is
// turned into a registry of live instances (package registry) that
// application code reaches through a typed accessor.
//
// # Features
//
//   - Two object kinds: free-standing data assets and components living on a scene object
//   - Inherited declarations turning every subtype into a singleton
//   - Per-entry enable flags
//   - Type families: one accessor serves every instance assignable to T
//   - Explicit selection by predicate, priority, identity or exact type
//   - References between singletons through `singleton` tagged fields
//   - Initialize and Dispose hooks
//
// # Quick Start
//
// Register the types, then load the catalogue:
//
//	idx := typeindex.New()
//	idx.MustRegister((*AudioSettings)(nil), typeindex.Of(typeindex.KindAsset), typeindex.Singleton())
//
//	container, err := autosingleton.Boot(ctx, idx, autosingleton.WithAssetRoot("Assets"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	settings := autosingleton.For[*AudioSettings](container).MustInstance()
//
// # Families and Selection
//
// For[T] serves every registered instance assignable to T. The instance
// whose exact type is T is selected from the start; otherwise pick one:
//
//	music := autosingleton.For[AudioService](container)
//	ok, err := music.SelectByPriority(func(s AudioService) int { return s.Priority() })
//
// Selection failures are not errors: ambiguity or absence reports false and
// keeps the previous selection.
//
// # Singleton References
//
// Start fills exported pointer and interface fields tagged `singleton` with
// other registered singletons before any Initialize hook runs:
//
//	type AudioManager struct {
//	    Settings *AudioSettings `singleton:""`
//	    Mixer    Mixer          `singleton:"optional"`
//	}
//
// # Error Handling
//
// Every accessor call outside the running phase returns a *NotRunningError.
// Instance distinguishes an empty family (*NoInstanceError) from a family
// with no selected member (*NoInstanceSelectedError).
//
// # Thread Safety
//
// Family construction is safe for concurrent use. Selection is not: callers
// selecting from several goroutines must serialise.
package autosingleton

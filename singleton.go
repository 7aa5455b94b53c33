package autosingleton

import (
	"cmp"
	"reflect"
	"slices"
)

// family is the state shared by every accessor of one type T.
type family[T any] struct {
	typ      reflect.Type
	all      []T
	selected T
	has      bool
}

func newFamily[T any](c *Container) *family[T] {
	f := &family[T]{typ: typeOf[T]()}
	for _, instance := range c.registry.Instances() {
		member, ok := instance.(T)
		if !ok {
			continue
		}
		f.all = append(f.all, member)
		if !f.has && reflect.TypeOf(instance) == f.typ {
			f.selected, f.has = member, true
		}
	}
	return f
}

func (f *family[T]) selectMember(v T) {
	f.selected, f.has = v, true
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Singleton is the accessor of the type family T: every registered instance
// assignable to T. Accessors of the same T on one container share their selection.
//
// Selection is not guarded; callers selecting from several goroutines must
// serialise the calls.
type Singleton[T any] struct {
	c *Container
	f *family[T]
}

// For returns the accessor of the family T. The family is built on first use
// from the registry. Initially the instance whose exact type is T is selected.
func For[T any](c *Container) *Singleton[T] {
	t := typeOf[T]()
	f := c.families.Get(t, func() any {
		return newFamily[T](c)
	}).(*family[T])
	return &Singleton[T]{c: c, f: f}
}

func (s *Singleton[T]) running(op string) error {
	if !s.c.Running() {
		return &NotRunningError{Type: s.f.typ, Op: op}
	}
	return nil
}

// Instance returns the selected instance.
func (s *Singleton[T]) Instance() (T, error) {
	var zero T
	if err := s.running("get instance"); err != nil {
		return zero, err
	}
	if s.f.has {
		return s.f.selected, nil
	}
	if len(s.f.all) == 0 {
		return zero, &NoInstanceError{Type: s.f.typ}
	}
	return zero, &NoInstanceSelectedError{Type: s.f.typ, Count: len(s.f.all)}
}

// MustInstance is like Instance but panics on error.
func (s *Singleton[T]) MustInstance() T {
	v, err := s.Instance()
	if err != nil {
		panic(err)
	}
	return v
}

// Instances returns every member of the family in registry order.
func (s *Singleton[T]) Instances() ([]T, error) {
	if err := s.running("list instances"); err != nil {
		return nil, err
	}
	return slices.Clone(s.f.all), nil
}

// HasInstance reports whether an instance is selected. It is false outside the running phase.
func (s *Singleton[T]) HasInstance() bool {
	return s.c.Running() && s.f.has
}

// Find returns the members satisfying pred, order preserved.
func (s *Singleton[T]) Find(pred func(T) bool) ([]T, error) {
	if err := s.running("find instances"); err != nil {
		return nil, err
	}
	var found []T
	for _, v := range s.f.all {
		if pred(v) {
			found = append(found, v)
		}
	}
	return found, nil
}

// SelectWhere selects the only member satisfying pred. It reports false and
// keeps the selection when no member or several members match.
func (s *Singleton[T]) SelectWhere(pred func(T) bool) (bool, error) {
	if err := s.running("select instance"); err != nil {
		return false, err
	}
	var match T
	matches := 0
	for _, v := range s.f.all {
		if pred(v) {
			match = v
			matches++
		}
	}
	if matches != 1 {
		return false, nil
	}
	s.f.selectMember(match)
	return true, nil
}

// SelectByPriority selects the member with the highest priority. A tie at the
// highest priority or an empty family reports false and keeps the selection.
// Priorities are compared only with each other, so a lone member is selected
// even at math.MinInt.
func (s *Singleton[T]) SelectByPriority(priority func(T) int) (bool, error) {
	if err := s.running("select instance"); err != nil {
		return false, err
	}
	return s.selectBest(best(s.f.all, priority)), nil
}

// SelectByFloatPriority is SelectByPriority for floating point priorities.
// Ties are detected with exact equality, so priorities computed differently
// may not tie even when they print the same. NaN priorities never win, and
// -math.MaxFloat64 is an ordinary priority.
func (s *Singleton[T]) SelectByFloatPriority(priority func(T) float64) (bool, error) {
	if err := s.running("select instance"); err != nil {
		return false, err
	}
	return s.selectBest(best(s.f.all, priority)), nil
}

func (s *Singleton[T]) selectBest(v T, ok bool) bool {
	if ok {
		s.f.selectMember(v)
	}
	return ok
}

// best returns the member with the strictly highest key.
func best[T any, K cmp.Ordered](all []T, key func(T) K) (T, bool) {
	var (
		winner    T
		top       K
		found     bool
		ambiguous bool
	)
	for _, v := range all {
		k := key(v)
		if k != k {
			continue
		}
		switch {
		case !found || k > top:
			winner, top, found, ambiguous = v, k, true, false
		case k == top:
			ambiguous = true
		}
	}
	return winner, found && !ambiguous
}

// SelectInstance selects v if it is a member of the family.
func (s *Singleton[T]) SelectInstance(v T) (bool, error) {
	if err := s.running("select instance"); err != nil {
		return false, err
	}
	for _, member := range s.f.all {
		if same(member, v) {
			s.f.selectMember(member)
			return true, nil
		}
	}
	return false, nil
}

func same(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// SelectOnly selects the member of a family with exactly one member.
func (s *Singleton[T]) SelectOnly() (bool, error) {
	if err := s.running("select instance"); err != nil {
		return false, err
	}
	if len(s.f.all) != 1 {
		return false, nil
	}
	s.f.selectMember(s.f.all[0])
	return true, nil
}

// SelectType selects the only member of s whose exact runtime type is SubT.
//
// Example:
//
//	ok, err := autosingleton.SelectType[*MusicManager](autosingleton.For[AudioService](container))
func SelectType[SubT, T any](s *Singleton[T]) (bool, error) {
	if err := s.running("select instance"); err != nil {
		return false, err
	}
	want := typeOf[SubT]()
	var match T
	matches := 0
	for _, v := range s.f.all {
		if reflect.TypeOf(v) == want {
			match = v
			matches++
		}
	}
	if matches != 1 {
		return false, nil
	}
	s.f.selectMember(match)
	return true, nil
}

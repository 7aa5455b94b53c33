package autosingleton

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"

	"github.com/toutaio/toutago-autosingleton/internal/lazy"
)

// wireTag marks singleton fields that Start fills from the registry.
const wireTag = "singleton"

// tagOptions represents parsed options from a singleton struct tag.
type tagOptions struct {
	skip     bool // Don't wire this field
	optional bool // Leave the field nil when nothing matches
}

// parseWireTag parses a singleton struct tag.
// Supported formats:
//   - `singleton:""` - required reference
//   - `singleton:"optional"` - optional reference
//   - `singleton:"-"` - ignored
func parseWireTag(tag string) tagOptions {
	opts := tagOptions{}
	if tag == "-" {
		opts.skip = true
		return opts
	}
	for _, part := range strings.Split(tag, ",") {
		if strings.TrimSpace(part) == "optional" {
			opts.optional = true
		}
	}
	return opts
}

// wiredField stores metadata about a struct field to wire.
type wiredField struct {
	index   int
	name    string
	typ     reflect.Type
	options tagOptions
}

var wiredFields lazy.Cache[reflect.Type, []wiredField]

// fieldsOf returns the tagged fields of the struct typ, which must not be a pointer.
func fieldsOf(typ reflect.Type) []wiredField {
	return wiredFields.Get(typ, func() []wiredField {
		var fields []wiredField
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			tag, ok := field.Tag.Lookup(wireTag)
			if !ok {
				continue
			}
			opts := parseWireTag(tag)
			if opts.skip {
				continue
			}
			fields = append(fields, wiredField{
				index:   i,
				name:    field.Name,
				typ:     field.Type,
				options: opts,
			})
		}
		return fields
	})
}

// wireAll fills the singleton fields of every instance. Fields already set are
// left alone. All failures are returned together.
func wireAll(instances []any) error {
	var result error
	for _, instance := range instances {
		value := reflect.ValueOf(instance)
		if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
			continue
		}
		elem := value.Elem()
		for _, field := range fieldsOf(elem.Type()) {
			if err := wireField(instance, elem, field, instances); err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "wire %T.%s", instance, field.name))
			}
		}
	}
	return result
}

func wireField(owner any, elem reflect.Value, field wiredField, instances []any) error {
	fieldValue := elem.Field(field.index)
	if !fieldValue.CanSet() {
		return errors.New("field is not settable (not exported?)")
	}
	if !fieldValue.IsZero() {
		return nil
	}
	if field.typ.Kind() != reflect.Ptr && field.typ.Kind() != reflect.Interface {
		return errors.Newf("only pointer and interface fields can reference singletons, got %v", field.typ)
	}

	target, err := resolveField(owner, field.typ, instances)
	if err != nil {
		if field.options.optional {
			return nil
		}
		return err
	}
	fieldValue.Set(reflect.ValueOf(target))
	return nil
}

// resolveField picks the instance of exactly typ, or the only other instance
// assignable to it. The owner never references itself.
func resolveField(owner any, typ reflect.Type, instances []any) (any, error) {
	var candidates []any
	for _, instance := range instances {
		if instance == owner {
			continue
		}
		t := reflect.TypeOf(instance)
		if t == typ {
			return instance, nil
		}
		if t.AssignableTo(typ) {
			candidates = append(candidates, instance)
		}
	}
	switch len(candidates) {
	case 0:
		return nil, &NoInstanceError{Type: typ}
	case 1:
		return candidates[0], nil
	default:
		return nil, &NoInstanceSelectedError{Type: typ, Count: len(candidates)}
	}
}

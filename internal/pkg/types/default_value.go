package types

import (
	"reflect"
	"time"
)

// Cloner is implemented by values that know how to duplicate themselves.
//
// A DefaultMap template implementing Cloner is duplicated through Clone, which
// lets a type keep its identity and decide how deep the copy goes.
type Cloner[V any] interface {
	Clone() V
}

// defaultKind identifies how a static default template is duplicated.
type defaultKind uint8

const (
	// kindScalar values are reused as-is.
	kindScalar defaultKind = iota

	// kindComposite values (slices, maps, pointers, channels) are
	// shallow-copied.
	kindComposite

	// kindTemporal values (*time.Time) are copied into a new instant.
	kindTemporal

	// kindTagged values implement Cloner and copy themselves.
	kindTagged
)

// String returns the variant name, used in test failure messages.
func (k defaultKind) String() string {
	switch k {
	case kindComposite:
		return "composite"
	case kindTemporal:
		return "temporal"
	case kindTagged:
		return "tagged"
	default:
		return "scalar"
	}
}

// defaultValue is a static default template together with its duplication rule.
type defaultValue[V any] struct {
	kind  defaultKind
	value V
}

// classifyDefault inspects the template once and selects its duplication rule.
//
// Nil pointers, slices and maps are scalars: there is nothing to share, and
// calling Clone on a nil receiver is not safe in general.
func classifyDefault[V any](v V) defaultValue[V] {
	rv := reflect.ValueOf(any(v))
	if isNil(rv) {
		return defaultValue[V]{kind: kindScalar, value: v}
	}

	if _, ok := any(v).(Cloner[V]); ok {
		return defaultValue[V]{kind: kindTagged, value: v}
	}

	if _, ok := any(v).(*time.Time); ok {
		return defaultValue[V]{kind: kindTemporal, value: v}
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Chan:
		return defaultValue[V]{kind: kindComposite, value: v}
	}

	return defaultValue[V]{kind: kindScalar, value: v}
}

// duplicate returns a value equal to the template that shares no top-level
// storage with it or with any earlier duplicate.
func (t defaultValue[V]) duplicate() V {
	switch t.kind {
	case kindTagged:
		return any(t.value).(Cloner[V]).Clone()
	case kindTemporal:
		instant := *any(t.value).(*time.Time)
		return any(&instant).(V)
	case kindComposite:
		return shallowCopy(reflect.ValueOf(any(t.value))).Interface().(V)
	default:
		return t.value
	}
}

// shallowCopy copies the top level of a slice, map or pointer. Elements, map
// values and struct fields are assigned, not copied recursively. A pointer to a
// slice, map or channel gets a copy of that value, so the pointee owns its
// storage. A channel is replaced by a new, empty channel of the same type and
// capacity.
func shallowCopy(src reflect.Value) reflect.Value {
	switch src.Kind() {
	case reflect.Slice:
		dst := reflect.MakeSlice(src.Type(), src.Len(), src.Cap())
		reflect.Copy(dst, src)
		return dst
	case reflect.Map:
		dst := reflect.MakeMapWithSize(src.Type(), src.Len())
		for it := src.MapRange(); it.Next(); {
			dst.SetMapIndex(it.Key(), it.Value())
		}
		return dst
	case reflect.Pointer:
		elem := src.Elem()
		dst := reflect.New(elem.Type())
		switch elem.Kind() {
		case reflect.Slice, reflect.Map, reflect.Chan:
			if !elem.IsNil() {
				elem = shallowCopy(elem)
			}
		}
		dst.Elem().Set(elem)
		return dst
	case reflect.Chan:
		bidi := reflect.ChanOf(reflect.BothDir, src.Type().Elem())
		return reflect.MakeChan(bidi, src.Cap()).Convert(src.Type())
	default:
		return src
	}
}

// isNil reports whether rv holds no value or a nil reference.
func isNil(rv reflect.Value) bool {
	if !rv.IsValid() {
		return true
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

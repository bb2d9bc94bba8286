// Package frozen is the immutability runtime behind deep-frozen models:
// a deep freeze over arbitrary values plus the immutable List, Set, Map
// and Record types the freeze produces. Frozen values are hashable and
// structurally comparable; every mutation path fails with a distinct,
// recoverable error rather than affecting other instances.
package frozen

import "reflect"

var emptyStructType = reflect.TypeOf(struct{}{})

// Freeze converts v into its immutable equivalent: slices and arrays
// become Lists, struct{}-valued maps become Sets, other maps become
// Maps, recursing into nested containers. Scalars and already-frozen
// values pass through unchanged.
func Freeze(v any) any {
	switch v.(type) {
	case nil:
		return nil
	case *List, *Set, *Map, *Record:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return ListOf(items...)
	case reflect.Map:
		if rv.Type().Elem() == emptyStructType {
			members := make([]any, 0, rv.Len())
			for _, key := range rv.MapKeys() {
				members = append(members, key.Interface())
			}
			return SetOf(members...)
		}
		pairs := make([]any, 0, rv.Len()*2)
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, iter.Key().Interface(), iter.Value().Interface())
		}
		return MapOf(pairs...)
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		switch rv.Elem().Kind() {
		case reflect.Slice, reflect.Array, reflect.Map:
			return Freeze(rv.Elem().Interface())
		}
	}
	return v
}

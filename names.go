package states

import (
	"reflect"
	"strings"
	"unicode"
)

// typeName renders t with its full package path so that same-named types
// from different packages never collide in derived keys.
func typeName(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	prefix := ""
	for t.Kind() == reflect.Pointer {
		prefix += "*"
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return prefix + t.String()
	}
	return prefix + t.PkgPath() + "." + t.Name()
}

// TypeName returns the name used for C in derived keys and lookup errors.
func TypeName[C any]() string {
	return typeName(reflect.TypeOf((*C)(nil)).Elem())
}

// bindingName turns a restoration key into an identifier usable as an
// expression variable.
func bindingName(key string) string {
	if key == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteRune('_')
			}
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

package dispatch

import (
	"reflect"
	"strconv"
	"strings"
)

// ClassTag names a class. Tags are opaque; no relationship between two tags
// is ever inferred.
type ClassTag string

// DefaultClass is the sentinel tag probed after every other candidate.
const DefaultClass ClassTag = "default"

// ClassVector is an ordered list of class tags, most specific first.
// Duplicates are permitted.
type ClassVector []ClassTag

// Classes builds a ClassVector from plain strings.
func Classes(tags ...string) ClassVector {
	if len(tags) == 0 {
		return nil
	}
	cv := make(ClassVector, len(tags))
	for i, t := range tags {
		cv[i] = ClassTag(t)
	}
	return cv
}

// Clone returns an independent copy of the vector.
func (cv ClassVector) Clone() ClassVector {
	if cv == nil {
		return nil
	}
	out := make(ClassVector, len(cv))
	copy(out, cv)
	return out
}

// Index returns the position of the first occurrence of tag, or -1.
func (cv ClassVector) Index(tag ClassTag) int {
	for i, t := range cv {
		if t == tag {
			return i
		}
	}
	return -1
}

// Contains reports whether tag appears anywhere in the vector.
func (cv ClassVector) Contains(tag ClassTag) bool {
	return cv.Index(tag) >= 0
}

// Strings converts the vector back to plain strings.
func (cv ClassVector) Strings() []string {
	out := make([]string, len(cv))
	for i, t := range cv {
		out[i] = string(t)
	}
	return out
}

// String renders the vector as c("a", "b"), or character(0) when empty.
func (cv ClassVector) String() string {
	if len(cv) == 0 {
		return "character(0)"
	}
	var sb strings.Builder
	sb.WriteString("c(")
	for i, t := range cv {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Quote(string(t)))
	}
	sb.WriteByte(')')
	return sb.String()
}

// ImplicitClassOf derives the implicit class of a Go value from its
// underlying shape. Primitive generics consult it when no tag on the
// receiver's class vector matches.
func ImplicitClassOf(v any) ClassVector {
	rv := reflect.ValueOf(v)

	// Follow pointers to the value they reach. A pointer cycle is classed
	// as a pointer.
	var seen map[uintptr]bool
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return ClassVector{"NULL"}
		}
		if rv.Kind() == reflect.Pointer {
			if seen[rv.Pointer()] {
				return ClassVector{ClassTag(reflect.Pointer.String())}
			}
			if seen == nil {
				seen = make(map[uintptr]bool)
			}
			seen[rv.Pointer()] = true
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ClassVector{"NULL"}
	}

	if k := rv.Kind(); k == reflect.Slice || k == reflect.Array {
		return elementClass(rv.Type().Elem())
	}
	return kindClass(rv.Kind())
}

// elementClass classes a vector by its element type alone. Vectors of atomic
// values keep the element's class; anything else is a list.
func elementClass(elem reflect.Type) ClassVector {
	switch elem.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return ClassVector{"list"}
	}
	return kindClass(elem.Kind())
}

func kindClass(k reflect.Kind) ClassVector {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ClassVector{"integer", "numeric"}
	case reflect.Float32, reflect.Float64:
		return ClassVector{"double", "numeric"}
	case reflect.Complex64, reflect.Complex128:
		return ClassVector{"complex"}
	case reflect.String:
		return ClassVector{"character"}
	case reflect.Bool:
		return ClassVector{"logical"}
	case reflect.Func:
		return ClassVector{"function"}
	case reflect.Map, reflect.Struct:
		return ClassVector{"list"}
	default:
		return ClassVector{ClassTag(k.String())}
	}
}

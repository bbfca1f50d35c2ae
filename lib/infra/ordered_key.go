package infra

import (
	"cmp"
	"reflect"
)

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
// If future releases of Go add new predeclared unsigned integer types,
// this constraint will be modified to include them.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
// If future releases of Go add new predeclared integer types,
// this constraint will be modified to include them.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
// If future releases of Go add new predeclared floating-point types,
// this constraint will be modified to include them.
type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// KeyComparator
// Assume i is the new key.
//  1. i == j (i-j == 0, return 0)
//  2. i > j (i-j > 0, return 1), turn to right part.
//  3. i < j (i-j < 0, return -1), turn to left part.
//
// It must be a strict total order, otherwise the tree
// built upon it loses the BST order.
type KeyComparator[K any] func(i, j K) int64

// OrderedKeyCompare is the default comparator of the ordered keys.
// A NaN is considered less than any non-NaN and equal to another NaN,
// so the float keys are still totally ordered.
func OrderedKeyCompare[K OrderedKey](i, j K) int64 {
	return int64(cmp.Compare(i, j))
}

// ReverseComparator flips the order of the given comparator.
func ReverseComparator[K any](fn KeyComparator[K]) KeyComparator[K] {
	if fn == nil {
		return nil
	}
	return func(i, j K) int64 {
		return fn(j, i)
	}
}

// NilableKey reports whether the K is able to hold a nil value.
// Pointer, interface, map, slice, func and chan keys are nilable.
func NilableKey[K any]() bool {
	typ := reflect.TypeOf((*K)(nil)).Elem()
	switch typ.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
	}
	return false
}

// IsNilKey reports whether the key is an absent (nil) value.
func IsNilKey[K any](key K) bool {
	v := reflect.ValueOf(&key).Elem()
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	default:
	}
	return false
}

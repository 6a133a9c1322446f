// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer builds and reads the optional fields of story and chapter patches,
where nil means "leave unchanged" and a pointer to the zero value means "set to zero".
*/
package pointer

// To returns a pointer to a copy of value.
func To[T any](value T) *T {
	return &value
}

// Fallback dereferences pointer, or returns fallback when it is nil.
func Fallback[T any](pointer *T, fallback T) T {
	if pointer == nil {
		return fallback
	}
	return *pointer
}

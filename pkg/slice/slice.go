// Copyright (c) 2026 Inkwell. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds the generic helpers the services use to shape result sets,
// such as turning chapters into previews or dropping entries a reader may not see.
package slice

// Map applies transform to every element of input. A nil input yields nil.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for index, value := range input {
		result[index] = transform(value)
	}
	return result
}

// Filter returns the elements of input for which keep is true, in order.
// The result is never nil, so it encodes as an empty JSON array.
func Filter[T any](input []T, keep func(T) bool) []T {
	result := make([]T, 0, len(input))
	for _, value := range input {
		if keep(value) {
			result = append(result, value)
		}
	}
	return result
}

package utils

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Formats an uint value into a fixed width binary string of n bits
func FormatUintBinary[T constraints.Unsigned](value T, bits int) string {
	return fmt.Sprintf("%0*b", bits, uint64(value))
}

// Formats an uint value into a fixed width uppercase hex string of n digits, without prefix
func FormatUintHex[T constraints.Unsigned](value T, digits int) string {
	return fmt.Sprintf("%0*X", digits, uint64(value))
}

// Returns an string containing all formatted sequence items separated by a given separator
func FormatSlice[T any](input []T, separator string) string {
	var builder strings.Builder

	for i, value := range input {
		builder.WriteString(fmt.Sprint(value))

		if i < len(input)-1 {
			builder.WriteString(separator)
		}
	}

	return builder.String()
}

// Generates a sequence constructed by applying a function to all elements of a given input sequence
func Map[T any, U any](input []T, mapFunction func(T) U) []U {
	output := make([]U, len(input))

	for i := range input {
		output[i] = mapFunction(input[i])
	}

	return output
}

// Returns an array with all the keys of a map
func Keys[Key comparable, Value any](input map[Key]Value) []Key {
	keys := make([]Key, 0, len(input))

	for key := range input {
		keys = append(keys, key)
	}

	return keys
}

// Returns the biggest item of a non-empty sequence
func Max[T constraints.Ordered](input []T) T {
	max := input[0]

	for _, item := range input {
		if item > max {
			max = item
		}
	}

	return max
}

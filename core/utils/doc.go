// Package utils provides small conversion helpers for loosely typed entity payloads.
//
// Entity data arrives as decoded JSON (map[string]any), so numbers are float64,
// flags may be strings and absent fields are nil. The helpers here normalise those
// values for the engines without each caller repeating the same type switches.
package utils

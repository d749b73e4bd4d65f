// Package uid generates identifiers for persisted records.
package uid

// NumberID generates unique, roughly time-ordered numeric identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

// Package uid generates identifiers: numeric snowflake IDs for stored rows
// and UUID strings for request correlation.
package uid

// NumberID generates unique, time-ordered int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

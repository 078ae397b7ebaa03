// Package validator provides a small validation abstraction for request and
// domain structs.
//
// Business code depends on the Validator interface; V10Validator is the
// go-playground/validator v10 implementation. Field names in errors follow
// the struct's json tags.
package validator

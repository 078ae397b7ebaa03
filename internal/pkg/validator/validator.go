package validator

// Validator validates structs and single values.
type Validator interface {
	// Validate checks every tagged field of data.
	Validate(data any) error
	// Var checks a single value against tag rules, e.g. "required,username".
	Var(field any, tag string) error
}

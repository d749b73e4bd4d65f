package validator

// Validator validates request and domain structs using their struct tags.
type Validator interface {
	// Validate returns nil when data is valid, otherwise an error describing
	// every failing field.
	Validate(data any) error
}

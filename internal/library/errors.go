package library

// ValidationKind labels why an add-book request was rejected.
type ValidationKind string

const (
	KindMissingTitle    ValidationKind = "missing_title"
	KindMissingFile     ValidationKind = "missing_file"
	KindUnsupportedType ValidationKind = "unsupported_type"
)

// ValidationError rejects bad user input before any state changes.
type ValidationError struct {
	Kind ValidationKind
}

func (e *ValidationError) Error() string {
	return "invalid book input: " + string(e.Kind)
}

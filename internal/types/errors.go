package types

import "fmt"

// FormatError reports a raw numeric string that could not be parsed after
// normalization. Local to one field.
type FormatError struct {
	Input string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unparseable numeric value %q", e.Input)
}

// FieldMissingError reports a required label absent from a raw entry.
// Local to one record.
type FieldMissingError struct {
	Symbol string
	Field  string
}

func (e *FieldMissingError) Error() string {
	return fmt.Sprintf("%s: required field %q missing", e.Symbol, e.Field)
}

// DuplicateKeyError reports two batch entries sharing a symbol. Batch-level:
// it invalidates the source's indexing guarantees, so the batch aborts rather
// than silently overwriting the earlier record.
type DuplicateKeyError struct {
	Symbol string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate symbol %s in batch", e.Symbol)
}

// SourceUnavailableError reports an external source that could not supply
// data for a symbol. Isolated to that symbol, never retried here.
type SourceUnavailableError struct {
	Source string
	Symbol string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable for %s: %v", e.Source, e.Symbol, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// InvariantViolationError reports a broken precondition on already-validated
// input, e.g. a non-positive price reaching the valuation engine.
type InvariantViolationError struct {
	Symbol string
	Msg    string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("%s: invariant violated: %s", e.Symbol, e.Msg)
}

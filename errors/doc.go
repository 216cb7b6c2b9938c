// Package errors provides structured error types for the module loader.
//
// Errors are categorized by Phase (where in the load pipeline the error
// occurred) and Kind (error category). The Error type carries a detail
// message, the offending value where useful, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRelocate, errors.KindOutOfBounds).
//		Detail("patch offset %d exceeds image size %d", off, size).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ChecksumMismatch(errors.PhaseValidate, "header", want, got)
//	err := errors.DuplicateSymbol("FOO", 3)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors

package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the load pipeline the error occurred
type Phase string

const (
	PhaseValidate Phase = "validate" // header and image sanity checks
	PhaseAllocate Phase = "allocate" // memory layout and allocation
	PhaseLoad     Phase = "load"     // image copy and BSS fill
	PhaseRelocate Phase = "relocate" // address patching
	PhasePublish  Phase = "publish"  // symbol registry publication
	PhaseInit     Phase = "init"     // module init entry point
	PhaseDiscard  Phase = "discard"  // cold section release
	PhaseUnload   Phase = "unload"   // teardown of a resident module
	PhaseConfig   Phase = "config"   // loader configuration
)

// Kind categorizes the error
type Kind string

const (
	KindBadSignature     Kind = "bad_signature"
	KindBadVersion       Kind = "bad_version"
	KindChecksumMismatch Kind = "checksum_mismatch"
	KindBadLayout        Kind = "bad_layout"
	KindTruncatedImage   Kind = "truncated_image"
	KindOutOfMemory      Kind = "out_of_memory"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindUnknownKind      Kind = "unknown_reloc_kind"
	KindOverlap          Kind = "overlapping_reloc"
	KindDuplicateSymbol  Kind = "duplicate_symbol"
	KindBadSymbolName    Kind = "bad_symbol_name"
	KindInitFailed       Kind = "init_failed"
	KindInvalidState     Kind = "invalid_state"
	KindNotFound         Kind = "not_found"
	KindInvalidInput     Kind = "invalid_input"
)

// Error is the structured error type used throughout the loader
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Symbol string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Symbol != "" {
		b.WriteString(" symbol ")
		b.WriteString(strconvQuote(e.Symbol))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func strconvQuote(s string) string {
	return fmt.Sprintf("%q", s)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is a loader *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind == kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Symbol sets the symbol name involved in the error
func (b *Builder) Symbol(name string) *Builder {
	b.err.Symbol = name
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BadSignature creates a signature mismatch validation error
func BadSignature(got []byte) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindBadSignature,
		Detail: fmt.Sprintf("signature %x does not match expected image signature", got),
		Value:  got,
	}
}

// BadVersion creates a format version validation error
func BadVersion(got uint16) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindBadVersion,
		Detail: fmt.Sprintf("unsupported format version %#04x", got),
		Value:  got,
	}
}

// ChecksumMismatch creates a checksum validation error.
// which names the failing checksum ("header" or "image").
func ChecksumMismatch(phase Phase, which string, want, got uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindChecksumMismatch,
		Detail: fmt.Sprintf("%s checksum %#08x does not match computed %#08x", which, want, got),
	}
}

// BadLayout creates a size-arithmetic validation error
func BadLayout(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindBadLayout,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// TruncatedImage creates an error for a source shorter than the header declares
func TruncatedImage(declared, actual int) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindTruncatedImage,
		Detail: fmt.Sprintf("header declares %d bytes, source yielded %d", declared, actual),
	}
}

// OutOfMemory creates an allocator refusal error
func OutOfMemory(size, align uint32) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindOutOfMemory,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// RelocOutOfBounds creates an out-of-bounds relocation error
func RelocOutOfBounds(index int, patchOffset, width, imageSize uint32) *Error {
	return &Error{
		Phase:  PhaseRelocate,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("entry %d: patch offset %d width %d exceeds image size %d", index, patchOffset, width, imageSize),
		Value:  patchOffset,
	}
}

// UnknownRelocKind creates an unknown relocation kind error
func UnknownRelocKind(index int, kind uint8) *Error {
	return &Error{
		Phase:  PhaseRelocate,
		Kind:   KindUnknownKind,
		Detail: fmt.Sprintf("entry %d: unknown relocation kind %d", index, kind),
		Value:  kind,
	}
}

// DuplicateSymbol creates an atomic-publish rejection error
func DuplicateSymbol(name string, owner uint32) *Error {
	return &Error{
		Phase:  PhasePublish,
		Kind:   KindDuplicateSymbol,
		Symbol: name,
		Detail: fmt.Sprintf("already published by module %d", owner),
	}
}

// InitFailed creates an error for an init entry point reporting failure
func InitFailed(status int32) *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindInitFailed,
		Detail: fmt.Sprintf("module init entry returned status %d", status),
		Value:  status,
	}
}

// InvalidState creates an error for an operation in the wrong lifecycle state
func InvalidState(phase Phase, op, state string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidState,
		Detail: fmt.Sprintf("%s not permitted in state %s", op, state),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with loader phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

package toon

import "fmt"

// EncodeErrorKind classifies encode failures.
type EncodeErrorKind uint8

const (
	// NonRepresentableValue: the tree contains a value with no wire form
	// (NaN or infinite float).
	NonRepresentableValue EncodeErrorKind = iota
	// CyclicInput: the value graph contains a cycle.
	CyclicInput
	// DepthLimitExceeded: the tree is deeper than Config.MaxEncodeDepth.
	DepthLimitExceeded
)

func (k EncodeErrorKind) String() string {
	switch k {
	case NonRepresentableValue:
		return "non-representable value"
	case CyclicInput:
		return "cyclic input"
	case DepthLimitExceeded:
		return "depth limit exceeded"
	default:
		return "unknown"
	}
}

// EncodeError is returned when a tree cannot be encoded. Encoding has no
// partial success: on error no representation is produced.
type EncodeError struct {
	Kind EncodeErrorKind
	Path string // tree path where the failure was detected
	Msg  string
}

func (e *EncodeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("toon: encode: %s at %s: %s", e.Kind, e.Path, e.Msg)
	}
	return fmt.Sprintf("toon: encode: %s at %s", e.Kind, e.Path)
}

func encodeErr(kind EncodeErrorKind, path, format string, args ...any) *EncodeError {
	return &EncodeError{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// DecodeErrorKind classifies decode failures.
type DecodeErrorKind uint8

const (
	// MalformedEnvelope: the representation is not a valid envelope
	// (bad JSON, missing version tag, bad level, malformed sections).
	MalformedEnvelope DecodeErrorKind = iota
	// UnsupportedVersion: the envelope names a format version this
	// implementation does not speak.
	UnsupportedVersion
	// SchemaRowMismatch: a schema row's length disagrees with its
	// descriptor and carries no valid overflow marker.
	SchemaRowMismatch
	// DictionaryIndexOutOfRange: a @dN token points past the dictionary.
	DictionaryIndexOutOfRange
	// DanglingReference: a @rN token points past the reference table.
	DanglingReference
	// DepthOrSizeLimitExceeded: reconstruction blew the depth limit or
	// the expansion budget (decompression-bomb guard).
	DepthOrSizeLimitExceeded
)

func (k DecodeErrorKind) String() string {
	switch k {
	case MalformedEnvelope:
		return "malformed envelope"
	case UnsupportedVersion:
		return "unsupported version"
	case SchemaRowMismatch:
		return "schema row mismatch"
	case DictionaryIndexOutOfRange:
		return "dictionary index out of range"
	case DanglingReference:
		return "dangling reference"
	case DepthOrSizeLimitExceeded:
		return "depth or size limit exceeded"
	default:
		return "unknown"
	}
}

// DecodeError is returned when a representation cannot be decoded. Decoding
// is all-or-nothing: on error no partial tree is returned.
type DecodeError struct {
	Kind DecodeErrorKind
	Msg  string
}

func (e *DecodeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("toon: decode: %s: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("toon: decode: %s", e.Kind)
}

func decodeErr(kind DecodeErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

package extract

import (
	"errors"
	"fmt"
)

// Kind classifies why text could not be extracted.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindUnreadable        Kind = "unreadable"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindCorrupt           Kind = "corrupt"
	KindEncrypted         Kind = "encrypted"
	KindEmpty             Kind = "empty"
)

// ExtractionError is returned for every extraction failure.
type ExtractionError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %s: %s", e.Path, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Reason renders a short human readable explanation for reports.
func (e *ExtractionError) Reason() string {
	switch e.Kind {
	case KindNotFound:
		return "Failed to extract text (file not found)"
	case KindUnreadable:
		return "Failed to extract text (file unreadable)"
	case KindUnsupportedFormat:
		return "Failed to extract text (unsupported format)"
	case KindEncrypted:
		return "Failed to extract text (Encrypted)"
	case KindEmpty:
		return "Failed to extract text (no text content)"
	default:
		return "Failed to extract text (Corrupt)"
	}
}

// IsKind reports whether err is an ExtractionError of the given kind.
func IsKind(err error, kind Kind) bool {
	var extractErr *ExtractionError
	if !errors.As(err, &extractErr) {
		return false
	}
	return extractErr.Kind == kind
}

func newError(path string, kind Kind, err error) *ExtractionError {
	return &ExtractionError{Path: path, Kind: kind, Err: err}
}

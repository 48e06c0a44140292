package dicom

import (
	"errors"
	"fmt"

	"github.com/jpfielding/dicomview.go/pkg/dicom/tag"
)

// Error kinds surfaced by parsing and pixel decoding. All errors returned
// from this package wrap one of these, so callers can branch with errors.Is.
var (
	ErrUnrecognizedFormat        = errors.New("dicom: unrecognized format")
	ErrTruncatedStream           = errors.New("dicom: truncated stream")
	ErrUnsupportedTransferSyntax = errors.New("dicom: unsupported transfer syntax")
	ErrMissingRequiredAttribute  = errors.New("dicom: missing required attribute")
	ErrUnsupportedBitDepth       = errors.New("dicom: unsupported bit depth")
	ErrPixelDataLengthMismatch   = errors.New("dicom: pixel data length mismatch")
)

// ParseError carries the stream position and tag where parsing failed
type ParseError struct {
	Offset int
	Tag    tag.Tag
	Err    error
}

func (e *ParseError) Error() string {
	if e.Tag == (tag.Tag{}) {
		return fmt.Sprintf("parse error at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("parse error at offset %d, tag %s: %v", e.Offset, e.Tag, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AttributeError names the attribute a decode step required but could not use
type AttributeError struct {
	Name string
	Tag  tag.Tag
	Err  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("attribute %s %s: %v", e.Name, e.Tag, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

func missingAttribute(name string, t tag.Tag) error {
	return &AttributeError{Name: name, Tag: t, Err: ErrMissingRequiredAttribute}
}

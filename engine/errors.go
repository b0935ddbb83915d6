package engine

import (
	"errors"
	"strings"
)

// notApplicablePrefix marks viewer-facing rejections of topics that cannot
// be framed as a two-sided debate. Clients key off the prefix to render
// the reason instead of a generic failure.
const notApplicablePrefix = "NOT_APPLICABLE: "

// ValidationError rejects viewer input before any generation cost is
// spent. Its message is safe to show to the viewer.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError wraps a viewer-facing rejection message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// NewNotApplicableError builds the rejection for topics the judge deemed
// unsuitable for debate, carrying the judge's reason.
func NewNotApplicableError(reason string) error {
	return &ValidationError{Message: notApplicablePrefix + reason}
}

// IsValidation reports whether err is a viewer input rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotApplicable reports whether err rejects the topic as unsuitable
// for debate.
func IsNotApplicable(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && strings.HasPrefix(ve.Message, notApplicablePrefix)
}

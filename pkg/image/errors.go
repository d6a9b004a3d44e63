package image

import "fmt"

// ValidationError reports a local image file that failed validation.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid image %s: %s", e.Path, e.Reason)
}

// EncodingError reports an image reference that could not be turned into a
// content block. Err holds the underlying cause, if any.
type EncodingError struct {
	Kind   Kind
	Reason string
	Err    error
}

func (e *EncodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not encode %s image: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("could not encode %s image: %s", e.Kind, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Package envelope assembles multimodal turns and builds the request
// envelope sent to a vision model, moving any system image into the
// conversation since the system slot only carries text.
package envelope

import "fmt"

// MalformedRequestError reports a request whose structure breaks the
// caller contract, such as a system image with no turn to carry it.
type MalformedRequestError struct {
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return fmt.Sprintf("malformed request: %s", e.Reason)
}

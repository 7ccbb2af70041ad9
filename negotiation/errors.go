package negotiation

import (
	"fmt"

	"http-toolkit/http/semantic/status"

	"github.com/pkg/errors"
)

var ErrInvalidHeaderValue = errors.New("invalid header value")

// InvalidHeaderValueError reports a header segment that doesn't follow the Accept grammar.
type InvalidHeaderValueError struct {
	// Header is the raw header text, as it was given.
	Header string
}

func (e *InvalidHeaderValueError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidHeaderValue, e.Header)
}

func (e *InvalidHeaderValueError) Is(target error) bool { return target == ErrInvalidHeaderValue }

// Status is the response status a server should answer with.
func (e *InvalidHeaderValueError) Status() status.Status { return status.NotAcceptable }

func invalidHeaderValue(raw string) error {
	return errors.WithStack(&InvalidHeaderValueError{Header: raw})
}

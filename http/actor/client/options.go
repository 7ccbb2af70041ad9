package client

import (
	"time"

	"http-toolkit/http/coding"
)

type Options struct {
	Accept  AcceptOptions
	Receive ReceiveOptions
	Timeout TimeoutOptions

	ExtraCoders []coding.Coder
}

// AcceptOptions are sent unless the request already carries the header.
type AcceptOptions struct {
	MediaTypes string
	Languages  string
	Charsets   string

	// Encoding advertises every supported content coding and decodes responses.
	Encoding bool
}

type ReceiveOptions struct {
	// StrictContentType rejects successful responses whose media type the request didn't accept.
	// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-12.5.1-14
	StrictContentType bool
}

type TimeoutOptions struct {
	// RequestTimeout covers sending the request and reading the whole response.
	// Zero means no timeout.
	RequestTimeout time.Duration
}

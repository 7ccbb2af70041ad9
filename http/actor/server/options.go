package server

import (
	"http-toolkit/http/coding"
)

type Options struct {
	Negotiate NegotiateOptions

	ExtraCoders []coding.Coder
}

// NegotiateOptions lists the supported values for each kind, in header syntax.
// An empty value leaves that kind out of negotiation.
type NegotiateOptions struct {
	MediaTypes string
	Languages  string
	Charsets   string

	// Encoding negotiates a content coding among gzip, deflate and the extra coders.
	Encoding bool
}

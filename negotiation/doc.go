// Package negotiation implements proactive content negotiation
// over the Accept family of request headers.
//
// Both sides of a negotiation are written in the same grammar:
// what the server supports ("text/html;q=0.7, application/json")
// and what the client accepts ("application/json, */*;q=0.1").
// Every pair is matched, ranked by weight and the best one is returned.
// When nothing matches, a denied catch-all token (quality 0) is returned instead of an error.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc7231#section-5.3
//
// - https://datatracker.ietf.org/doc/html/rfc9110#section-12.5
package negotiation

package negotiation

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/pkg/errors"
)

// exactMatchBonus outweighs any sum of qualities and parameter scores,
// so an exact type/subtype pair always ranks above a wildcard one.
const exactMatchBonus = 100

// Match negotiates between what the server supports and what the client accepts.
// It returns every candidate ordered best-first. Candidates with the same weight
// keep the order of the supported header.
//
// If no pair matches, the result is a single [DeniedToken].
// An invalid segment on either side fails the whole negotiation.
func Match(supported, accepted string) ([]Token, error) {
	accepts, err := ParseHeader(accepted)
	if err != nil {
		return nil, errors.Wrap(err, "parsing accepted header")
	}

	supports, err := ParseHeader(supported)
	if err != nil {
		return nil, errors.Wrap(err, "parsing supported header")
	}

	matches := make([]Token, 0, len(supports)*len(accepts))
	for _, support := range supports {
		for _, accept := range accepts {
			if matched, ok := pairwiseMatch(support, accept); ok {
				matches = append(matches, matched)
			}
		}
	}

	if len(matches) == 0 {
		return []Token{DeniedToken()}, nil
	}

	slices.SortStableFunc(matches, func(a, b Token) int {
		return cmp.Compare(b.weight, a.weight)
	})

	return matches, nil
}

// MatchBest returns the first candidate of [Match].
// Check [Token.IsDenied] on the result to detect "not acceptable".
func MatchBest(supported, accepted string) (Token, error) {
	matches, err := Match(supported, accepted)
	if err != nil {
		return Token{}, err
	}

	return matches[0], nil
}

// pairwiseMatch matches a single supported token against a single accepted one.
// Both are left untouched; the result is a new token.
func pairwiseMatch(support, accept Token) (Token, bool) {
	work := accept.clone()
	typeMatch := support.typ == work.typ

	// Accept only inherits the server's quality when it didn't state its own.
	if work.quality == defaultQuality {
		work.quality = support.quality
	}

	switch {
	case work.catchAll:
		work.typ = support.typ
		work.subtype = support.subtype
		work.separator = support.separator
		work.catchAll = support.catchAll
		return work, true
	case support.quality == 0:
		return support.clone(), true
	case work.quality == 0:
		return work, true
	}

	if !typeMatch && support.typ != wildcard {
		return Token{}, false
	}

	if work.subtype == wildcard {
		work.subtype = support.subtype
		work.separator = support.separator
	}

	if work.subtype != support.subtype && support.subtype != wildcard {
		return Token{}, false
	}

	return rank(support, work), true
}

// rank computes the weight of a matched pair.
//
// Quality is added twice: once unless the server side is a catch-all, once unconditionally.
// Only parameters declared by the server side are scored.
func rank(support, work Token) Token {
	weight := 0.0

	if support.typ == work.typ && support.subtype == work.subtype {
		weight += exactMatchBonus
	}

	if !support.catchAll {
		weight += work.quality
	}

	for key, want := range support.params {
		if got, ok := work.params[key]; ok && got == want {
			weight++
		} else {
			weight--
		}
	}

	weight += work.quality

	work.weight = weight
	return work
}

// Negotiator negotiates one kind of Accept header against a fixed set of supported values.
// It holds no state between calls and is safe for concurrent use.
type Negotiator struct {
	kind      Kind
	supported string

	logger *slog.Logger
}

func New(kind Kind, supported string, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Negotiator{
		kind:      kind,
		supported: supported,
		logger:    logger.With("kind", kind.String()),
	}
}

func (n *Negotiator) Kind() Kind        { return n.kind }
func (n *Negotiator) Supported() string { return n.supported }

// Match negotiates accepted against the supported values.
// Supported values are re-parsed on every call.
func (n *Negotiator) Match(accepted string) ([]Token, error) {
	matches, err := Match(n.supported, accepted)
	if err != nil {
		return nil, errors.Wrapf(err, "negotiating %s", n.kind.Header())
	}

	return matches, nil
}

func (n *Negotiator) Best(accepted string) (Token, error) {
	matches, err := n.Match(accepted)
	if err != nil {
		return Token{}, err
	}

	best := matches[0]
	n.logger.Debug(
		"negotiated",
		"accepted", accepted,
		"value", best.Value(),
		"quality", best.Quality(),
		"candidates", len(matches),
	)

	return best, nil
}

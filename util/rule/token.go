package rule

import (
	"bytes"
	"strings"
)

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if IsAlpha(c) || IsDigit(c) {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

// StripWhitespace removes every whitespace character from s, not only the leading and trailing ones.
func StripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if IsWhitespace(r) {
			return -1
		}
		return r
	}, s)
}

// Unquote unquotes token if it was quoted with double quotes.
// If quoted string includes escaped character, it will be un-escaped.
func Unquote(token []byte) []byte {
	if len(token) < 2 || token[0] != '"' || token[len(token)-1] != '"' {
		return bytes.Clone(token)
	}

	token = token[1 : len(token)-1]

	buf := bytes.NewBuffer(make([]byte, 0, len(token)))
	for idx := 0; idx < len(token); idx++ {
		c := token[idx]
		if c == '\\' && idx+1 < len(token) {
			// Escaped character inside quote. Write the next one as-is.
			idx++
			c = token[idx]
		}
		buf.WriteByte(c)
	}

	return buf.Bytes()
}

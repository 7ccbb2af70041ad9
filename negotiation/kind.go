package negotiation

// Kind is a member of the Accept header family.
type Kind uint8

const (
	KindMediaType Kind = iota
	KindLanguage
	KindCharset
	KindEncoding
)

// Header returns the request header the client states its preferences with.
func (k Kind) Header() string {
	switch k {
	case KindMediaType:
		return "Accept"
	case KindLanguage:
		return "Accept-Language"
	case KindCharset:
		return "Accept-Charset"
	case KindEncoding:
		return "Accept-Encoding"
	}
	return ""
}

// ContentHeader returns the response header describing the chosen representation.
// Charset has no header of its own, it's a parameter of Content-Type.
func (k Kind) ContentHeader() string {
	switch k {
	case KindMediaType, KindCharset:
		return "Content-Type"
	case KindLanguage:
		return "Content-Language"
	case KindEncoding:
		return "Content-Encoding"
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case KindMediaType:
		return "media-type"
	case KindLanguage:
		return "language"
	case KindCharset:
		return "charset"
	case KindEncoding:
		return "encoding"
	}
	return "unknown"
}

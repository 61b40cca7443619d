package substitute

import "strings"

// Placeholder is the parsed content between "{{" and "}}".
type Placeholder struct {
	// Raw is the trimmed text before '|', including any decoration such as
	// quotes or brackets around the key.
	Raw string
	// Key holds only the identifier characters of Raw.
	Key string
	// Fallback is the trimmed text after the first '|', nil when absent.
	Fallback *string
}

// ParsePlaceholder splits inner on the first '|' and extracts the key.
func ParsePlaceholder(inner string) Placeholder {
	raw, fallback, hasFallback := strings.Cut(inner, "|")
	p := Placeholder{Raw: strings.TrimSpace(raw)}
	p.Key = strings.Map(func(c rune) rune {
		if isKeyChar(c) {
			return c
		}
		return -1
	}, p.Raw)
	if hasFallback {
		fb := strings.TrimSpace(fallback)
		p.Fallback = &fb
	}
	return p
}

// Decorate substitutes value for the key inside the raw placeholder text, so
// {{ "url" }} renders as "example.com" with its quotes.
func (p Placeholder) Decorate(value string) string {
	if p.Key == "" || p.Raw == p.Key {
		return value
	}
	return strings.Replace(p.Raw, p.Key, value, 1)
}

func isKeyChar(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}

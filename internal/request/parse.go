package request

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

var (
	// ErrMissingMethod is returned for text without a request line.
	ErrMissingMethod = errors.New("invalid input: HTTP method not found")
	// ErrMissingURL is returned when the request line has no target.
	ErrMissingURL = errors.New("invalid input: URL not found")
)

// Parse reads "METHOD URL [HTTP/x.y]", header lines up to the first blank
// line, and everything after that blank line as a plain body.
func Parse(text string) (*Request, error) {
	head, body, hasBody := cutHead(text)
	lines := strings.Split(head, "\n")

	req, err := parseRequestLine(lines[0])
	if err != nil {
		return nil, err
	}

	for i, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("invalid input: malformed header on line %d: %q", i+2, line)
		}
		req.Header.Add(name, strings.TrimSpace(value))
	}

	if hasBody && strings.TrimSpace(body) != "" {
		req.Body = Plain{Text: body}
	}
	return req, nil
}

// cutHead splits at the first empty line. Line endings are normalized.
func cutHead(text string) (head, body string, found bool) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimLeft(text, "\n")
	if i := strings.Index(text, "\n\n"); i >= 0 {
		return text[:i], text[i+2:], true
	}
	return strings.TrimSuffix(text, "\n"), "", false
}

func parseRequestLine(line string) (*Request, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrMissingMethod
	}
	if len(fields) < 2 {
		return nil, ErrMissingURL
	}
	if len(fields) > 3 || len(fields) == 3 && !strings.HasPrefix(fields[2], "HTTP/") {
		return nil, fmt.Errorf("invalid input: malformed request line %q", line)
	}

	method := fields[0]
	if !validMethod(method) {
		return nil, fmt.Errorf("invalid input: bad method %q", method)
	}

	u, err := url.Parse(fields[1])
	if err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("invalid input: URL %q is not absolute", fields[1])
	}

	return &Request{Method: method, URL: u, Header: make(http.Header)}, nil
}

func validMethod(m string) bool {
	for _, c := range m {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return m != ""
}

func sortedKeys(h http.Header) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

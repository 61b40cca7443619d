// Package output formats requests, responses and timings for the terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
)

// TruncateColumn is the widest line echoed to the terminal.
const TruncateColumn = 92

// Truncate shortens s to TruncateColumn runes, ending it with "...".
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= TruncateColumn {
		return s
	}
	return string(runes[:TruncateColumn-3]) + "..."
}

// Duration renders d with two decimals in the largest fitting unit.
func Duration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

// RequestLines echoes request text line by line with a "> " prefix,
// followed by an empty line.
func RequestLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		lines = append(lines, Truncate("> "+l))
	}
	return append(lines, "")
}

// ResponseLines renders the status line and headers with a "< " prefix,
// followed by an empty line.
func ResponseLines(proto string, status int, header http.Header) []string {
	if proto == "" {
		proto = "HTTP/1.1"
	}
	lines := []string{strings.TrimRight(fmt.Sprintf("< %s %d %s", proto, status, http.StatusText(status)), " ")}

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range header[name] {
			lines = append(lines, Truncate(fmt.Sprintf("< %s: %s", strings.ToLower(name), v)))
		}
	}
	return append(lines, "")
}

// PrettyJSON indents body when it is JSON. ok is false otherwise.
func PrettyJSON(body []byte) (string, bool) {
	if !json.Valid(body) {
		return "", false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

// Body renders a response body: indented JSON when possible, the raw text
// otherwise.
func Body(body []byte) string {
	if s, ok := PrettyJSON(body); ok {
		return s
	}
	return string(body)
}

// Package substitute replaces {{key}} and {{key | fallback}} placeholders in
// request templates.
//
// Substitution is line oriented and stops at the first placeholder that cannot
// be resolved; callers resolve that one key and retry the whole text.
package substitute

import "strings"

const (
	openMarker  = "{{"
	closeMarker = "}}"

	// maxDepth bounds substitution of values that contain placeholders.
	maxDepth = 16
)

// Replacer supplies the text for one placeholder key.
type Replacer interface {
	FindReplacement(key string, fallback *string) (string, error)
}

// Substitute replaces every placeholder in input. Each input line is
// terminated with a newline in the output, including the last one.
func Substitute(input string, r Replacer) (string, error) {
	var out strings.Builder
	for i, line := range splitLines(input) {
		s, err := substituteLine(line, r, 0)
		if err != nil {
			return "", withLine(err, i+1, line)
		}
		out.WriteString(s)
		out.WriteByte('\n')
	}
	return out.String(), nil
}

// splitLines splits like a line reader: a trailing newline does not produce
// an empty last line and "\r\n" endings are accepted.
func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	lines := strings.Split(input, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func substituteLine(line string, r Replacer, depth int) (string, error) {
	var out strings.Builder
	rest := line
	for {
		start := strings.Index(rest, openMarker)
		if start < 0 {
			if strings.Contains(rest, closeMarker) {
				return "", &UnmatchedCloseError{}
			}
			out.WriteString(rest)
			return out.String(), nil
		}
		out.WriteString(rest[:start])
		rest = rest[start:]

		end := strings.Index(rest, closeMarker)
		if end < 0 {
			return "", &UnmatchedOpenError{}
		}

		text, err := substituteInner(rest[len(openMarker):end], r, depth)
		if err != nil {
			return "", err
		}
		out.WriteString(text)
		rest = rest[end+len(closeMarker):]
	}
}

func substituteInner(inner string, r Replacer, depth int) (string, error) {
	p := ParsePlaceholder(inner)

	value, err := r.FindReplacement(p.Key, p.Fallback)
	if err != nil {
		return "", err
	}

	// Values may themselves contain placeholders.
	if strings.Contains(value, openMarker) {
		if depth+1 >= maxDepth {
			return "", &RecursionError{Key: p.Key, Depth: maxDepth}
		}
		value, err = substituteLine(value, r, depth+1)
		if err != nil {
			return "", err
		}
	}

	return p.Decorate(value), nil
}

// withLine attaches position information to syntax errors.
func withLine(err error, n int, text string) error {
	switch e := err.(type) {
	case *UnmatchedOpenError:
		e.Line, e.Text = n, text
	case *UnmatchedCloseError:
		e.Line, e.Text = n, text
	}
	return err
}

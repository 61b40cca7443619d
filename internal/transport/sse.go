package transport

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Event is one server-sent event.
type Event struct {
	// Raw is the event data, multiple data lines joined with "\n".
	Raw string
	// Data is Raw decoded as JSON, or nil when it is not JSON.
	Data any
}

// JSON reports whether the event data was JSON.
func (e Event) JSON() bool { return e.Data != nil }

// ReadEvents reads "data:" lines until a blank line ends each event, and
// calls fn for every event with data. Other fields and comments are
// ignored. An error from fn stops reading.
func ReadEvents(r io.Reader, fn func(Event) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data []string
	flush := func() error {
		if len(data) == 0 {
			return nil
		}
		ev := Event{Raw: strings.Join(data, "\n")}
		data = data[:0]
		var v any
		if err := json.Unmarshal([]byte(ev.Raw), &v); err == nil {
			ev.Data = v
		}
		return fn(ev)
	}

	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = append(data, strings.TrimPrefix(v, " "))
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return flush()
}

// Package request holds the resolved HTTP request model and the parser that
// turns substituted template text into it.
package request

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request is a fully resolved request, ready to be sent.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	// Body is nil when the template has no body section.
	Body Body
}

// Body is the payload of a request.
type Body interface {
	// Payload returns the bytes sent on the wire.
	Payload() ([]byte, error)
}

// Plain is an opaque text body.
type Plain struct {
	Text string
}

// Payload implements Body.
func (b Plain) Payload() ([]byte, error) {
	return []byte(b.Text), nil
}

// GraphQL is a query document with optional variables.
type GraphQL struct {
	Query     string
	Variables map[string]any
}

type graphQLPayload struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Payload implements Body. The variables member is omitted when empty.
func (b GraphQL) Payload() ([]byte, error) {
	data, err := json.Marshal(graphQLPayload{Query: b.Query, Variables: b.Variables})
	if err != nil {
		return nil, fmt.Errorf("encode graphql payload: %w", err)
	}
	return data, nil
}

// String renders the request head followed by the body, as it appears in a
// template file.
func (r *Request) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", r.Method, r.URL)
	for _, name := range sortedKeys(r.Header) {
		for _, v := range r.Header[name] {
			fmt.Fprintf(&sb, "%s: %s\n", name, v)
		}
	}
	if r.Body != nil {
		sb.WriteString("\n")
		if payload, err := r.Body.Payload(); err == nil {
			sb.Write(payload)
		}
	}
	return sb.String()
}

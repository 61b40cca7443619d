// Package execute sends one resolved request and applies its side effects:
// terminal echo, value extraction into the data file and the history entry.
package execute

import (
	"context"
	"fmt"
	"io"

	"hitman/internal/env"
	"hitman/internal/extract"
	"hitman/internal/history"
	"hitman/internal/output"
	"hitman/internal/request"
	"hitman/internal/scope"
	"hitman/internal/transport"

	"go.uber.org/zap"
)

// Executor runs requests for one project root and target.
type Executor struct {
	Client *transport.Client
	Root   string
	Target string
	// History is optional.
	History *history.Store
	// Cookies, when set, is saved after every response.
	Cookies *env.Jar
	Logger  *zap.Logger
	// Out receives the response body. Nil discards it.
	Out io.Writer
}

// Result is what a run produced. Response is nil when sending failed.
type Result struct {
	File      string
	Request   *request.Request
	Response  *transport.Response
	Events    []transport.Event
	Extracted scope.Table
}

// Lines renders the request echo, response head and body as shown in the
// terminal.
func (r *Result) Lines() []string {
	lines := output.RequestLines(r.Request.String())
	if r.Response == nil {
		return lines
	}
	lines = append(lines, output.ResponseLines(r.Response.Proto, r.Response.Status, r.Response.Header)...)
	if len(r.Events) > 0 {
		for _, ev := range r.Events {
			lines = append(lines, eventText(ev))
		}
		return lines
	}
	return append(lines, output.Body(r.Response.Body))
}

func eventText(ev transport.Event) string {
	if s, ok := output.PrettyJSON([]byte(ev.Raw)); ok {
		return s
	}
	return ev.Raw
}

func (e *Executor) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e *Executor) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

// Execute sends req. sc is the scope the request was resolved from; its
// _extract rules are applied to a JSON response and the captured values
// are merged into the data file.
func (e *Executor) Execute(ctx context.Context, file string, sc scope.Scope, req *request.Request) (*Result, error) {
	logger := e.logger()
	out := e.out()
	result := &Result{File: file, Request: req}

	for _, line := range output.RequestLines(req.String()) {
		logger.Info(line)
	}

	res, err := e.Client.Stream(ctx, req, func(ev transport.Event) error {
		result.Events = append(result.Events, ev)
		_, werr := fmt.Fprintln(out, eventText(ev))
		return werr
	})
	result.Response = res
	if err != nil {
		e.record(ctx, result, err)
		return result, err
	}

	if e.Cookies != nil {
		if err := e.Cookies.Save(); err != nil {
			logger.Debug("cookies not persisted", zap.Error(err))
		}
	}

	for _, line := range output.ResponseLines(res.Proto, res.Status, res.Header) {
		logger.Info(line)
	}
	if len(result.Events) == 0 {
		fmt.Fprintln(out, output.Body(res.Body))
	}

	if data, ok := e.document(result); ok {
		vars, err := extract.Extract(data, sc, logger)
		if err != nil {
			e.record(ctx, result, err)
			return result, err
		}
		if len(vars) > 0 {
			if err := env.UpdateData(e.Root, vars); err != nil {
				e.record(ctx, result, err)
				return result, fmt.Errorf("update data file: %w", err)
			}
			result.Extracted = vars
		}
	}

	logger.Warn("# Request completed in " + output.Duration(res.Elapsed))
	e.record(ctx, result, nil)
	return result, nil
}

// document is the JSON value extraction runs on: the body, or the last
// JSON event of a stream.
func (e *Executor) document(r *Result) (any, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].JSON() {
			return r.Events[i].Data, true
		}
	}
	if len(r.Events) > 0 {
		return nil, false
	}
	return r.Response.JSON()
}

func (e *Executor) record(ctx context.Context, r *Result, runErr error) {
	if e.History == nil {
		return
	}
	entry := history.Entry{
		Target: e.Target,
		File:   r.File,
		Method: r.Request.Method,
		URL:    r.Request.URL.String(),
	}
	if r.Response != nil {
		entry.Status = r.Response.Status
		entry.Elapsed = r.Response.Elapsed
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	if _, err := e.History.Record(context.WithoutCancel(ctx), entry); err != nil {
		e.logger().Debug("history not recorded", zap.Error(err))
	}
}

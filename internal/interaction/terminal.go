package interaction

import (
	"context"
	"fmt"
	"io"
	"time"

	"hitman/internal/scope"
	"hitman/internal/widget"
)

// Terminal prompts synchronously with inline widgets.
type Terminal struct {
	styles widget.Styles
	now    func() time.Time
	run    func(ctx context.Context, c widget.Component) (widget.Intent, error)
}

// NewTerminal creates a terminal adapter reading keys from in and drawing
// on out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		styles: widget.DefaultStyles(),
		now:    time.Now,
		run: func(ctx context.Context, c widget.Component) (widget.Intent, error) {
			return widget.Run(ctx, c, in, out)
		},
	}
}

// RequestValue asks with a text prompt. Keys that look like dates get a
// date picker first; skipping it falls back to the text prompt.
func (t *Terminal) RequestValue(ctx context.Context, key string, fallback *string) (string, error) {
	if widget.IsDateKey(key) {
		picker := widget.NewDatePicker("Select a date for "+key, fallback, t.now(), t.styles).WithSkip(true)
		answer, ok, err := t.ask(ctx, picker)
		if err != nil {
			return "", err
		}
		if ok {
			return answer[0], nil
		}
	}

	prompt := widget.NewTextPrompt("Enter value for "+key, fallback, t.styles)
	answer, ok, err := t.ask(ctx, prompt)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrCanceled
	}
	return answer[0], nil
}

// RequestSelection asks with a fuzzy-filterable list.
func (t *Terminal) RequestSelection(ctx context.Context, key string, candidates []scope.Candidate) (string, error) {
	values, err := t.selectCandidates(ctx, key, candidates, false)
	if err != nil {
		return "", err
	}
	return values[0], nil
}

// RequestSelections asks with a list allowing several picks.
func (t *Terminal) RequestSelections(ctx context.Context, key string, candidates []scope.Candidate) ([]string, error) {
	return t.selectCandidates(ctx, key, candidates, true)
}

func (t *Terminal) selectCandidates(ctx context.Context, key string, candidates []scope.Candidate, multiple bool) ([]string, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no values to select for %s", key)
	}
	sel := widget.NewSelect("Select value for "+key, Items(candidates), t.styles).
		WithMultiple(multiple).
		WithPageSize(widget.DefaultPageSize)

	answer, ok, err := t.ask(ctx, sel)
	if err != nil {
		return nil, err
	}
	if !ok || len(answer) == 0 {
		return nil, ErrCanceled
	}
	return answer, nil
}

// ask reports ok=false when the widget was skipped, and ErrCanceled when it
// was aborted.
func (t *Terminal) ask(ctx context.Context, c widget.Component) ([]string, bool, error) {
	intent, err := t.run(ctx, c)
	if err != nil {
		return nil, false, fmt.Errorf("prompt: %w", err)
	}
	switch intent {
	case widget.Accept:
		return c.Answer(), true, nil
	case widget.Skip:
		return nil, false, nil
	default:
		return nil, false, ErrCanceled
	}
}

// Items converts candidates into select items.
func Items(candidates []scope.Candidate) []widget.Item {
	items := make([]widget.Item, len(candidates))
	for i, c := range candidates {
		items[i] = widget.Item{Text: c.Name, Value: c.Value}
	}
	return items
}

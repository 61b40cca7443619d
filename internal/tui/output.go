package tui

import (
	"strings"

	"hitman/internal/execute"
	"hitman/internal/output"
	"hitman/internal/request"
	"hitman/internal/widget"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

// outputView shows a request preview or the last exchange.
type outputView struct {
	viewport viewport.Model
	styles   widget.Styles
	renderer *glamour.TermRenderer
	wrap     int
}

func newOutputView(styles widget.Styles) outputView {
	return outputView{
		viewport: viewport.New(80, 20),
		styles:   styles,
	}
}

func (o *outputView) SetSize(width, height int) {
	o.viewport.Width = width
	o.viewport.Height = height
}

func (o *outputView) ScrollUp()   { o.viewport.HalfViewUp() }
func (o *outputView) ScrollDown() { o.viewport.HalfViewDown() }

func (o *outputView) Reset() {
	o.viewport.SetContent("")
	o.viewport.GotoTop()
}

// ShowPreview shows the raw template text.
func (o *outputView) ShowPreview(text string) {
	o.viewport.SetContent(o.styles.Muted.Render(strings.TrimRight(text, "\n")))
	o.viewport.GotoTop()
}

// ShowRunning shows the request while it is in flight.
func (o *outputView) ShowRunning(req *request.Request) {
	o.viewport.SetContent(o.requestBlock(req))
	o.viewport.GotoTop()
}

// ShowResult shows the request, response head and body. A failure is
// rendered below the request.
func (o *outputView) ShowResult(res *execute.Result, err error) {
	var b strings.Builder
	b.WriteString(o.requestBlock(res.Request))
	b.WriteString("\n")

	if res.Response != nil {
		head := output.ResponseLines(res.Response.Proto, res.Response.Status, res.Response.Header)
		b.WriteString(o.styles.Success.Render(strings.Join(head, "\n")))
		b.WriteString("\n")
		b.WriteString(o.body(res))
	}
	if err != nil {
		b.WriteString("\n")
		b.WriteString(o.styles.Error.Render(err.Error()))
	}

	o.viewport.SetContent(b.String())
	o.viewport.GotoTop()
}

func (o *outputView) requestBlock(req *request.Request) string {
	return o.styles.Selected.Render(strings.Join(output.RequestLines(req.String()), "\n"))
}

func (o *outputView) body(res *execute.Result) string {
	if len(res.Events) > 0 {
		lines := res.Lines()
		head := len(output.RequestLines(res.Request.String())) +
			len(output.ResponseLines(res.Response.Proto, res.Response.Status, res.Response.Header))
		return strings.Join(lines[head:], "\n")
	}

	pretty, ok := output.PrettyJSON(res.Response.Body)
	if !ok {
		return string(res.Response.Body)
	}
	if rendered, err := o.markdown("```json\n" + pretty + "\n```"); err == nil {
		return rendered
	}
	return pretty
}

// markdown renders through glamour, rebuilding the renderer when the width
// changed.
func (o *outputView) markdown(md string) (string, error) {
	width := max(o.viewport.Width-2, 20)
	if o.renderer == nil || o.wrap != width {
		style := "light"
		if o.styles.Theme.IsDark {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		o.renderer = r
		o.wrap = width
	}
	return o.renderer.Render(md)
}

func (o *outputView) View() string {
	return o.viewport.View()
}

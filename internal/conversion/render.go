package conversion

import (
	"bytes"
	"context"
	"html/template"

	"conference-plugins/internal/domain/attachment"
)

var pendingTemplate = template.Must(template.New("pdf_attachment").Parse(
	`<div class="attachment pdf-conversion-pending{{if .TopLevel}} top-level{{end}}" data-attachment-id="{{.ID}}">` +
		`{{if .HasLabel}}<span class="label">PDF</span>{{end}}` +
		`<span class="title">{{.Title}}</span>` +
		`<span class="status">PDF conversion pending</span>` +
		`</div>`))

type pendingView struct {
	ID       string
	Title    string
	TopLevel bool
	HasLabel bool
}

// RenderPending returns the "conversion pending" fragment shown after an
// attachment, or an empty string when there is nothing to show.
func (p *Plugin) RenderPending(ctx context.Context, a *attachment.Attachment, topLevel, hasLabel bool) (template.HTML, error) {
	if !p.IsPending(ctx, a) {
		return "", nil
	}
	var buf bytes.Buffer
	err := pendingTemplate.Execute(&buf, pendingView{
		ID:       a.ID.String(),
		Title:    PDFTitle(a),
		TopLevel: topLevel,
		HasLabel: hasLabel,
	})
	if err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

// Package conversion routes uploaded attachments through an external
// document-to-PDF conversion server.
//
// The hooks cooperate in two phases. While the upload request runs, the
// form hook records the user's choice and the creation hook marks each
// convertible attachment in the request state and on the status cache.
// Only once the transaction that stored the attachment has committed does
// the commit hook enqueue the submission task, so a rolled back upload is
// never sent out.
package conversion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/events"
	"conference-plugins/internal/reqstate"
	"conference-plugins/internal/tasks"
	"conference-plugins/pkg/logger"

	"go.uber.org/zap"
)

const TaskSubmitAttachment = "conversion.submit_attachment"

const queuedNotice = "Your file(s) have been sent to the conversion system. " +
	"The PDF file(s) will be attached automatically once the conversion finished."

// StatusCache is the shared status board keyed by attachment id.
type StatusCache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, task tasks.Task) error
}

// SubmitArgs are the arguments of the submission task.
type SubmitArgs struct {
	AttachmentID string `json:"attachment_id"`
}

type Plugin struct {
	settings Settings
	cache    StatusCache
	queue    Enqueuer
	log      *logger.Logger
	now      func() time.Time
}

func NewPlugin(settings Settings, cache StatusCache, queue Enqueuer, log *logger.Logger) *Plugin {
	return &Plugin{
		settings: NewSettings(settings),
		cache:    cache,
		queue:    queue,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Register connects the hooks to bus.
func (p *Plugin) Register(bus *events.Bus) {
	bus.SubscribeFields(events.FormAddAttachmentFiles, p.AddFormFields)
	bus.Subscribe(events.KindFormValidated, events.Selector{Form: events.FormAddAttachmentFiles}, p.FormValidated)
	bus.Subscribe(events.KindAttachmentCreated, events.Selector{Entity: events.EntityAttachment}, p.AttachmentCreated)
	bus.Subscribe(events.KindModelCommitted, events.Selector{Entity: events.EntityAttachment, Change: events.ChangeInsert}, p.AttachmentCommitted)
}

func (p *Plugin) Settings() Settings {
	return p.settings
}

// AddFormFields contributes the "Convert to PDF" switch.
func (p *Plugin) AddFormFields(ctx context.Context, e events.FormFieldsRequested) []events.Field {
	exts := strings.Join(p.settings.ValidExtensions, ", ")
	return []events.Field{{
		Name:  FieldConvertToPDF,
		Label: "Convert to PDF",
		Description: fmt.Sprintf("If enabled, your files will be converted to PDF if possible. "+
			"The following file types can be converted: %s", exts),
		Widget:  "switch",
		Default: true,
	}}
}

// FormValidated copies the submitted switch into the request state.
func (p *Plugin) FormValidated(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.FormValidated)
	if !ok || ev.Form.Name != events.FormAddAttachmentFiles {
		return nil
	}
	state := reqstate.From(ctx)
	if state == nil {
		return nil
	}
	state.SetConvertToPDF(ev.Form.Bool(FieldConvertToPDF))
	return nil
}

// AttachmentCreated marks a new attachment for conversion when the user
// asked for it and its extension is convertible. Nothing is submitted here.
func (p *Plugin) AttachmentCreated(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.AttachmentCreated)
	if !ok {
		return nil
	}
	state := reqstate.From(ctx)
	if !state.ConvertToPDF() || !ev.Attachment.IsFile() {
		return nil
	}
	a := ev.Attachment
	if !p.settings.Convertible(a.File.Extension()) {
		return nil
	}

	state.MarkForConversion(a.ID)
	if err := p.cache.Set(ctx, a.ID.String(), StatusPending, p.settings.StatusTTL); err != nil {
		// the marker only drives the UI banner
		p.log.Warn(ctx, "failed to set pending conversion marker",
			zap.String("attachment_id", a.ID.String()), zap.Error(err))
	}
	if state.NotifyConversionOnce() {
		state.Flash(queuedNotice)
	}
	return nil
}

// AttachmentCommitted enqueues the submission of an attachment marked
// during this request. It runs only after the insert has committed.
func (p *Plugin) AttachmentCommitted(ctx context.Context, e events.Event) error {
	ev, ok := e.(events.ModelCommitted)
	if !ok || ev.Change != events.ChangeInsert || ev.Attachment == nil {
		return nil
	}
	if !reqstate.From(ctx).MarkedForConversion(ev.Attachment.ID) {
		return nil
	}

	task, err := tasks.NewTask(TaskSubmitAttachment, SubmitArgs{AttachmentID: ev.Attachment.ID.String()})
	if err != nil {
		return err
	}
	if err := p.queue.Enqueue(ctx, task); err != nil {
		p.log.Error(ctx, "failed to enqueue attachment conversion",
			zap.String("attachment_id", ev.Attachment.ID.String()), zap.Error(err))
		return fmt.Errorf("enqueue conversion of %s: %w", ev.Attachment.ID, err)
	}
	p.log.Info(ctx, "attachment queued for conversion",
		zap.String("attachment_id", ev.Attachment.ID.String()), zap.String("task_id", task.ID))
	return nil
}

// IsPending reports whether a banner should be shown for a: a file
// attachment created less than the status TTL ago whose cache entry says
// pending.
func (p *Plugin) IsPending(ctx context.Context, a *attachment.Attachment) bool {
	if !a.IsFile() {
		return false
	}
	if p.now().Sub(a.File.CreatedAt) >= p.settings.StatusTTL {
		return false
	}
	status, ok, err := p.cache.Get(ctx, a.ID.String())
	if err != nil {
		p.log.Warn(ctx, "failed to read conversion marker",
			zap.String("attachment_id", a.ID.String()), zap.Error(err))
		return false
	}
	return ok && status == StatusPending
}

package conversion

import (
	"context"
	"errors"
	"fmt"

	"conference-plugins/internal/domain/attachment"
	plugin_errors "conference-plugins/pkg/errors"
	"conference-plugins/pkg/logger"

	"go.uber.org/zap"
)

// Result is what the conversion server posts back.
type Result struct {
	Token   string
	Status  string
	Content []byte
}

// Finisher attaches converted PDFs next to their source attachment.
type Finisher struct {
	settings Settings
	store    AttachmentStore
	cache    StatusCache
	log      *logger.Logger
}

func NewFinisher(settings Settings, store AttachmentStore, cache StatusCache, log *logger.Logger) *Finisher {
	return &Finisher{
		settings: NewSettings(settings),
		store:    store,
		cache:    cache,
		log:      logger.OrNop(log),
	}
}

// Finish stores the PDF of a successful conversion. It returns the new
// attachment, or nil when the result was ignored.
func (f *Finisher) Finish(ctx context.Context, res Result) (*attachment.Attachment, error) {
	id, err := parseCallback(f.settings.Secret, res.Token)
	if err != nil {
		return nil, err
	}

	source, err := f.store.Get(ctx, id)
	if errors.Is(err, plugin_errors.ErrNotFound) {
		f.log.Warn(ctx, "converted attachment no longer exists", zap.String("attachment_id", id.String()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load attachment %s: %w", id, err)
	}
	if !source.IsFile() {
		return nil, nil
	}
	if res.Status != "1" {
		f.log.Error(ctx, "received invalid conversion status",
			zap.String("attachment_id", id.String()), zap.String("status", res.Status))
		return nil, nil
	}
	if len(res.Content) == 0 {
		return nil, fmt.Errorf("%w: empty pdf content", plugin_errors.ErrInvalidInput)
	}

	pdf, err := f.store.AddDerivedFile(ctx, &source, DerivedFile{
		Title:       PDFTitle(&source),
		Filename:    PDFFilename(&source),
		ContentType: "application/pdf",
		Data:        res.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("attach pdf of %s: %w", id, err)
	}

	if err := f.cache.Set(ctx, id.String(), StatusFinished, finishedTTL); err != nil {
		f.log.Warn(ctx, "failed to set finished conversion marker",
			zap.String("attachment_id", id.String()), zap.Error(err))
	}
	f.log.Info(ctx, "added converted pdf",
		zap.String("attachment_id", id.String()), zap.String("pdf_attachment_id", pdf.ID.String()))
	return &pdf, nil
}

// CheckResult groups attachment ids by their conversion marker.
type CheckResult struct {
	Finished []string `json:"finished"`
	Pending  []string `json:"pending"`
}

// Check reports which of ids are still pending and which finished.
func (f *Finisher) Check(ctx context.Context, ids []string) (CheckResult, error) {
	out := CheckResult{Finished: []string{}, Pending: []string{}}
	for _, id := range ids {
		status, ok, err := f.cache.Get(ctx, id)
		if err != nil {
			return CheckResult{}, err
		}
		if !ok {
			continue
		}
		switch status {
		case StatusFinished:
			out.Finished = append(out.Finished, id)
		case StatusPending:
			out.Pending = append(out.Pending, id)
		}
	}
	return out, nil
}

package conversion

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/tasks"
	plugin_errors "conference-plugins/pkg/errors"
	"conference-plugins/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tokenTTL bounds how long the conversion server may take to call back.
const tokenTTL = 7 * 24 * time.Hour

// AttachmentStore is the host persistence the conversion tasks work with.
type AttachmentStore interface {
	Get(ctx context.Context, id uuid.UUID) (attachment.Attachment, error)
	ReadFile(ctx context.Context, a *attachment.Attachment) ([]byte, error)
	AddDerivedFile(ctx context.Context, source *attachment.Attachment, file DerivedFile) (attachment.Attachment, error)
}

// DerivedFile is a file produced from an existing attachment.
type DerivedFile struct {
	Title       string
	Filename    string
	ContentType string
	Data        []byte
}

// Submitter sends committed attachments to the conversion server. It is the
// handler of TaskSubmitAttachment.
type Submitter struct {
	settings Settings
	store    AttachmentStore
	cache    StatusCache
	http     *http.Client
	log      *logger.Logger
	now      func() time.Time
}

func NewSubmitter(settings Settings, store AttachmentStore, cache StatusCache, log *logger.Logger) *Submitter {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // the conversion host is internal
	return &Submitter{
		settings: NewSettings(settings),
		store:    store,
		cache:    cache,
		http:     &http.Client{Transport: transport, Timeout: settings.RequestTimeout},
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

func (s *Submitter) Handle(ctx context.Context, task tasks.Task) error {
	var args SubmitArgs
	if err := json.Unmarshal(task.Args, &args); err != nil {
		return fmt.Errorf("decode %s args: %w", task.Name, err)
	}
	id, err := uuid.Parse(args.AttachmentID)
	if err != nil {
		return fmt.Errorf("decode %s args: %w", task.Name, err)
	}

	a, err := s.store.Get(ctx, id)
	if errors.Is(err, plugin_errors.ErrNotFound) {
		return tasks.Permanent(fmt.Errorf("load attachment %s: %w", id, err))
	}
	if err != nil {
		return fmt.Errorf("load attachment %s: %w", id, err)
	}
	if !a.IsFile() {
		s.log.Warn(ctx, "skipping conversion of non-file attachment", zap.String("attachment_id", id.String()))
		return nil
	}
	if err := s.Submit(ctx, &a); err != nil {
		s.log.Error(ctx, "could not submit attachment for conversion",
			zap.String("attachment_id", id.String()),
			zap.Int("attempt", task.Retries+1),
			zap.Error(err),
		)
		return err
	}
	s.log.Info(ctx, "submitted attachment for conversion", zap.String("attachment_id", id.String()))
	return nil
}

// OnGiveUp flips the status marker once the task ran out of retries so the
// pending banner disappears.
func (s *Submitter) OnGiveUp(ctx context.Context, task tasks.Task, cause error) {
	var args SubmitArgs
	if err := json.Unmarshal(task.Args, &args); err != nil || args.AttachmentID == "" {
		return
	}
	if err := s.cache.Set(ctx, args.AttachmentID, StatusFailed, s.settings.StatusTTL); err != nil {
		s.log.Warn(ctx, "failed to clear conversion marker",
			zap.String("attachment_id", args.AttachmentID), zap.Error(err))
	}
}

// Submit uploads the file of a to the conversion server.
func (s *Submitter) Submit(ctx context.Context, a *attachment.Attachment) error {
	data, err := s.store.ReadFile(ctx, a)
	if err != nil {
		return fmt.Errorf("read file of %s: %w", a.ID, err)
	}
	token, err := signCallback(s.settings.Secret, a.ID, tokenTTL, s.now())
	if err != nil {
		return fmt.Errorf("sign callback: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := map[string]string{
		"converter":   "pdf",
		"urlresponse": s.settings.CallbackURL,
		"dirresponse": token,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile("uploadedfile", a.File.Filename)
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.settings.ServerURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post to conversion server: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("read conversion server reply: %w", err)
	}
	text := strings.TrimSpace(string(raw))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("conversion server returned status %d: %s", resp.StatusCode, text)
	}
	if !strings.EqualFold(text, "ok") {
		return fmt.Errorf("unexpected response from conversion server: %q", text)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"conference-plugins/internal/conversion"
	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/events"
	"conference-plugins/internal/repository"
	plugin_errors "conference-plugins/pkg/errors"
	"conference-plugins/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const MaxFileSize = 50 << 20

// ObjectStore is where attachment file contents live.
type ObjectStore interface {
	PutObject(ctx context.Context, key, contentType string, body []byte) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// UploadedFile is one file of an upload request.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type UploadInput struct {
	FolderID uuid.UUID
	Form     events.Form
	Files    []UploadedFile
}

type AttachmentService struct {
	db      repository.DBTX
	repo    repository.AttachmentRepository
	storage ObjectStore
	bus     Publisher
	log     *logger.Logger
	now     func() time.Time
}

func NewAttachmentService(db repository.DBTX, repo repository.AttachmentRepository, storage ObjectStore, bus Publisher, log *logger.Logger) *AttachmentService {
	return &AttachmentService{
		db:      db,
		repo:    repo,
		storage: storage,
		bus:     bus,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

// UploadFiles validates the upload form and stores every file as a new
// attachment of the folder in one transaction. Creation events fire inside
// the transaction, commit events only after it committed.
func (s *AttachmentService) UploadFiles(ctx context.Context, input UploadInput) ([]attachment.Attachment, error) {
	if input.FolderID == uuid.Nil || len(input.Files) == 0 {
		return nil, plugin_errors.ErrInvalidInput
	}
	for _, f := range input.Files {
		if strings.TrimSpace(f.Filename) == "" {
			return nil, plugin_errors.ErrInvalidInput
		}
		if len(f.Data) > MaxFileSize {
			return nil, plugin_errors.ErrTooLarge
		}
	}

	input.Form.Name = events.FormAddAttachmentFiles
	if err := s.bus.Publish(ctx, events.FormValidated{Form: input.Form}); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	created := make([]*attachment.Attachment, 0, len(input.Files))
	for _, f := range input.Files {
		a, err := s.storeFile(ctx, input.FolderID, path.Base(f.Filename), f.Filename, f.ContentType, f.Data, now)
		if err != nil {
			s.discardObjects(ctx, created)
			return nil, err
		}
		created = append(created, a)
	}

	if err := s.insert(ctx, created...); err != nil {
		s.discardObjects(ctx, created)
		return nil, err
	}

	out := make([]attachment.Attachment, 0, len(created))
	for _, a := range created {
		out = append(out, *a)
	}
	return out, nil
}

// AddLink stores a link attachment.
func (s *AttachmentService) AddLink(ctx context.Context, folderID uuid.UUID, title, link string) (attachment.Attachment, error) {
	if folderID == uuid.Nil || strings.TrimSpace(link) == "" {
		return attachment.Attachment{}, plugin_errors.ErrInvalidInput
	}
	if title == "" {
		title = link
	}
	a := &attachment.Attachment{
		ID:        uuid.New(),
		FolderID:  folderID,
		Title:     title,
		Type:      attachment.TypeLink,
		Link:      link,
		CreatedAt: s.now().UTC(),
	}
	if err := s.insert(ctx, a); err != nil {
		return attachment.Attachment{}, err
	}
	return *a, nil
}

// AddDerivedFile stores a file produced from source in the same folder.
func (s *AttachmentService) AddDerivedFile(ctx context.Context, source *attachment.Attachment, file conversion.DerivedFile) (attachment.Attachment, error) {
	a, err := s.storeFile(ctx, source.FolderID, file.Title, file.Filename, file.ContentType, file.Data, s.now().UTC())
	if err != nil {
		return attachment.Attachment{}, err
	}
	if err := s.insert(ctx, a); err != nil {
		s.discardObjects(ctx, []*attachment.Attachment{a})
		return attachment.Attachment{}, err
	}
	return *a, nil
}

func (s *AttachmentService) Get(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AttachmentService) List(ctx context.Context, folderID uuid.UUID) ([]attachment.Attachment, error) {
	return s.repo.ListByFolder(ctx, folderID)
}

// ReadFile returns the stored content of a file attachment.
func (s *AttachmentService) ReadFile(ctx context.Context, a *attachment.Attachment) ([]byte, error) {
	if !a.IsFile() || a.File.StorageKey == "" {
		return nil, plugin_errors.ErrNotFound
	}
	return s.storage.GetObject(ctx, a.File.StorageKey)
}

func (s *AttachmentService) storeFile(ctx context.Context, folderID uuid.UUID, title, filename, contentType string, data []byte, now time.Time) (*attachment.Attachment, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	a := &attachment.Attachment{
		ID:        uuid.New(),
		FolderID:  folderID,
		Title:     title,
		Type:      attachment.TypeFile,
		CreatedAt: now,
		File: &attachment.File{
			ID:          uuid.New(),
			Filename:    path.Base(filename),
			ContentType: contentType,
			SizeBytes:   int64(len(data)),
			CreatedAt:   now,
		},
	}
	a.File.StorageKey = buildObjectKey(a)
	if err := s.storage.PutObject(ctx, a.File.StorageKey, contentType, data); err != nil {
		return nil, fmt.Errorf("%w: %v", plugin_errors.ErrServiceUnavailable, err)
	}
	return a, nil
}

func (s *AttachmentService) insert(ctx context.Context, created ...*attachment.Attachment) error {
	return repository.WithTx(ctx, s.db, func(tx *repository.Tx) error {
		for _, a := range created {
			if err := s.repo.Create(ctx, tx, a); err != nil {
				return err
			}
			if err := s.bus.Publish(ctx, events.AttachmentCreated{Attachment: a}); err != nil {
				return err
			}
			committed := a
			tx.OnCommit(func(ctx context.Context) {
				err := s.bus.Publish(ctx, events.ModelCommitted{
					Entity:     events.EntityAttachment,
					Change:     events.ChangeInsert,
					Attachment: committed,
				})
				if err != nil {
					s.log.Error(ctx, "post-commit hook failed",
						zap.String("attachment_id", committed.ID.String()), zap.Error(err))
				}
			})
		}
		return nil
	})
}

// discardObjects removes the stored files of attachments that never made it
// into the database.
func (s *AttachmentService) discardObjects(ctx context.Context, created []*attachment.Attachment) {
	ctx = context.WithoutCancel(ctx)
	for _, a := range created {
		if !a.IsFile() || a.File.StorageKey == "" {
			continue
		}
		if err := s.storage.DeleteObject(ctx, a.File.StorageKey); err != nil {
			s.log.Warn(ctx, "failed to remove orphaned object",
				zap.String("attachment_id", a.ID.String()),
				zap.String("key", a.File.StorageKey),
				zap.Error(err))
		}
	}
}

func buildObjectKey(a *attachment.Attachment) string {
	ext := strings.ToLower(path.Ext(a.File.Filename))
	return fmt.Sprintf("attachments/%s/%s%s", a.FolderID, a.File.ID, ext)
}


package repository

import (
	"context"

	"github.com/google/uuid"

	"conference-plugins/internal/domain/attachment"
)

type AttachmentRepository interface {
	Create(ctx context.Context, tx DBTX, a *attachment.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error)
	ListByFolder(ctx context.Context, folderID uuid.UUID) ([]attachment.Attachment, error)
}

package repository

import (
	"context"
	"database/sql"
	"errors"

	"conference-plugins/internal/domain/attachment"
	plugin_errors "conference-plugins/pkg/errors"

	"github.com/google/uuid"
)

type attachmentRepository struct {
	db DBTX
}

func NewAttachmentRepository(db DBTX) AttachmentRepository {
	return &attachmentRepository{db: db}
}

const attachmentColumns = `
        a.id, a.folder_id, a.title, a.type, a.link, a.created_at,
        f.id, f.filename, f.content_type, f.size_bytes, f.storage_key, f.created_at`

func (r *attachmentRepository) Create(ctx context.Context, tx DBTX, a *attachment.Attachment) error {
	execDB := tx
	if execDB == nil {
		execDB = r.db
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := execDB.ExecContext(ctx, `
        INSERT INTO attachments (id, folder_id, title, type, link, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
    `,
		a.ID,
		a.FolderID,
		a.Title,
		a.Type,
		a.Link,
		a.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return plugin_errors.ErrInvalidInput
		}
		return err
	}
	if a.File == nil {
		return nil
	}
	if a.File.ID == uuid.Nil {
		a.File.ID = uuid.New()
	}
	_, err = execDB.ExecContext(ctx, `
        INSERT INTO attachment_files (id, attachment_id, filename, content_type, size_bytes, storage_key, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
    `,
		a.File.ID,
		a.ID,
		a.File.Filename,
		a.File.ContentType,
		a.File.SizeBytes,
		a.File.StorageKey,
		a.File.CreatedAt,
	)
	return err
}

func (r *attachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT`+attachmentColumns+`
        FROM attachments a
        LEFT JOIN attachment_files f ON f.attachment_id = a.id
        WHERE a.id = $1
    `, id)
	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return attachment.Attachment{}, plugin_errors.ErrNotFound
	}
	return a, err
}

func (r *attachmentRepository) ListByFolder(ctx context.Context, folderID uuid.UUID) ([]attachment.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT`+attachmentColumns+`
        FROM attachments a
        LEFT JOIN attachment_files f ON f.attachment_id = a.id
        WHERE a.folder_id = $1
        ORDER BY a.created_at ASC
    `, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []attachment.Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAttachment(s scanner) (attachment.Attachment, error) {
	var (
		a           attachment.Attachment
		link        sql.NullString
		fileID      uuid.NullUUID
		filename    sql.NullString
		contentType sql.NullString
		size        sql.NullInt64
		storageKey  sql.NullString
		fileCreated sql.NullTime
	)
	if err := s.Scan(
		&a.ID,
		&a.FolderID,
		&a.Title,
		&a.Type,
		&link,
		&a.CreatedAt,
		&fileID,
		&filename,
		&contentType,
		&size,
		&storageKey,
		&fileCreated,
	); err != nil {
		return attachment.Attachment{}, err
	}
	a.Link = link.String
	if fileID.Valid {
		a.File = &attachment.File{
			ID:          fileID.UUID,
			Filename:    filename.String,
			ContentType: contentType.String,
			SizeBytes:   size.Int64,
			StorageKey:  storageKey.String,
			CreatedAt:   fileCreated.Time,
		}
	}
	return a, nil
}

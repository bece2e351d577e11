package repository

import (
	"context"
	"fmt"
)

// InitSchema creates the enum and tables used by the attachment store.
func InitSchema(ctx context.Context, db DBTX) error {
	statements := []string{
		`DO $$ BEGIN
			CREATE TYPE attachment_type AS ENUM ('file', 'link');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id UUID PRIMARY KEY,
			folder_id UUID NOT NULL,
			title TEXT NOT NULL,
			type attachment_type NOT NULL,
			link TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_folder ON attachments (folder_id);`,
		`CREATE TABLE IF NOT EXISTS attachment_files (
			id UUID PRIMARY KEY,
			attachment_id UUID NOT NULL UNIQUE REFERENCES attachments (id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			storage_key TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

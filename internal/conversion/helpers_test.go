package conversion

import (
	"context"
	"sync"
	"time"

	"conference-plugins/internal/domain/attachment"
	"conference-plugins/internal/tasks"
	plugin_errors "conference-plugins/pkg/errors"

	"github.com/google/uuid"
)

type cacheEntry struct {
	value string
	ttl   time.Duration
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	err     error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]cacheEntry)}
}

func (c *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.entries[key] = cacheEntry{value: value, ttl: ttl}
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", false, c.err
	}
	e, ok := c.entries[key]
	return e.value, ok, nil
}

type recordingQueue struct {
	tasks []tasks.Task
	err   error
}

func (q *recordingQueue) Enqueue(ctx context.Context, task tasks.Task) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

type memoryStore struct {
	attachments map[uuid.UUID]attachment.Attachment
	files       map[uuid.UUID][]byte
	derived     []DerivedFile
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		attachments: make(map[uuid.UUID]attachment.Attachment),
		files:       make(map[uuid.UUID][]byte),
	}
}

func (s *memoryStore) add(a attachment.Attachment, data []byte) {
	s.attachments[a.ID] = a
	s.files[a.ID] = data
}

func (s *memoryStore) Get(ctx context.Context, id uuid.UUID) (attachment.Attachment, error) {
	a, ok := s.attachments[id]
	if !ok {
		return attachment.Attachment{}, plugin_errors.ErrNotFound
	}
	return a, nil
}

func (s *memoryStore) ReadFile(ctx context.Context, a *attachment.Attachment) ([]byte, error) {
	data, ok := s.files[a.ID]
	if !ok {
		return nil, plugin_errors.ErrNotFound
	}
	return data, nil
}

func (s *memoryStore) AddDerivedFile(ctx context.Context, source *attachment.Attachment, file DerivedFile) (attachment.Attachment, error) {
	s.derived = append(s.derived, file)
	created := attachment.Attachment{
		ID:       uuid.New(),
		FolderID: source.FolderID,
		Title:    file.Title,
		Type:     attachment.TypeFile,
		File: &attachment.File{
			ID:          uuid.New(),
			Filename:    file.Filename,
			ContentType: file.ContentType,
			SizeBytes:   int64(len(file.Data)),
			CreatedAt:   time.Now(),
		},
	}
	s.add(created, file.Data)
	return created, nil
}

func fileAttachment(filename string, createdAt time.Time) *attachment.Attachment {
	return &attachment.Attachment{
		ID:       uuid.New(),
		FolderID: uuid.New(),
		Title:    filename,
		Type:     attachment.TypeFile,
		File: &attachment.File{
			ID:        uuid.New(),
			Filename:  filename,
			CreatedAt: createdAt,
		},
		CreatedAt: createdAt,
	}
}

func linkAttachment() *attachment.Attachment {
	return &attachment.Attachment{
		ID:    uuid.New(),
		Title: "Agenda",
		Type:  attachment.TypeLink,
		Link:  "https://example.org/slides.pptx",
	}
}

func testSettings() Settings {
	return Settings{
		ServerURL:       "http://conversion.invalid/upload",
		ValidExtensions: []string{"ppt", "PPTX", ".docx", "odp"},
		CallbackURL:     "http://indico.invalid/conversion/finished",
		Secret:          "s3cret",
	}
}

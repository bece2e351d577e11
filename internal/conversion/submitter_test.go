package conversion

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"conference-plugins/internal/tasks"
	plugin_errors "conference-plugins/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type receivedUpload struct {
	converter string
	callback  string
	token     string
	filename  string
	content   string
}

func conversionServer(t *testing.T, reply string, status int) (*httptest.Server, <-chan receivedUpload) {
	t.Helper()
	got := make(chan receivedUpload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("uploadedfile")
		if !assert.NoError(t, err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		got <- receivedUpload{
			converter: r.FormValue("converter"),
			callback:  r.FormValue("urlresponse"),
			token:     r.FormValue("dirresponse"),
			filename:  header.Filename,
			content:   string(data),
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func newTestSubmitter(serverURL string, store AttachmentStore, cache StatusCache) *Submitter {
	settings := testSettings()
	settings.ServerURL = serverURL
	settings.RequestTimeout = 5 * time.Second
	return NewSubmitter(settings, store, cache, nil)
}

func submitTask(t *testing.T, id uuid.UUID) tasks.Task {
	t.Helper()
	task, err := tasks.NewTask(TaskSubmitAttachment, SubmitArgs{AttachmentID: id.String()})
	require.NoError(t, err)
	return task
}

func TestSubmitterUploadsFile(t *testing.T) {
	srv, got := conversionServer(t, "ok", http.StatusOK)
	store := newMemoryStore()
	a := fileAttachment("slides.pptx", time.Now())
	store.add(*a, []byte("pptx-bytes"))
	s := newTestSubmitter(srv.URL, store, newMemoryCache())

	require.NoError(t, s.Handle(context.Background(), submitTask(t, a.ID)))

	upload := <-got
	assert.Equal(t, "pdf", upload.converter)
	assert.Equal(t, "http://indico.invalid/conversion/finished", upload.callback)
	assert.Equal(t, "slides.pptx", upload.filename)
	assert.Equal(t, "pptx-bytes", upload.content)

	id, err := parseCallback("s3cret", upload.token)
	require.NoError(t, err)
	assert.Equal(t, a.ID, id)
}

func TestSubmitterRejectsUnexpectedReply(t *testing.T) {
	cases := []struct {
		name   string
		reply  string
		status int
	}{
		{"error body", "conversion queue full", http.StatusOK},
		{"bad status", "ok", http.StatusBadGateway},
		{"ok inside a word", "broken", http.StatusOK},
		{"negated", "not ok", http.StatusOK},
		{"empty", "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := conversionServer(t, tc.reply, tc.status)
			store := newMemoryStore()
			a := fileAttachment("slides.pptx", time.Now())
			store.add(*a, []byte("x"))
			s := newTestSubmitter(srv.URL, store, newMemoryCache())

			assert.Error(t, s.Handle(context.Background(), submitTask(t, a.ID)))
		})
	}
}

func TestSubmitterAcceptsPlainOK(t *testing.T) {
	for _, reply := range []string{"ok", "ok\n", " OK "} {
		srv, _ := conversionServer(t, reply, http.StatusOK)
		store := newMemoryStore()
		a := fileAttachment("slides.pptx", time.Now())
		store.add(*a, []byte("x"))
		s := newTestSubmitter(srv.URL, store, newMemoryCache())

		assert.NoError(t, s.Handle(context.Background(), submitTask(t, a.ID)), "reply %q", reply)
	}
}

func TestSubmitterMissingAttachment(t *testing.T) {
	s := newTestSubmitter("http://127.0.0.1:0", newMemoryStore(), newMemoryCache())

	err := s.Handle(context.Background(), submitTask(t, uuid.New()))
	assert.True(t, errors.Is(err, plugin_errors.ErrNotFound))
	assert.True(t, tasks.IsPermanent(err), "a deleted attachment is never retried")
}

func TestSubmitterBadArgs(t *testing.T) {
	s := newTestSubmitter("http://127.0.0.1:0", newMemoryStore(), newMemoryCache())

	task, err := tasks.NewTask(TaskSubmitAttachment, map[string]string{"attachment_id": "nope"})
	require.NoError(t, err)
	assert.Error(t, s.Handle(context.Background(), task))
}

func TestSubmitterGiveUpMarksFailed(t *testing.T) {
	cache := newMemoryCache()
	s := newTestSubmitter("http://127.0.0.1:0", newMemoryStore(), cache)
	id := uuid.New()
	require.NoError(t, cache.Set(context.Background(), id.String(), StatusPending, time.Hour))

	s.OnGiveUp(context.Background(), submitTask(t, id), errors.New("unreachable"))

	status, ok, err := cache.Get(context.Background(), id.String())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, StatusFailed, status)
}

func TestSubmitterThroughWorker(t *testing.T) {
	srv, got := conversionServer(t, "ok", http.StatusOK)
	store := newMemoryStore()
	a := fileAttachment("paper.docx", time.Now())
	store.add(*a, []byte("docx"))

	backend := newListBackend()
	queue := tasks.NewQueue(backend, tasks.QueueConfig{Name: "q", DeadLetter: "q:dead"})
	registry := tasks.NewRegistry()
	registry.Register(TaskSubmitAttachment, newTestSubmitter(srv.URL, store, newMemoryCache()))
	worker := tasks.NewWorker(queue, registry, tasks.WorkerConfig{MaxRetries: 1}, nil)

	require.NoError(t, queue.Enqueue(context.Background(), submitTask(t, a.ID)))
	took, err := worker.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, took)
	assert.Equal(t, "paper.docx", (<-got).filename)
}

type listBackend struct {
	lists map[string][][]byte
}

func newListBackend() *listBackend {
	return &listBackend{lists: make(map[string][][]byte)}
}

func (b *listBackend) Push(ctx context.Context, queue string, payload []byte) error {
	b.lists[queue] = append(b.lists[queue], payload)
	return nil
}

func (b *listBackend) Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	items := b.lists[queue]
	if len(items) == 0 {
		return nil, plugin_errors.ErrQueueEmpty
	}
	b.lists[queue] = items[1:]
	return items[0], nil
}

func (b *listBackend) Len(ctx context.Context, queue string) (int64, error) {
	return int64(len(b.lists[queue])), nil
}

func (b *listBackend) TryPop(ctx context.Context, queue string) ([]byte, error) {
	return b.Pop(ctx, queue, 0)
}

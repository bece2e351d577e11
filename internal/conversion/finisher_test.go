package conversion

import (
	"context"
	"errors"
	"testing"
	"time"

	"conference-plugins/internal/domain/attachment"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, id uuid.UUID) string {
	t.Helper()
	token, err := signCallback("s3cret", id, time.Hour, time.Now())
	require.NoError(t, err)
	return token
}

func TestFinishAttachesPDF(t *testing.T) {
	store := newMemoryStore()
	cache := newMemoryCache()
	source := fileAttachment("Slides.pptx", time.Now())
	source.Title = "My talk.pptx"
	store.add(*source, []byte("pptx"))
	f := NewFinisher(testSettings(), store, cache, nil)

	pdf, err := f.Finish(context.Background(), Result{
		Token:   signedToken(t, source.ID),
		Status:  "1",
		Content: []byte("%PDF-1.4"),
	})
	require.NoError(t, err)
	require.NotNil(t, pdf)

	assert.Equal(t, source.FolderID, pdf.FolderID)
	require.Len(t, store.derived, 1)
	assert.Equal(t, DerivedFile{
		Title:       "My talk.pdf",
		Filename:    "Slides.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4"),
	}, store.derived[0])
	assert.Equal(t, cacheEntry{value: StatusFinished, ttl: 15 * time.Minute}, cache.entries[source.ID.String()])
}

func TestFinishIgnoresFailedConversion(t *testing.T) {
	store := newMemoryStore()
	source := fileAttachment("slides.pptx", time.Now())
	store.add(*source, nil)
	f := NewFinisher(testSettings(), store, newMemoryCache(), nil)

	pdf, err := f.Finish(context.Background(), Result{Token: signedToken(t, source.ID), Status: "0"})
	require.NoError(t, err)
	assert.Nil(t, pdf)
	assert.Empty(t, store.derived)
}

func TestFinishUnknownAttachment(t *testing.T) {
	f := NewFinisher(testSettings(), newMemoryStore(), newMemoryCache(), nil)

	pdf, err := f.Finish(context.Background(), Result{Token: signedToken(t, uuid.New()), Status: "1", Content: []byte("x")})
	require.NoError(t, err)
	assert.Nil(t, pdf)
}

func TestFinishRejectsForgedToken(t *testing.T) {
	f := NewFinisher(testSettings(), newMemoryStore(), newMemoryCache(), nil)
	forged, err := signCallback("other-secret", uuid.New(), time.Hour, time.Now())
	require.NoError(t, err)

	for _, token := range []string{"", "garbage", forged} {
		_, err := f.Finish(context.Background(), Result{Token: token, Status: "1"})
		assert.True(t, errors.Is(err, ErrInvalidToken), "token %q", token)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	token, err := signCallback("s3cret", uuid.New(), time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = parseCallback("s3cret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensNeedASecret(t *testing.T) {
	_, err := signCallback("", uuid.New(), time.Hour, time.Now())
	assert.Error(t, err)

	// nothing verifies against an unset secret
	guessed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, callbackClaims{
		AttachmentID:     uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{Audience: jwt.ClaimStrings{tokenAudience}},
	}).SignedString([]byte("change-me"))
	require.NoError(t, err)
	_, err = parseCallback("", guessed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheck(t *testing.T) {
	cache := newMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "a", StatusPending, time.Hour))
	require.NoError(t, cache.Set(ctx, "b", StatusFinished, time.Hour))
	require.NoError(t, cache.Set(ctx, "c", StatusFailed, time.Hour))
	f := NewFinisher(testSettings(), newMemoryStore(), cache, nil)

	res, err := f.Check(ctx, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, CheckResult{Finished: []string{"b"}, Pending: []string{"a"}}, res)

	res, err = f.Check(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, res.Finished)
	assert.Equal(t, []string{}, res.Pending)
}

func TestPDFNames(t *testing.T) {
	cases := []struct {
		title, filename   string
		wantTitle, wantFn string
	}{
		{"slides.pptx", "slides.pptx", "slides.pdf", "slides.pdf"},
		{"Slides.PPTX", "slides.pptx", "Slides.pdf", "slides.pdf"},
		{"Keynote", "keynote.odp", "Keynote", "keynote.pdf"},
		{"v1.2 draft", "draft.v1.2.doc", "v1.2 draft", "draft.v1.2.pdf"},
	}
	for _, tc := range cases {
		a := &attachment.Attachment{Title: tc.title, Type: attachment.TypeFile, File: &attachment.File{Filename: tc.filename}}
		assert.Equal(t, tc.wantTitle, PDFTitle(a), tc.title)
		assert.Equal(t, tc.wantFn, PDFFilename(a), tc.filename)
	}
}

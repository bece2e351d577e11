package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string][]byte
	types   map[string]string
	getErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	f.types[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	delete(f.types, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestClientPutGet(t *testing.T) {
	api := newFakeS3()
	c := NewClientWithAPI(S3Config{Bucket: "b"}, api)
	ctx := context.Background()

	require.NoError(t, c.PutObject(ctx, "attachments/1/slides.pptx", "application/vnd.ms-powerpoint", []byte("data")))
	assert.Equal(t, "application/vnd.ms-powerpoint", api.types["attachments/1/slides.pptx"])

	got, err := c.GetObject(ctx, "attachments/1/slides.pptx")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	_, err = c.GetObject(ctx, "missing")
	assert.Error(t, err)
}

func TestClientDelete(t *testing.T) {
	api := newFakeS3()
	c := NewClientWithAPI(S3Config{Bucket: "b"}, api)
	ctx := context.Background()

	require.NoError(t, c.PutObject(ctx, "attachments/1/a.pptx", "", []byte("a")))
	require.NoError(t, c.DeleteObject(ctx, "attachments/1/a.pptx"))
	assert.Empty(t, api.objects)
	require.NoError(t, c.DeleteObject(ctx, "attachments/1/a.pptx"))
	assert.Error(t, c.DeleteObject(ctx, ""))
}

func TestClientRequiresKey(t *testing.T) {
	c := NewClientWithAPI(S3Config{Bucket: "b"}, newFakeS3())
	assert.Error(t, c.PutObject(context.Background(), "", "", nil))

	var nilClient *Client
	assert.Error(t, nilClient.PutObject(context.Background(), "k", "", nil))
}

func TestFileURL(t *testing.T) {
	c := NewClientWithAPI(S3Config{PublicBase: "https://cdn.example.org"}, newFakeS3())
	assert.Equal(t, "https://cdn.example.org/a/b.pdf", c.FileURL("a/b.pdf"))
	assert.Equal(t, "", NewClientWithAPI(S3Config{}, newFakeS3()).FileURL("a"))
}

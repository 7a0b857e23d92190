package archive

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-form-backend/internal/model"
)

type putCall struct {
	bucket, key string
	body        []byte
	opts        minio.PutObjectOptions
}

type fakeObjectStore struct {
	exists    bool
	existsErr error
	made      []string
	puts      []putCall
	removed   []string
}

func (f *fakeObjectStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	return f.exists, f.existsErr
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	return nil
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.puts = append(f.puts, putCall{bucket: bucket, key: key, body: body, opts: opts})
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (f *fakeObjectStore) RemoveObject(_ context.Context, bucket, key string, _ minio.RemoveObjectOptions) error {
	f.removed = append(f.removed, key)
	return nil
}

func TestNewWithClient_EnsuresBucket(t *testing.T) {
	ctx := context.Background()

	missing := &fakeObjectStore{}
	_, err := NewWithClient(ctx, missing, "forms", "pdf", zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"forms"}, missing.made)

	present := &fakeObjectStore{exists: true}
	_, err = NewWithClient(ctx, present, "forms", "pdf", zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, present.made)

	broken := &fakeObjectStore{existsErr: errors.New("access denied")}
	_, err = NewWithClient(ctx, broken, "forms", "pdf", zerolog.Nop())
	assert.Error(t, err)
}

func TestMinioArchiver_ObjectKey(t *testing.T) {
	a := &MinioArchiver{prefix: "forms"}
	assert.Equal(t, "forms/42.pdf", a.ObjectKey(42))

	a.prefix = ""
	assert.Equal(t, "42.pdf", a.ObjectKey(42))
}

func TestMinioArchiver_ArchiveAndRemove(t *testing.T) {
	ctx := context.Background()
	store := &fakeObjectStore{exists: true}
	a, err := NewWithClient(ctx, store, "forms", "archive", zerolog.Nop())
	require.NoError(t, err)

	form := model.StudentForm{ID: 7, FirstName: "Pop", LastName: "Ana"}
	require.NoError(t, a.Archive(ctx, form, []byte("%PDF-1.3")))

	require.Len(t, store.puts, 1)
	put := store.puts[0]
	assert.Equal(t, "forms", put.bucket)
	assert.Equal(t, "archive/7.pdf", put.key)
	assert.Equal(t, []byte("%PDF-1.3"), put.body)
	assert.Equal(t, "application/pdf", put.opts.ContentType)
	assert.Equal(t, `attachment; filename="fisa-student-Pop-Ana.pdf"`, put.opts.ContentDisposition)

	require.NoError(t, a.Remove(ctx, 7))
	assert.Equal(t, []string{"archive/7.pdf"}, store.removed)
}

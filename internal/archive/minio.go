package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"student-form-backend/config"
	"student-form-backend/internal/model"
	"student-form-backend/internal/render"
)

// ObjectStore is the part of the MinIO client used by the archiver.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// MinioArchiver keeps a copy of every submitted document in an S3 bucket.
type MinioArchiver struct {
	client ObjectStore
	bucket string
	prefix string
	log    zerolog.Logger
}

// New connects to the configured endpoint and makes sure the bucket exists.
func New(ctx context.Context, cfg *config.ArchiveConfig, log zerolog.Logger) (*MinioArchiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return NewWithClient(ctx, client, cfg.Bucket, cfg.Prefix, log)
}

// NewWithClient builds an archiver on an existing client.
func NewWithClient(ctx context.Context, client ObjectStore, bucket, prefix string, log zerolog.Logger) (*MinioArchiver, error) {
	a := &MinioArchiver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		log:    log.With().Str("component", "archive").Logger(),
	}
	if err := a.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *MinioArchiver) ensureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		a.log.Info().Str("bucket", a.bucket).Msg("Bucket already exists")
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	a.log.Info().Str("bucket", a.bucket).Msg("Bucket created")
	return nil
}

// ObjectKey is the object name of the document of form id.
func (a *MinioArchiver) ObjectKey(id int64) string {
	return path.Join(a.prefix, fmt.Sprintf("%d.pdf", id))
}

// Archive uploads the document of form.
func (a *MinioArchiver) Archive(ctx context.Context, form model.StudentForm, pdf []byte) error {
	key := a.ObjectKey(form.ID)
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(pdf), int64(len(pdf)), minio.PutObjectOptions{
		ContentType:        "application/pdf",
		ContentDisposition: render.ContentDisposition(form),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	a.log.Debug().Str("key", key).Int("size", len(pdf)).Msg("Document archived")
	return nil
}

// Remove deletes the archived document of form id. A missing object is not an error.
func (a *MinioArchiver) Remove(ctx context.Context, id int64) error {
	key := a.ObjectKey(id)
	if err := a.client.RemoveObject(ctx, a.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

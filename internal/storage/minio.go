package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/corpdrive/server/internal/config"
	"github.com/corpdrive/server/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const labelMetadataKey = "filename"

type MinIOClient struct {
	client *minio.Client
	bucket string
}

// NewMinIOClient connects to any S3 compatible endpoint. Without an access
// key the client falls back to IAM credentials from the environment.
func NewMinIOClient(cfg config.MinIOConfig) (*MinIOClient, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOClient{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (m *MinIOClient) Put(ctx context.Context, namespace string, r io.Reader, size int64, contentType, label string) (Blob, error) {
	handle := newHandle(namespace)
	reader := newChecksumReader(r)

	info, err := m.client.PutObject(ctx, m.bucket, handle, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{labelMetadataKey: label},
	})
	if err != nil {
		logger.Error("minio_put_failed", err, map[string]interface{}{
			"object_name":  handle,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		return Blob{}, err
	}

	logger.Info("minio_put_success", map[string]interface{}{
		"object_name":  handle,
		"size":         info.Size,
		"content_type": contentType,
		"bucket":       m.bucket,
	})
	return Blob{Handle: handle, Size: info.Size, Checksum: reader.Sum()}, nil
}

func (m *MinIOClient) Open(ctx context.Context, handle string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, handle, minio.GetObjectOptions{})
	if err != nil {
		logger.Error("minio_open_failed", err, map[string]interface{}{
			"object_name": handle,
			"bucket":      m.bucket,
		})
		return nil, err
	}
	// GetObject is lazy; Stat surfaces a missing key before any bytes are sent.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, handle)
		}
		logger.Error("minio_open_stat_failed", err, map[string]interface{}{
			"object_name": handle,
			"bucket":      m.bucket,
		})
		return nil, err
	}
	return obj, nil
}

func (m *MinIOClient) Delete(ctx context.Context, handle string) error {
	err := m.client.RemoveObject(ctx, m.bucket, handle, minio.RemoveObjectOptions{})
	if err != nil {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"object_name": handle,
			"bucket":      m.bucket,
		})
		return err
	}
	logger.Info("minio_delete_success", map[string]interface{}{
		"object_name": handle,
		"bucket":      m.bucket,
	})
	return nil
}

// Rename rewrites the object's label metadata in place with a server-side
// copy onto the same key.
func (m *MinIOClient) Rename(ctx context.Context, handle, label string) error {
	stat, err := m.client.StatObject(ctx, m.bucket, handle, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return fmt.Errorf("%w: %s", ErrBlobNotFound, handle)
		}
		return err
	}

	_, err = m.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          m.bucket,
			Object:          handle,
			ReplaceMetadata: true,
			UserMetadata: map[string]string{
				"Content-Type":   stat.ContentType,
				labelMetadataKey: label,
			},
		},
		minio.CopySrcOptions{Bucket: m.bucket, Object: handle},
	)
	if err != nil {
		logger.Error("minio_rename_failed", err, map[string]interface{}{
			"object_name": handle,
			"label":       label,
			"bucket":      m.bucket,
		})
	}
	return err
}

func (m *MinIOClient) EnsureReady(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

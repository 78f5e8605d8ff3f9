package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/abruzzotech/attesta/internal/config"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Config config.Config
}

type minioStore struct {
	log    *zap.Logger
	client *minio.Client
}

// NewMinio connects to the S3-compatible endpoint from the configuration.
func NewMinio(p Params) (BlobStore, error) {
	client, err := minio.New(p.Config.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(p.Config.StorageAccessKey, p.Config.StorageSecretKey, ""),
		Secure: p.Config.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &minioStore{
		log:    p.Log.Named("storage.minio"),
		client: client,
	}, nil
}

func (s *minioStore) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *minioStore) Upload(ctx context.Context, bucket, object string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, bucket, object,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, object, err)
	}
	return nil
}

func (s *minioStore) Download(ctx context.Context, bucket, object string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, object, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("download %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

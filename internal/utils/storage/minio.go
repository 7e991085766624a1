package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

type Minio struct {
	client   *minio.Client
	bucket   string
	endpoint string
	useSSL   bool
}

// NewMinio connects to the endpoint and creates the bucket when it is missing.
func NewMinio(ctx context.Context, cfg MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.BucketName, err)
		}
		log.Printf("minio bucket %q created", cfg.BucketName)
	}

	return &Minio{
		client:   client,
		bucket:   cfg.BucketName,
		endpoint: cfg.Endpoint,
		useSSL:   cfg.UseSSL,
	}, nil
}

func (m *Minio) UploadFile(ctx context.Context, fileName string, file *multipart.FileHeader, folder string, allowedTypes ...string) (string, error) {
	up, err := prepareUpload(fileName, file, folder, allowedTypes...)
	if err != nil {
		return "", err
	}

	_, err = m.client.PutObject(ctx, m.bucket, up.key, bytes.NewReader(up.data), int64(len(up.data)), minio.PutObjectOptions{
		ContentType: up.contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", up.key, err)
	}
	return up.key, nil
}

func (m *Minio) DeleteFile(ctx context.Context, objectKey string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (m *Minio) GetPublicLinkKey(objectKey string) string {
	return m.linkPrefix() + objectKey
}

func (m *Minio) GetObjectKeyFromLink(link string) string {
	if !strings.HasPrefix(link, m.linkPrefix()) {
		return ""
	}
	return strings.TrimPrefix(link, m.linkPrefix())
}

func (m *Minio) linkPrefix() string {
	scheme := "http"
	if m.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/", scheme, m.endpoint, m.bucket)
}

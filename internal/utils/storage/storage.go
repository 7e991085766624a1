package storage

import (
	"Go-QR-Studio/internal/utils"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	AllowImage = []string{"image/png", "image/jpeg"}

	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrEmptyFile          = errors.New("file is empty")
	ErrUnknownDriver      = errors.New("unknown storage driver")
)

// Storage keeps uploaded files in an object store and hands out public links.
type Storage interface {
	UploadFile(ctx context.Context, fileName string, file *multipart.FileHeader, folder string, allowedTypes ...string) (string, error)
	DeleteFile(ctx context.Context, objectKey string) error
	GetPublicLinkKey(objectKey string) string
	GetObjectKeyFromLink(link string) string
}

// NewStorage picks the backend named by STORAGE_DRIVER. An empty driver
// returns a nil Storage: callers skip uploads.
func NewStorage(ctx context.Context) (Storage, error) {
	switch strings.ToLower(utils.GetConfig("STORAGE_DRIVER")) {
	case "":
		return nil, nil
	case "s3":
		return NewAwsS3(ctx)
	case "minio":
		return NewMinio(ctx, MinioConfig{
			Endpoint:        utils.GetConfig("MINIO_ENDPOINT"),
			AccessKeyID:     utils.GetConfig("MINIO_ACCESS_KEY"),
			SecretAccessKey: utils.GetConfig("MINIO_SECRET_KEY"),
			BucketName:      utils.GetConfig("MINIO_BUCKET"),
			UseSSL:          utils.GetConfig("MINIO_USE_SSL") == "true",
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, utils.GetConfig("STORAGE_DRIVER"))
	}
}

type upload struct {
	key         string
	contentType string
	data        []byte
}

// prepareUpload reads the file, checks its sniffed type against allowedTypes
// and builds the object key folder/fileName.ext.
func prepareUpload(fileName string, file *multipart.FileHeader, folder string, allowedTypes ...string) (*upload, error) {
	if file == nil {
		return nil, ErrEmptyFile
	}
	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	if len(allowedTypes) > 0 && !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, mtype.String())
	}

	return &upload{
		key:         path.Join(folder, fileName+mtype.Extension()),
		contentType: mtype.String(),
		data:        data,
	}, nil
}

package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrStorageUnavailable = errors.New("object storage not configured")

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

const MaxImageSize = 5 << 20

// ImageStore keeps vendor, deal and product images in a MinIO bucket.
// Stored references are object keys; clients get presigned URLs.
type ImageStore struct {
	client *minio.Client
	bucket string
}

func NewImageStore(client *minio.Client, bucket string) *ImageStore {
	return &ImageStore{client: client, bucket: bucket}
}

func (s *ImageStore) Enabled() bool {
	return s != nil && s.client != nil
}

// Upload stores file under prefix/<uuid><ext> and returns the object key.
func (s *ImageStore) Upload(ctx context.Context, prefix string, file *multipart.FileHeader) (string, error) {
	if !s.Enabled() {
		return "", ErrStorageUnavailable
	}
	contentType := file.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return "", errors.Errorf("unsupported image type %q", contentType)
	}
	if file.Size > MaxImageSize {
		return "", errors.Errorf("image exceeds %d bytes", MaxImageSize)
	}

	f, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer f.Close()

	key := path.Join(prefix, uuid.NewString()+ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, f, file.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrap(err, "put object")
	}

	log.Info().Str("bucket", s.bucket).Str("key", key).Msg("🖼️ Image uploaded")
	return key, nil
}

// SignedURL presigns a GET for key. Absolute URLs are returned unchanged.
func (s *ImageStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" || strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key, nil
	}
	if !s.Enabled() {
		return "", ErrStorageUnavailable
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, make(url.Values))
	if err != nil {
		return "", errors.Wrap(err, "presign")
	}
	return u.String(), nil
}

func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrStorageUnavailable
	}
	return errors.Wrap(s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}), "remove object")
}

func ImagePrefix(kind, id string) string {
	return fmt.Sprintf("%s/%s", kind, id)
}

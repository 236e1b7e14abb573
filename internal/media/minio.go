package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/sitehub/internal/observability"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for object URLs. Defaults
	// to the endpoint.
	PublicURL string
	MaxWidth  int
	MaxBytes  int64
}

type MinioUploader struct {
	mc   *minio.Client
	cfg  MinioConfig
	prom *observability.Prom
	now  func() time.Time
}

func NewMinioUploader(cfg MinioConfig, prom *observability.Prom) (*MinioUploader, error) {
	if cfg.Endpoint == "" {
		return nil, ErrUnavailable
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio access key and secret key are required")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "sitehub-media"
	}
	if cfg.PublicURL == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		cfg.PublicURL = scheme + cfg.Endpoint
	}
	cfg.PublicURL = strings.TrimRight(cfg.PublicURL, "/")

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinioUploader{mc: mc, cfg: cfg, prom: prom, now: time.Now}, nil
}

// EnsureBucket creates the bucket if needed and makes its objects publicly readable.
func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.mc.BucketExists(ctx, u.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := u.mc.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		slog.Default().InfoContext(ctx, "media bucket created", "bucket", u.cfg.Bucket)
	}

	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, u.cfg.Bucket)
	if err := u.mc.SetBucketPolicy(ctx, u.cfg.Bucket, policy); err != nil {
		return fmt.Errorf("set bucket policy: %w", err)
	}
	return nil
}

func (u *MinioUploader) Ping(ctx context.Context) error {
	_, err := u.mc.BucketExists(ctx, u.cfg.Bucket)
	return err
}

func (u *MinioUploader) Upload(ctx context.Context, f File) (string, error) {
	if err := Check(f, u.cfg.MaxBytes); err != nil {
		return "", err
	}
	ext, _ := f.Ext()

	data, contentType, err := Normalize(f.Reader, ext, u.cfg.MaxWidth)
	if err != nil {
		u.record("upload", "invalid")
		return "", err
	}

	key := u.objectKey(f.Folder, ext)

	_, err = u.mc.PutObject(ctx, u.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		u.record("upload", "error")
		return "", fmt.Errorf("%w: put %s: %v", ErrUploadFailed, key, err)
	}

	u.record("upload", "ok")
	return u.ObjectURL(key), nil
}

// Delete removes the object behind url. URLs this uploader did not produce
// are ignored.
func (u *MinioUploader) Delete(ctx context.Context, url string) error {
	key, ok := u.KeyFromURL(url)
	if !ok {
		return nil
	}

	if err := u.mc.RemoveObject(ctx, u.cfg.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
		u.record("delete", "error")
		return fmt.Errorf("remove %s: %w", key, err)
	}

	u.record("delete", "ok")
	return nil
}

func (u *MinioUploader) ObjectURL(key string) string {
	return u.cfg.PublicURL + "/" + u.cfg.Bucket + "/" + key
}

func (u *MinioUploader) KeyFromURL(url string) (string, bool) {
	prefix := u.cfg.PublicURL + "/" + u.cfg.Bucket + "/"
	key, ok := strings.CutPrefix(url, prefix)
	if !ok || key == "" || strings.Contains(key, "..") {
		return "", false
	}
	return key, true
}

func (u *MinioUploader) objectKey(folder, ext string) string {
	if folder == "" {
		folder = "misc"
	}
	return folder + "/" + u.now().UTC().Format("2006/01") + "/" + uuid.NewString() + ext
}

func (u *MinioUploader) record(op, result string) {
	if u.prom != nil {
		u.prom.MediaOpsTotal.WithLabelValues(op, result).Inc()
	}
}

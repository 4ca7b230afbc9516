package minio

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/obs/metrics"
	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/storage"
)

// compile-time check that Client satisfies the Storage interface.
var _ storage.Storage = (*Client)(nil)

// Config holds the connection settings for the S3-compatible backend.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Client wraps the MinIO SDK and implements storage.Storage against any
// S3-compatible backend (Storj gateway, MinIO, AWS S3). Calls are single
// attempt; every call is logged before and after, failures at error level.
type Client struct {
	client *minio.Client
	bucket string
	log    logrus.FieldLogger
	rec    *metrics.Metrics
}

// New creates a storage client. rec may be nil.
func New(cfg Config, log logrus.FieldLogger, rec *metrics.Metrics) (*Client, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return &Client{
		client: mc,
		bucket: cfg.Bucket,
		log:    log,
		rec:    rec,
	}, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (c *Client) EnsureBucket(ctx context.Context) error {
	log := c.begin("ensure_bucket", "", "")

	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return c.fail(log, "ensure_bucket", "", "", err)
	}
	if exists {
		c.done(log, "ensure_bucket")
		return nil
	}

	if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return c.fail(log, "ensure_bucket", "", "", err)
	}
	c.done(log, "ensure_bucket")
	return nil
}

// Put streams data from reader directly into the bucket (no buffering to
// disk). Pass size = -1 if content length is unknown.
func (c *Client) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) (*storage.UploadResult, error) {
	log := c.begin("put", key, "")

	info, err := c.client.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: userMetadata,
	})
	if err != nil {
		return nil, c.fail(log, "put", key, "", err)
	}

	c.done(log, "put")
	return &storage.UploadResult{
		Key:       info.Key,
		ETag:      info.ETag,
		Size:      info.Size,
		VersionID: info.VersionID,
	}, nil
}

// Get returns a ReadCloser streaming the current object content.
func (c *Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return c.get(ctx, "get", key, "")
}

// GetVersion returns a ReadCloser streaming one specific object version.
func (c *Client) GetVersion(ctx context.Context, key, versionID string) (io.ReadCloser, error) {
	return c.get(ctx, "get_version", key, versionID)
}

func (c *Client) get(ctx context.Context, op, key, versionID string) (io.ReadCloser, error) {
	log := c.begin(op, key, versionID)

	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{VersionID: versionID})
	if err != nil {
		return nil, c.fail(log, op, key, versionID, err)
	}
	// GetObject defers the request until the first read; stat here so a
	// missing key or version surfaces as an error, not mid-stream.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, c.fail(log, op, key, versionID, err)
	}

	c.done(log, op)
	return obj, nil
}

// Stat returns object metadata. An empty versionID addresses the current
// version.
func (c *Client) Stat(ctx context.Context, key, versionID string) (*storage.ObjectStat, error) {
	log := c.begin("stat", key, versionID)

	info, err := c.client.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{VersionID: versionID})
	if err != nil {
		return nil, c.fail(log, "stat", key, versionID, err)
	}

	c.done(log, "stat")
	return &storage.ObjectStat{
		Key:          info.Key,
		VersionID:    info.VersionID,
		Size:         info.Size,
		ETag:         info.ETag,
		ContentType:  info.ContentType,
		LastModified: info.LastModified,
		UserMetadata: map[string]string(info.UserMetadata),
	}, nil
}

// ListCurrent lists the current objects in the bucket.
func (c *Client) ListCurrent(ctx context.Context) ([]storage.ObjectSummary, error) {
	log := c.begin("list_current", "", "")

	objects := []storage.ObjectSummary{}
	for info := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if info.Err != nil {
			return nil, c.fail(log, "list_current", "", "", info.Err)
		}
		objects = append(objects, storage.ObjectSummary{
			Key:          info.Key,
			Size:         info.Size,
			ETag:         info.ETag,
			LastModified: info.LastModified,
		})
	}

	c.done(log, "list_current")
	return objects, nil
}

// ListAllVersions lists every version and delete marker in the bucket.
func (c *Client) ListAllVersions(ctx context.Context) ([]storage.Version, error) {
	return c.listVersions(ctx, "list_all_versions", "")
}

// ListVersions lists versions and delete markers under the given key prefix,
// in the order the backend returns them.
func (c *Client) ListVersions(ctx context.Context, prefix string) ([]storage.Version, error) {
	return c.listVersions(ctx, "list_versions", prefix)
}

func (c *Client) listVersions(ctx context.Context, op, prefix string) ([]storage.Version, error) {
	log := c.begin(op, prefix, "")

	opts := minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithVersions: true,
	}

	versions := []storage.Version{}
	for info := range c.client.ListObjects(ctx, c.bucket, opts) {
		if info.Err != nil {
			return nil, c.fail(log, op, prefix, "", info.Err)
		}
		versions = append(versions, versionFromInfo(info))
	}

	c.done(log, op)
	return versions, nil
}

// RemoveVersion permanently deletes one specific version of key. Deleting a
// delete marker this way is the backend's native undelete primitive.
func (c *Client) RemoveVersion(ctx context.Context, key, versionID string) (*storage.RemoveResult, error) {
	return c.remove(ctx, "remove_version", key, versionID)
}

// RemoveCurrent deletes the current version of key. On a versioned bucket
// the backend creates a delete marker and reports its version id.
func (c *Client) RemoveCurrent(ctx context.Context, key string) (*storage.RemoveResult, error) {
	return c.remove(ctx, "remove_current", key, "")
}

func (c *Client) remove(ctx context.Context, op, key, versionID string) (*storage.RemoveResult, error) {
	log := c.begin(op, key, versionID)

	objects := make(chan minio.ObjectInfo, 1)
	objects <- minio.ObjectInfo{Key: key, VersionID: versionID}
	close(objects)

	result := &storage.RemoveResult{Key: key, VersionID: versionID}
	for r := range c.client.RemoveObjectsWithResult(ctx, c.bucket, objects, minio.RemoveObjectsOptions{}) {
		if r.Err != nil {
			return nil, c.fail(log, op, key, versionID, r.Err)
		}
		result = &storage.RemoveResult{
			Key:                   r.ObjectName,
			VersionID:             r.ObjectVersionID,
			DeleteMarker:          r.DeleteMarker,
			DeleteMarkerVersionID: r.DeleteMarkerVersionID,
		}
	}

	c.done(log, op)
	return result, nil
}

// VersioningEnabled reports whether the bucket's versioning status is
// exactly "Enabled".
func (c *Client) VersioningEnabled(ctx context.Context) (bool, error) {
	log := c.begin("versioning_status", "", "")

	cfg, err := c.client.GetBucketVersioning(ctx, c.bucket)
	if err != nil {
		return false, c.fail(log, "versioning_status", "", "", err)
	}

	c.done(log, "versioning_status")
	return cfg.Enabled(), nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

func (c *Client) begin(op, key, versionID string) *logrus.Entry {
	fields := logrus.Fields{"op": op, "bucket": c.bucket}
	if key != "" {
		fields["key"] = key
	}
	if versionID != "" {
		fields["version_id"] = versionID
	}
	log := c.log.WithFields(fields)
	log.Debug("storage call")
	return log
}

func (c *Client) done(log *logrus.Entry, op string) {
	log.Debug("storage call done")
	c.rec.StorageOp(op, nil)
}

func (c *Client) fail(log *logrus.Entry, op, key, versionID string, err error) error {
	log.WithError(err).Error("storage call failed")
	c.rec.StorageOp(op, err)
	return &storage.BackendError{
		Op:        op,
		Key:       key,
		VersionID: versionID,
		NotFound:  isNoSuch(err),
		Err:       err,
	}
}

func isNoSuch(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchVersion", "NoSuchBucket":
		return true
	}
	return false
}

func versionFromInfo(info minio.ObjectInfo) storage.Version {
	return storage.Version{
		Key:            info.Key,
		VersionID:      info.VersionID,
		ETag:           info.ETag,
		Size:           info.Size,
		LastModified:   info.LastModified,
		IsLatest:       info.IsLatest,
		IsDeleteMarker: info.IsDeleteMarker,
	}
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

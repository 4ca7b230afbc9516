package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound matches (via errors.Is) any backend error caused by a missing
// bucket, object, or object version.
var ErrNotFound = errors.New("object not found")

// BackendError wraps a failed object-store call with its operation context.
// The underlying SDK error is kept unchanged as the cause.
type BackendError struct {
	Op        string
	Key       string
	VersionID string
	NotFound  bool
	Err       error
}

func (e *BackendError) Error() string {
	switch {
	case e.Key == "":
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	case e.VersionID == "":
		return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
	default:
		return fmt.Sprintf("storage %s %q (version %s): %v", e.Op, e.Key, e.VersionID, e.Err)
	}
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool {
	return target == ErrNotFound && e.NotFound
}

// ObjectSummary describes a current (unversioned) object in the bucket.
type ObjectSummary struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"lastModified"`
}

// Version is one entry in an object's version history. Delete markers occupy
// a version slot like any other entry and are flagged with IsDeleteMarker.
type Version struct {
	Key            string    `json:"key"`
	VersionID      string    `json:"versionId"`
	ETag           string    `json:"etag,omitempty"`
	Size           int64     `json:"size"`
	LastModified   time.Time `json:"lastModified"`
	IsLatest       bool      `json:"isLatest"`
	IsDeleteMarker bool      `json:"isDeleteMarker"`
}

// ObjectStat carries the metadata of one object version.
type ObjectStat struct {
	Key          string            `json:"key"`
	VersionID    string            `json:"versionId,omitempty"`
	Size         int64             `json:"size"`
	ETag         string            `json:"etag"`
	ContentType  string            `json:"contentType"`
	LastModified time.Time         `json:"lastModified"`
	UserMetadata map[string]string `json:"userMetadata,omitempty"`
}

// UploadResult is the backend's response to a put.
type UploadResult struct {
	Key       string `json:"key"`
	ETag      string `json:"etag"`
	Size      int64  `json:"size"`
	VersionID string `json:"versionId,omitempty"`
}

// RemoveResult is the backend's response to a delete. Deleting a current
// object in a versioned bucket creates a delete marker, reported through
// DeleteMarkerVersionID.
type RemoveResult struct {
	Key                   string `json:"key"`
	VersionID             string `json:"versionId,omitempty"`
	DeleteMarker          bool   `json:"deleteMarker"`
	DeleteMarkerVersionID string `json:"deleteMarkerVersionId,omitempty"`
}

// Storage defines an abstraction over versioned object-storage backends
// (Storj / S3 / MinIO). Every call is a single attempt: failures are wrapped
// in *BackendError and returned without retries.
type Storage interface {
	// Put streams the content from reader into the bucket under key.
	// size is the content length (-1 if unknown). userMetadata may be nil.
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) (*UploadResult, error)

	// Get returns a ReadCloser for the current version of key. The caller
	// must close it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// GetVersion returns a ReadCloser for one specific version of key.
	GetVersion(ctx context.Context, key, versionID string) (io.ReadCloser, error)

	// Stat returns the metadata of key. An empty versionID addresses the
	// current version.
	Stat(ctx context.Context, key, versionID string) (*ObjectStat, error)

	// ListCurrent lists the current objects in the bucket.
	ListCurrent(ctx context.Context) ([]ObjectSummary, error)

	// ListAllVersions lists every version and delete marker in the bucket.
	ListAllVersions(ctx context.Context) ([]Version, error)

	// ListVersions lists versions and delete markers whose key starts with
	// prefix, in the order the backend returns them.
	ListVersions(ctx context.Context, prefix string) ([]Version, error)

	// RemoveVersion permanently deletes one specific version of key.
	RemoveVersion(ctx context.Context, key, versionID string) (*RemoveResult, error)

	// RemoveCurrent deletes the current version of key. On a versioned
	// bucket this creates a delete marker.
	RemoveCurrent(ctx context.Context, key string) (*RemoveResult, error)

	// VersioningEnabled reports whether bucket versioning is enabled. Only
	// the exact backend status "Enabled" counts; suspended or absent is
	// false.
	VersioningEnabled(ctx context.Context) (bool, error)

	// EnsureBucket creates the bucket if it does not exist.
	EnsureBucket(ctx context.Context) error
}

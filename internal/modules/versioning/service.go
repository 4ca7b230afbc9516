package versioning

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/storage"
)

// ErrNoDeleteMarker is returned by Undelete when the key has no active
// delete marker to remove. No delete is issued in that case.
var ErrNoDeleteMarker = errors.New("no delete marker found")

type service interface {
	VersioningEnabled(ctx context.Context) (bool, error)
	ListCurrent(ctx context.Context) ([]storage.ObjectSummary, error)
	ListAllVersions(ctx context.Context) ([]storage.Version, error)
	ListVersionsForKey(ctx context.Context, key string) ([]storage.Version, error)
	Open(ctx context.Context, key, versionID string) (io.ReadCloser, *storage.ObjectStat, error)
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) (*storage.UploadResult, error)
	DeleteVersion(ctx context.Context, key, versionID string) (*storage.RemoveResult, error)
	DeleteCurrent(ctx context.Context, key string) (*storage.RemoveResult, error)
	Undelete(ctx context.Context, key string) (*storage.RemoveResult, error)
}

var _ service = (*Service)(nil)

// Service exposes the bucket-versioning operations on top of the storage
// adapter. It holds no state of its own; version records always come fresh
// from the backend.
type Service struct {
	storage storage.Storage
}

func NewService(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) VersioningEnabled(ctx context.Context) (bool, error) {
	return s.storage.VersioningEnabled(ctx)
}

func (s *Service) ListCurrent(ctx context.Context) ([]storage.ObjectSummary, error) {
	objects, err := s.storage.ListCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	return objects, nil
}

func (s *Service) ListAllVersions(ctx context.Context) ([]storage.Version, error) {
	versions, err := s.storage.ListAllVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all versions: %w", err)
	}
	return versions, nil
}

// ListVersionsForKey returns the merged sequence of versions and delete
// markers under key, newest first. Entries with a zero last-modified
// timestamp sort as oldest. Equal timestamps keep the backend's order; that
// order is not a contract.
func (s *Service) ListVersionsForKey(ctx context.Context, key string) ([]storage.Version, error) {
	versions, err := s.storage.ListVersions(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("list versions for %q: %w", key, err)
	}

	sort.SliceStable(versions, func(i, j int) bool {
		return versions[i].LastModified.After(versions[j].LastModified)
	})
	return versions, nil
}

// Open returns the body and metadata of one object version. An empty
// versionID addresses the current version. The caller must close the body.
func (s *Service) Open(ctx context.Context, key, versionID string) (io.ReadCloser, *storage.ObjectStat, error) {
	stat, err := s.storage.Stat(ctx, key, versionID)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %q: %w", key, err)
	}

	var body io.ReadCloser
	if versionID == "" {
		body, err = s.storage.Get(ctx, key)
	} else {
		body, err = s.storage.GetVersion(ctx, key, versionID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get %q: %w", key, err)
	}

	return body, stat, nil
}

func (s *Service) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) (*storage.UploadResult, error) {
	result, err := s.storage.Put(ctx, key, reader, size, contentType, userMetadata)
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", key, err)
	}
	return result, nil
}

func (s *Service) DeleteVersion(ctx context.Context, key, versionID string) (*storage.RemoveResult, error) {
	result, err := s.storage.RemoveVersion(ctx, key, versionID)
	if err != nil {
		return nil, fmt.Errorf("delete version %s of %q: %w", versionID, key, err)
	}
	return result, nil
}

func (s *Service) DeleteCurrent(ctx context.Context, key string) (*storage.RemoveResult, error) {
	result, err := s.storage.RemoveCurrent(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("delete %q: %w", key, err)
	}
	return result, nil
}

// Undelete removes the most recent delete marker of key, exposing the
// previously current version again. Fails with ErrNoDeleteMarker when the
// key has no delete marker; no delete is issued then.
func (s *Service) Undelete(ctx context.Context, key string) (*storage.RemoveResult, error) {
	versions, err := s.ListVersionsForKey(ctx, key)
	if err != nil {
		return nil, err
	}

	// The prefix listing may return neighbours like "a.txt.bak" for key
	// "a.txt"; re-check the key exactly.
	var markers []storage.Version
	for _, v := range versions {
		if v.IsDeleteMarker && v.Key == key {
			markers = append(markers, v)
		}
	}
	if len(markers) == 0 {
		return nil, fmt.Errorf("undelete %q: %w", key, ErrNoDeleteMarker)
	}

	// versions is sorted newest first and the filter keeps that order, so
	// the first marker is the most recent one.
	result, err := s.storage.RemoveVersion(ctx, key, markers[0].VersionID)
	if err != nil {
		return nil, fmt.Errorf("undelete %q: %w", key, err)
	}
	return result, nil
}

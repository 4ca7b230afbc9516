package versioning

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ArulGupta2102/Bucket-Versioning-Endpoints/internal/storage"
)

// stub object store that keeps version records in memory and records every
// delete call, so tests can assert which calls were (not) issued.

type memStore struct {
	versions    []storage.Version
	objects     map[string][]byte
	stats       map[string]*storage.ObjectStat
	enabled     bool
	removeCalls []string
	seq         int
}

var _ storage.Storage = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		objects: map[string][]byte{},
		stats:   map[string]*storage.ObjectStat{},
	}
}

func (m *memStore) addVersion(key, versionID string, at time.Time, deleteMarker bool) {
	m.versions = append(m.versions, storage.Version{
		Key:            key,
		VersionID:      versionID,
		LastModified:   at,
		IsDeleteMarker: deleteMarker,
	})
}

func (m *memStore) Put(_ context.Context, key string, reader io.Reader, size int64, contentType string, userMetadata map[string]string) (*storage.UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.seq++
	versionID := fmt.Sprintf("v-%d", m.seq)
	m.objects[key] = body
	m.stats[key] = &storage.ObjectStat{
		Key:          key,
		VersionID:    versionID,
		Size:         int64(len(body)),
		ContentType:  contentType,
		LastModified: time.Now().UTC(),
		UserMetadata: userMetadata,
	}
	m.addVersion(key, versionID, time.Now().UTC(), false)
	return &storage.UploadResult{Key: key, Size: int64(len(body)), VersionID: versionID}, nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, &storage.BackendError{Op: "get", Key: key, NotFound: true, Err: storage.ErrNotFound}
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *memStore) GetVersion(ctx context.Context, key, versionID string) (io.ReadCloser, error) {
	return m.Get(ctx, key)
}

func (m *memStore) Stat(_ context.Context, key, versionID string) (*storage.ObjectStat, error) {
	stat, ok := m.stats[key]
	if !ok {
		return nil, &storage.BackendError{Op: "stat", Key: key, VersionID: versionID, NotFound: true, Err: storage.ErrNotFound}
	}
	return stat, nil
}

func (m *memStore) ListCurrent(_ context.Context) ([]storage.ObjectSummary, error) {
	summaries := []storage.ObjectSummary{}
	for key, body := range m.objects {
		summaries = append(summaries, storage.ObjectSummary{Key: key, Size: int64(len(body))})
	}
	return summaries, nil
}

func (m *memStore) ListAllVersions(_ context.Context) ([]storage.Version, error) {
	return append([]storage.Version{}, m.versions...), nil
}

func (m *memStore) ListVersions(_ context.Context, prefix string) ([]storage.Version, error) {
	matched := []storage.Version{}
	for _, v := range m.versions {
		if strings.HasPrefix(v.Key, prefix) {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

func (m *memStore) RemoveVersion(_ context.Context, key, versionID string) (*storage.RemoveResult, error) {
	m.removeCalls = append(m.removeCalls, key+"@"+versionID)
	kept := m.versions[:0]
	for _, v := range m.versions {
		if !(v.Key == key && v.VersionID == versionID) {
			kept = append(kept, v)
		}
	}
	m.versions = kept
	return &storage.RemoveResult{Key: key, VersionID: versionID}, nil
}

func (m *memStore) RemoveCurrent(_ context.Context, key string) (*storage.RemoveResult, error) {
	m.removeCalls = append(m.removeCalls, key+"@")
	m.seq++
	markerID := fmt.Sprintf("dm-%d", m.seq)
	m.addVersion(key, markerID, time.Now().UTC(), true)
	delete(m.objects, key)
	delete(m.stats, key)
	return &storage.RemoveResult{Key: key, DeleteMarker: true, DeleteMarkerVersionID: markerID}, nil
}

func (m *memStore) VersioningEnabled(_ context.Context) (bool, error) {
	return m.enabled, nil
}

func (m *memStore) EnsureBucket(_ context.Context) error {
	return nil
}

package versioning

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func TestListVersionsForKeySortedDescending(t *testing.T) {
	store := newMemStore()
	// inserted out of order on purpose
	store.addVersion("a.txt", "v1", at(1), false)
	store.addVersion("a.txt", "dm1", at(3), true)
	store.addVersion("a.txt", "v2", at(2), false)
	store.addVersion("b.txt", "v9", at(9), false)

	svc := NewService(store)
	versions, err := svc.ListVersionsForKey(context.Background(), "a.txt")
	require.NoError(t, err)

	require.Len(t, versions, 3)
	assert.Equal(t, "dm1", versions[0].VersionID)
	assert.Equal(t, "v2", versions[1].VersionID)
	assert.Equal(t, "v1", versions[2].VersionID)
	assert.True(t, versions[0].IsDeleteMarker)
}

func TestListVersionsForKeyZeroTimestampSortsOldest(t *testing.T) {
	store := newMemStore()
	store.addVersion("a.txt", "v0", time.Time{}, false)
	store.addVersion("a.txt", "v1", at(1), false)

	svc := NewService(store)
	versions, err := svc.ListVersionsForKey(context.Background(), "a.txt")
	require.NoError(t, err)

	require.Len(t, versions, 2)
	assert.Equal(t, "v1", versions[0].VersionID)
	assert.Equal(t, "v0", versions[1].VersionID)
}

func TestUndeleteRemovesMostRecentMarker(t *testing.T) {
	store := newMemStore()
	store.addVersion("a.txt", "v1", at(1), false)
	store.addVersion("a.txt", "v2", at(2), false)
	store.addVersion("a.txt", "dm1", at(3), true)

	svc := NewService(store)
	result, err := svc.Undelete(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "dm1", result.VersionID)
	assert.Equal(t, []string{"a.txt@dm1"}, store.removeCalls)

	versions, err := svc.ListVersionsForKey(context.Background(), "a.txt")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "v2", versions[0].VersionID)
	assert.Equal(t, "v1", versions[1].VersionID)

	// no marker left, so a second undelete must fail
	_, err = svc.Undelete(context.Background(), "a.txt")
	assert.ErrorIs(t, err, ErrNoDeleteMarker)
}

func TestUndeletePicksNewestOfSeveralMarkers(t *testing.T) {
	store := newMemStore()
	store.addVersion("a.txt", "dm-old", at(1), true)
	store.addVersion("a.txt", "v1", at(2), false)
	store.addVersion("a.txt", "dm-new", at(3), true)

	svc := NewService(store)
	result, err := svc.Undelete(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "dm-new", result.VersionID)
	assert.Equal(t, []string{"a.txt@dm-new"}, store.removeCalls)
}

func TestUndeleteWithoutMarkersIssuesNoDelete(t *testing.T) {
	store := newMemStore()
	store.addVersion("a.txt", "v1", at(1), false)
	store.addVersion("a.txt", "v2", at(2), false)

	svc := NewService(store)
	_, err := svc.Undelete(context.Background(), "a.txt")
	assert.ErrorIs(t, err, ErrNoDeleteMarker)
	assert.Empty(t, store.removeCalls)
}

func TestUndeleteIgnoresPrefixNeighbours(t *testing.T) {
	store := newMemStore()
	// "a.txt.bak" matches the prefix listing for "a.txt" but is a
	// different object; its marker must not be touched.
	store.addVersion("a.txt", "v1", at(1), false)
	store.addVersion("a.txt.bak", "dm-bak", at(2), true)

	svc := NewService(store)
	_, err := svc.Undelete(context.Background(), "a.txt")
	assert.ErrorIs(t, err, ErrNoDeleteMarker)
	assert.Empty(t, store.removeCalls)
}

func TestDeleteCurrentThenUndeleteRestoresObject(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	_, err := svc.Upload(ctx, "a.txt", strings.NewReader("hello"), 5, "text/plain", nil)
	require.NoError(t, err)

	removed, err := svc.DeleteCurrent(ctx, "a.txt")
	require.NoError(t, err)
	require.NotEmpty(t, removed.DeleteMarkerVersionID)

	result, err := svc.Undelete(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, removed.DeleteMarkerVersionID, result.VersionID)

	versions, err := svc.ListVersionsForKey(ctx, "a.txt")
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.False(t, versions[0].IsDeleteMarker)
}

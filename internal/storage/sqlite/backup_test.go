package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *BackupStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "backup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBackupLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Load(context.Background(), "cfg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBackupSaveLoadNewest(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, "cfg", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "cfg", []byte(`{"v":2}`)))
	require.NoError(t, s.Save(ctx, "other", []byte(`{"v":3}`)))

	v, ok, err := s.Load(ctx, "cfg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"v":2}`, string(v))
}

func TestBackupListAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	require.NoError(t, s.Save(ctx, "cfg", []byte(`{"v":1}`)))
	require.NoError(t, s.Save(ctx, "cfg", []byte(`{"v":22}`)))

	snaps, err := s.List(ctx, "cfg")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Greater(t, snaps[0].ID, snaps[1].ID)
	assert.Equal(t, 8, snaps[0].Size)
	assert.Equal(t, s.SessionID(), snaps[0].SessionID)
	assert.True(t, snaps[0].TakenAt.Equal(base.Add(2*time.Minute)))

	payload, err := s.Get(ctx, snaps[1].ID)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(payload))

	_, err = s.Get(ctx, 9999)
	assert.Error(t, err)
}

func TestBackupPrune(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, "cfg", []byte{'0' + byte(i)}))
	}
	require.NoError(t, s.Save(ctx, "other", []byte("x")))

	n, err := s.Prune(ctx, "cfg", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	snaps, err := s.List(ctx, "cfg")
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	v, _, err := s.Load(ctx, "cfg")
	require.NoError(t, err)
	assert.Equal(t, "4", string(v))

	snaps, err = s.List(ctx, "other")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestBackupSessionIDsDiffer(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	defer a.Close()
	b, err := Open(filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
	"github.com/Aimarl0/keymap-extension/internal/storage"
)

func TestStoreGetSet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "sync.json")

	s, err := Open(path, false)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get(ctx, "keyMapperConfig")
	require.NoError(t, err)
	assert.False(t, ok)

	value := []byte(`{"websites":["a.com"],"mappings":{}}`)
	require.NoError(t, s.Set(ctx, "keyMapperConfig", value))
	require.NoError(t, s.Set(ctx, "other.key", []byte(`42`)))

	got, ok, err := s.Get(ctx, "keyMapperConfig")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, string(value), string(got))

	got, ok, err = s.Get(ctx, "other.key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", string(got))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"keyMapperConfig":{"websites":["a.com"],"mappings":{}},"other.key":42}`, string(data))
}

func TestStorePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync.json")

	s, err := Open(path, false)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte(`[1,2]`)))
	require.NoError(t, s.Close())

	s, err = Open(path, false)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[1,2]", string(got))
}

func TestStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync.json")

	s, err := Open(path, false)
	require.NoError(t, err)
	defer s.Close()
	assert.Error(t, s.Set(ctx, "k", []byte(`{oops`)))

	require.NoError(t, os.WriteFile(path+"2", []byte(`[1]`), 0o644))
	_, err = Open(path+"2", false)
	assert.Error(t, err)
}

func TestStoreLocalNotification(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "sync.json"), false)
	require.NoError(t, err)

	var changes []notify.Change
	s.Subscribe(func(c notify.Change) { changes = append(changes, c) })

	require.NoError(t, s.Set(ctx, "k", []byte(`1`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`2`)))
	// Close drains the delivery queue.
	require.NoError(t, s.Close())

	require.Len(t, changes, 2)
	assert.Equal(t, notify.NamespaceSync, changes[1].Namespace)
	assert.Equal(t, "1", string(changes[1].OldValue))
	assert.Equal(t, "2", string(changes[1].NewValue))
	assert.Equal(t, "local", changes[1].Source)
}

func TestStoreSubscribeKey(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "sync.json"), false)
	require.NoError(t, err)

	var keys []string
	s.SubscribeKey("k", func(c notify.Change) { keys = append(keys, c.Key) })

	require.NoError(t, s.Set(ctx, "other", []byte(`1`)))
	require.NoError(t, s.Set(ctx, "k", []byte(`2`)))
	require.NoError(t, s.Close())

	assert.Equal(t, []string{"k"}, keys)
}

func TestStoreExternalWrite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync.json")

	s, err := Open(path, true, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "keep", []byte(`true`)))
	require.NoError(t, s.Set(ctx, "gone", []byte(`1`)))

	got := make(chan notify.Change, 8)
	s.SubscribeKey("k", func(c notify.Change) {
		if c.Source == "file" {
			got <- c
		}
	})

	require.NoError(t, writeAtomic(path, []byte(`{"keep":true,"k":{"a":1}}`)))

	select {
	case c := <-got:
		assert.Equal(t, notify.ChangeReload, c.Type)
		assert.Empty(t, c.Key)
		assert.JSONEq(t, `{"keep":true,"k":{"a":1}}`, string(c.NewValue))
	case <-time.After(3 * time.Second):
		t.Fatal("external write not observed")
	}

	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(v))
	_, ok, err = s.Get(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreReloadKeepsLocalWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync.json")
	s, err := Open(path, false)
	require.NoError(t, err)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, "k", []byte(strconv.Itoa(i))))
		}()
		go func() {
			defer wg.Done()
			s.reload()
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cached, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, gjson.GetBytes(data, "k").Raw, string(cached))
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "sync.json"), true)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, _, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Set(ctx, "k", []byte(`1`)), storage.ErrClosed)
}

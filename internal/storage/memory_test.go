package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aimarl0/keymap-extension/internal/config/notify"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(notify.NamespaceSync)
	defer m.Close()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", []byte(`{"a":1}`)))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(v))
	assert.Equal(t, 1, m.Sets())
}

func TestMemoryNotifies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(notify.NamespaceSync)
	defer m.Close()

	var changes []notify.Change
	m.Subscribe(func(c notify.Change) { changes = append(changes, c) })

	require.NoError(t, m.Set(ctx, "k", []byte("1")))
	require.NoError(t, m.Set(ctx, "k", []byte("2")))
	require.NoError(t, m.Delete(ctx, "k"))

	require.Len(t, changes, 3)
	assert.Equal(t, notify.NamespaceSync, changes[0].Namespace)
	assert.Nil(t, changes[0].OldValue)
	assert.Equal(t, "1", string(changes[1].OldValue))
	assert.Equal(t, "2", string(changes[1].NewValue))
	assert.Equal(t, notify.ChangeDelete, changes[2].Type)
}

func TestMemoryFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(notify.NamespaceLocal)
	defer m.Close()
	boom := errors.New("boom")

	m.FailGets(boom, 2)
	_, _, err := m.Load(ctx, "k")
	assert.ErrorIs(t, err, boom)
	_, _, err = m.Load(ctx, "k")
	assert.ErrorIs(t, err, boom)
	_, _, err = m.Load(ctx, "k")
	assert.NoError(t, err)

	m.FailSets(boom, -1)
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, m.Save(ctx, "k", []byte("x")), boom)
	}
	m.FailSets(nil, 0)
	assert.NoError(t, m.Save(ctx, "k", []byte("x")))
}

func TestMemoryPublish(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(notify.NamespaceSync)
	defer m.Close()

	var got notify.Change
	m.Subscribe(func(c notify.Change) { got = c })
	m.Publish(notify.Change{Namespace: notify.NamespaceSync, Key: "k", NewValue: []byte("v")})

	assert.Equal(t, "v", string(got.NewValue))
	v, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestMemoryCanceledContext(t *testing.T) {
	m := NewMemory(notify.NamespaceSync)
	defer m.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, m.Set(ctx, "k", nil), context.Canceled)
}

func TestMemorySubscribeKey(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(notify.NamespaceSync)
	defer m.Close()

	var changes []notify.Change
	m.SubscribeKey("k", func(c notify.Change) { changes = append(changes, c) })

	require.NoError(t, m.Set(ctx, "other", []byte("1")))
	require.NoError(t, m.Set(ctx, "k", []byte("2")))
	require.NoError(t, m.Delete(ctx, "k"))

	require.Len(t, changes, 2)
	assert.Equal(t, "k", changes[0].Key)
	assert.Equal(t, "2", string(changes[0].NewValue))
	assert.Equal(t, notify.ChangeDelete, changes[1].Type)
}

package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	id string
}

func TestNewConnectionStore(t *testing.T) {
	s := NewConnectionStore()
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Count())
	assert.Equal(t, 0, s.CountStores())
	assert.Empty(t, s.GetNamedConnections())
	assert.NotNil(t, s.GetNamedConnections())
}

func TestAddAndGetNamedConnection(t *testing.T) {
	s := NewConnectionStore()
	c := &fakeClient{id: "a"}

	stored, err := s.AddNamedConnection("mongo", "main", c)
	require.NoError(t, err)
	assert.Same(t, c, stored)

	got, err := s.GetNamedConnection("mongo", "main")
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 1, s.CountStore("mongo"))
}

func TestAddNamedConnectionOverwrites(t *testing.T) {
	s := NewConnectionStore()
	c1 := &fakeClient{id: "1"}
	c2 := &fakeClient{id: "2"}

	_, err := s.AddNamedConnection("mongo", "main", c1)
	require.NoError(t, err)
	_, err = s.AddNamedConnection("mongo", "other", &fakeClient{id: "o"})
	require.NoError(t, err)
	_, err = s.AddNamedConnection("mongo", "main", c2)
	require.NoError(t, err)

	got, err := s.GetNamedConnection("mongo", "main")
	require.NoError(t, err)
	assert.Same(t, c2, got)

	// Overwrite keeps the original position.
	list := s.GetStoreNamedConnections("mongo")
	require.Len(t, list, 2)
	assert.Equal(t, "main", list[0].ConnectionName)
	assert.Equal(t, "other", list[1].ConnectionName)
}

func TestAddNamedConnectionInvalidArguments(t *testing.T) {
	var nilClient *fakeClient

	tests := []struct {
		name       string
		store      string
		connection string
		conn       any
	}{
		{"empty store", "", "main", &fakeClient{}},
		{"empty name", "mongo", "", &fakeClient{}},
		{"nil connection", "mongo", "main", nil},
		{"typed nil connection", "mongo", "main", nilClient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewConnectionStore()
			_, err := s.AddNamedConnection(tt.store, tt.connection, tt.conn)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument))
			assert.Equal(t, 0, s.Count())
		})
	}
}

func TestGetNamedConnectionMissing(t *testing.T) {
	s := NewConnectionStore()

	got, err := s.GetNamedConnection("mongo", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.AddNamedConnection("mongo", "main", &fakeClient{})
	require.NoError(t, err)

	got, err = s.GetNamedConnection("mongo", "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.GetNamedConnection("", "main")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.GetNamedConnection("mongo", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAddNamedConnectionsRoundTrip(t *testing.T) {
	s := NewConnectionStore()
	input := []NamedConnection{
		{StoreName: "mongo", ConnectionName: "a", Connection: &fakeClient{id: "a"}},
		{StoreName: "postgres", ConnectionName: "b", Connection: &fakeClient{id: "b"}},
		{StoreName: "mongo", ConnectionName: "c", Connection: &fakeClient{id: "c"}},
	}

	added, err := s.AddNamedConnections(input)
	require.NoError(t, err)
	assert.Equal(t, input, added)

	all := s.GetNamedConnections()
	require.Len(t, all, 3)
	// Grouped by store in store insertion order.
	assert.Equal(t, "mongo", all[0].StoreName)
	assert.Equal(t, "a", all[0].ConnectionName)
	assert.Equal(t, "mongo", all[1].StoreName)
	assert.Equal(t, "c", all[1].ConnectionName)
	assert.Equal(t, "postgres", all[2].StoreName)
	assert.Equal(t, []string{"mongo", "postgres"}, s.ListStores())
}

func TestAddNamedConnectionsPartialApplication(t *testing.T) {
	s := NewConnectionStore()
	input := []NamedConnection{
		{StoreName: "mongo", ConnectionName: "a", Connection: &fakeClient{}},
		{StoreName: "mongo", ConnectionName: "", Connection: &fakeClient{}},
		{StoreName: "mongo", ConnectionName: "c", Connection: &fakeClient{}},
	}

	_, err := s.AddNamedConnections(input)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Entries before the invalid one stay applied.
	assert.Equal(t, 1, s.Count())
	got, err := s.GetNamedConnection("mongo", "a")
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = s.AddNamedConnections(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	added, err := s.AddNamedConnections([]NamedConnection{})
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestGetStoreNamedConnectionsUnknownStore(t *testing.T) {
	s := NewConnectionStore()
	list := s.GetStoreNamedConnections("nonexistent")
	require.NotNil(t, list)
	assert.Empty(t, list)
}

func TestRemoveNamedConnection(t *testing.T) {
	s := NewConnectionStore()
	c := &fakeClient{id: "a"}
	_, err := s.AddNamedConnection("mongo", "main", c)
	require.NoError(t, err)

	removed, err := s.RemoveNamedConnection("mongo", "main")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "mongo", removed.StoreName)
	assert.Equal(t, "main", removed.ConnectionName)
	assert.Same(t, c, removed.Connection)

	got, err := s.GetNamedConnection("mongo", "main")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Empty buckets are dropped.
	assert.Equal(t, 0, s.CountStores())

	// Removing again is a no-op.
	removed, err = s.RemoveNamedConnection("mongo", "main")
	require.NoError(t, err)
	assert.Nil(t, removed)

	_, err = s.RemoveNamedConnection("", "main")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.RemoveNamedConnection("mongo", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestRemoveNamedConnections(t *testing.T) {
	s := NewConnectionStore()
	_, err := s.AddNamedConnections([]NamedConnection{
		{StoreName: "mongo", ConnectionName: "x", Connection: &fakeClient{id: "x"}},
		{StoreName: "mongo", ConnectionName: "y", Connection: &fakeClient{id: "y"}},
		{StoreName: "mongo", ConnectionName: "z", Connection: &fakeClient{id: "z"}},
	})
	require.NoError(t, err)

	removed, err := s.RemoveNamedConnections([]NamedConnection{
		{StoreName: "mongo", ConnectionName: "x"},
		{StoreName: "mongo", ConnectionName: "missing"},
		{StoreName: "mongo", ConnectionName: "y"},
	})
	require.NoError(t, err)
	require.Len(t, removed, 3)
	assert.Equal(t, "x", removed[0].ConnectionName)
	assert.Nil(t, removed[1])
	assert.Equal(t, "y", removed[2].ConnectionName)

	remaining := s.GetStoreNamedConnections("mongo")
	require.Len(t, remaining, 1)
	assert.Equal(t, "z", remaining[0].ConnectionName)

	_, err = s.RemoveNamedConnections(nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = s.RemoveNamedConnections([]NamedConnection{{StoreName: "mongo"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestClearNamedConnections(t *testing.T) {
	s := NewConnectionStore()
	_, err := s.AddNamedConnections([]NamedConnection{
		{StoreName: "mongo", ConnectionName: "a", Connection: &fakeClient{}},
		{StoreName: "s3", ConnectionName: "b", Connection: &fakeClient{}},
	})
	require.NoError(t, err)

	before := s.GetNamedConnections()
	removed := s.ClearNamedConnections()
	assert.Equal(t, before, removed)
	assert.Empty(t, s.GetNamedConnections())
	assert.Equal(t, 0, s.CountStores())

	assert.Empty(t, s.ClearNamedConnections())
}

func TestNamedConnectionsSnapshotIsDetached(t *testing.T) {
	s := NewConnectionStore()
	c := &fakeClient{id: "a"}
	_, err := s.AddNamedConnection("mongo", "main", c)
	require.NoError(t, err)

	snap := s.NamedConnections()
	require.Contains(t, snap, "mongo")
	assert.Same(t, c, snap["mongo"]["main"])
	assert.Equal(t, 1, snap.Count())

	snap["mongo"]["injected"] = &fakeClient{}
	delete(snap, "mongo")

	got, err := s.GetNamedConnection("mongo", "main")
	require.NoError(t, err)
	assert.Same(t, c, got)
	injected, err := s.GetNamedConnection("mongo", "injected")
	require.NoError(t, err)
	assert.Nil(t, injected)
}

func TestSetNamedConnectionsFails(t *testing.T) {
	s := NewConnectionStore()
	_, err := s.AddNamedConnection("mongo", "main", &fakeClient{})
	require.NoError(t, err)

	err = s.SetNamedConnections(Snapshot{})
	require.ErrorIs(t, err, ErrIllegalAssignment)
	err = s.SetNamedConnections(nil)
	require.ErrorIs(t, err, ErrIllegalAssignment)

	assert.Equal(t, 1, s.Count())
}

func TestScope(t *testing.T) {
	s := NewConnectionStore()
	mongo := s.Scope(StoreMongo)
	assert.Equal(t, StoreMongo, mongo.StoreName())

	c := &fakeClient{id: "m"}
	_, err := mongo.Add("main", c)
	require.NoError(t, err)

	got, err := s.GetNamedConnection(StoreMongo, "main")
	require.NoError(t, err)
	assert.Same(t, c, got)

	got, err = mongo.Get("main")
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Len(t, mongo.List(), 1)

	removed, err := mongo.Remove("main")
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Empty(t, mongo.List())
}

func TestConcurrentAccess(t *testing.T) {
	s := NewConnectionStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.AddNamedConnection("mongo", string(rune('a'+i)), &fakeClient{})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.NamedConnections()
			_ = s.GetNamedConnections()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, s.CountStore("mongo"))
}

func TestDebugDoesNotPanic(t *testing.T) {
	s := NewConnectionStore()
	_, err := s.AddNamedConnection("mongo", "main", &fakeClient{})
	require.NoError(t, err)
	assert.NotPanics(t, s.Debug)
}
